package tools

import (
	"context"
	"math"
	"strings"
)

// Nutrients per 100 g.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrients) scaled(grams float64) Nutrients {
	f := grams / 100
	return Nutrients{
		Calories: round1(n.Calories * f),
		Protein:  round1(n.Protein * f),
		Carbs:    round1(n.Carbs * f),
		Fat:      round1(n.Fat * f),
	}
}

func (n Nutrients) add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: round1(n.Calories + o.Calories),
		Protein:  round1(n.Protein + o.Protein),
		Carbs:    round1(n.Carbs + o.Carbs),
		Fat:      round1(n.Fat + o.Fat),
	}
}

// basicNutrition is a small reference table for common ingredients, keyed
// by singular Spanish name.
var basicNutrition = map[string]Nutrients{
	"arroz":       {Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3},
	"frijol":      {Calories: 127, Protein: 8.7, Carbs: 22.8, Fat: 0.5},
	"pollo":       {Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	"res":         {Calories: 250, Protein: 26, Carbs: 0, Fat: 15},
	"huevo":       {Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
	"leche":       {Calories: 42, Protein: 3.4, Carbs: 5, Fat: 1},
	"queso":       {Calories: 402, Protein: 25, Carbs: 1.3, Fat: 33},
	"tomate":      {Calories: 18, Protein: 0.9, Carbs: 3.9, Fat: 0.2},
	"cebolla":     {Calories: 40, Protein: 1.1, Carbs: 9.3, Fat: 0.1},
	"ajo":         {Calories: 149, Protein: 6.4, Carbs: 33, Fat: 0.5},
	"papa":        {Calories: 77, Protein: 2, Carbs: 17, Fat: 0.1},
	"zanahoria":   {Calories: 41, Protein: 0.9, Carbs: 9.6, Fat: 0.2},
	"aguacate":    {Calories: 160, Protein: 2, Carbs: 8.5, Fat: 14.7},
	"tortilla":    {Calories: 218, Protein: 5.7, Carbs: 44.6, Fat: 2.9},
	"pan":         {Calories: 265, Protein: 9, Carbs: 49, Fat: 3.2},
	"pasta":       {Calories: 131, Protein: 5, Carbs: 25, Fat: 1.1},
	"aceite":      {Calories: 884, Protein: 0, Carbs: 0, Fat: 100},
	"mantequilla": {Calories: 717, Protein: 0.9, Carbs: 0.1, Fat: 81},
	"azucar":      {Calories: 387, Protein: 0, Carbs: 100, Fat: 0},
	"harina":      {Calories: 364, Protein: 10, Carbs: 76, Fat: 1},
	"platano":     {Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3},
	"manzana":     {Calories: 52, Protein: 0.3, Carbs: 13.8, Fat: 0.2},
	"chile":       {Calories: 40, Protein: 1.9, Carbs: 8.8, Fat: 0.4},
	"limon":       {Calories: 29, Protein: 1.1, Carbs: 9.3, Fat: 0.3},
}

// NutritionLookup returns the per-100 g nutrients of an ingredient name.
type NutritionLookup func(ctx context.Context, names []string) map[string]Nutrients

// lookupBasic finds name in the reference table, trying a naive singular.
func lookupBasic(name string) (Nutrients, bool) {
	key := nutritionKey(name)
	if n, ok := basicNutrition[key]; ok {
		return n, true
	}
	for _, suffix := range []string{"es", "s"} {
		if strings.HasSuffix(key, suffix) {
			if n, ok := basicNutrition[strings.TrimSuffix(key, suffix)]; ok {
				return n, true
			}
		}
	}
	return Nutrients{}, false
}

func nutritionKey(name string) string {
	r := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")
	return r.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// CalculateNutrition totals the reference nutrients of ingredients[{name, grams}].
func CalculateNutrition(ctx context.Context, args Args) Result {
	return calculateNutrition(ctx, args, nil)
}

// NutritionHandler returns a calculateNutrition handler that prefers the
// values from lookup and falls back to the reference table.
func NutritionHandler(lookup NutritionLookup) Handler {
	return func(ctx context.Context, args Args) Result {
		return calculateNutrition(ctx, args, lookup)
	}
}

func calculateNutrition(ctx context.Context, args Args, lookup NutritionLookup) Result {
	ings := args.Objects("ingredients")
	if len(ings) == 0 {
		return Fail("se requiere una lista de ingredientes con nombre y gramos")
	}

	var known map[string]Nutrients
	if lookup != nil {
		names := make([]string, 0, len(ings))
		for _, ing := range ings {
			names = append(names, ing.String("name"))
		}
		known = lookup(ctx, names)
	}

	var total Nutrients
	breakdown := make([]map[string]interface{}, 0, len(ings))
	unknown := []string{}
	for _, ing := range ings {
		name := ing.String("name")
		grams, ok := ing.Float("grams")
		if name == "" || !ok || grams <= 0 {
			return Fail("cada ingrediente necesita nombre y gramos mayores a cero")
		}
		per100, found := known[nutritionKey(name)]
		if !found {
			per100, found = lookupBasic(name)
		}
		if !found {
			unknown = append(unknown, name)
			continue
		}
		n := per100.scaled(grams)
		total = total.add(n)
		breakdown = append(breakdown, map[string]interface{}{
			"name":      name,
			"grams":     grams,
			"nutrients": n,
		})
	}

	return OK(map[string]interface{}{
		"total":     total,
		"breakdown": breakdown,
		"unknown":   unknown,
	})
}

// ScalePortions rescales ingredients[{name, quantity, unit}] from
// fromServings to toServings.
func ScalePortions(_ context.Context, args Args) Result {
	from, okFrom := args.Float("fromServings")
	to, okTo := args.Float("toServings")
	if !okFrom || !okTo || from <= 0 || to <= 0 {
		return Fail("las porciones deben ser números mayores a cero")
	}
	ings := args.Objects("ingredients")
	if len(ings) == 0 {
		return Fail("se requiere una lista de ingredientes")
	}

	factor := to / from
	scaled := make([]map[string]interface{}, 0, len(ings))
	for _, ing := range ings {
		q, ok := ing.Float("quantity")
		if !ok {
			return Fail("falta la cantidad de %s", ing.String("name"))
		}
		scaled = append(scaled, map[string]interface{}{
			"name":     ing.String("name"),
			"quantity": round2(q * factor),
			"unit":     ing.String("unit"),
		})
	}
	return OK(map[string]interface{}{
		"factor":       round2(factor),
		"fromServings": from,
		"toServings":   to,
		"ingredients":  scaled,
	})
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }
