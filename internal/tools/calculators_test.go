package tools

import (
	"context"
	"testing"
)

func TestCalculateNutrition(t *testing.T) {
	args := ParseArgs(`{"ingredients":[{"name":"Arroz","grams":200},{"name":"huevos","grams":100},{"name":"kale","grams":50}]}`)
	res := CalculateNutrition(context.Background(), args)
	if !res.Success {
		t.Fatalf("CalculateNutrition failed: %s", res.Error)
	}
	total := res.Data["total"].(Nutrients)
	// 2 x 130 for rice, 155 for eggs
	if total.Calories != 415 {
		t.Errorf("total calories = %v, want 415", total.Calories)
	}
	unknown := res.Data["unknown"].([]string)
	if len(unknown) != 1 || unknown[0] != "kale" {
		t.Errorf("unknown = %v, want [kale]", unknown)
	}
}

func TestCalculateNutrition_LookupWins(t *testing.T) {
	h := NutritionHandler(func(ctx context.Context, names []string) map[string]Nutrients {
		return map[string]Nutrients{"arroz": {Calories: 100}}
	})
	res := h(context.Background(), ParseArgs(`{"ingredients":[{"name":"arroz","grams":100}]}`))
	if got := res.Data["total"].(Nutrients).Calories; got != 100 {
		t.Errorf("calories = %v, want 100 from lookup", got)
	}
}

func TestCalculateNutrition_Invalid(t *testing.T) {
	if res := CalculateNutrition(context.Background(), Args{}); res.Success {
		t.Error("missing ingredients should fail")
	}
	res := CalculateNutrition(context.Background(), ParseArgs(`{"ingredients":[{"name":"arroz","grams":0}]}`))
	if res.Success {
		t.Error("zero grams should fail")
	}
}

func TestScalePortions(t *testing.T) {
	args := ParseArgs(`{"ingredients":[{"name":"harina","quantity":300,"unit":"g"},{"name":"huevo","quantity":3,"unit":"piezas"}],"fromServings":6,"toServings":4}`)
	res := ScalePortions(context.Background(), args)
	if !res.Success {
		t.Fatalf("ScalePortions failed: %s", res.Error)
	}
	ings := res.Data["ingredients"].([]map[string]interface{})
	if got := ings[0]["quantity"]; got != 200.0 {
		t.Errorf("harina = %v, want 200", got)
	}
	if got := ings[1]["quantity"]; got != 2.0 {
		t.Errorf("huevo = %v, want 2", got)
	}
	if got := res.Data["factor"]; got != 0.67 {
		t.Errorf("factor = %v, want 0.67", got)
	}
}

func TestScalePortions_InvalidServings(t *testing.T) {
	res := ScalePortions(context.Background(), ParseArgs(`{"ingredients":[{"name":"a","quantity":1}],"fromServings":0,"toServings":4}`))
	if res.Success {
		t.Error("zero servings should fail")
	}
}
