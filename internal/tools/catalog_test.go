package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/windoze95/reme-voice/internal/ai"
)

func TestNewCatalog_DeclaresEveryFunction(t *testing.T) {
	c := NewCatalog()
	want := []string{
		FnGetInventory, FnSearchInventoryByName, FnGetInventorySummary, FnGetInventoryAlerts,
		FnSearchIngredients, FnAddToInventory, FnRemoveFromInventory, FnGetAppliances,
		FnCheckAppliance, FnAddAppliance, FnRemoveAppliance, FnSearchRecipes,
		FnGetRecipeDetails, FnGetRecipesByIngredients, FnCheckRecipeIngredients,
		FnOpenRecipe, FnCalculateNutrition, FnScalePortions,
	}
	if got := len(c.Definitions()); got != len(want) {
		t.Fatalf("len(Definitions()) = %d, want %d", got, len(want))
	}
	for _, name := range want {
		if !c.Has(name) {
			t.Errorf("catalog missing %q", name)
		}
	}
	for _, d := range c.Definitions() {
		if d.Parameters["type"] != "object" {
			t.Errorf("%s parameters type = %v, want object", d.Name, d.Parameters["type"])
		}
		if d.Description == "" {
			t.Errorf("%s has no description", d.Name)
		}
	}
}

func TestCatalogExecute_UnknownFunction(t *testing.T) {
	c := NewCatalog()
	res := c.Execute(context.Background(), ai.ToolCall{ID: "1", Name: "launchRocket", Arguments: "{}"})
	if res.Success {
		t.Fatal("unknown function should fail")
	}
	if res.Error == "" {
		t.Error("unknown function should carry an error message")
	}
}

func TestCatalogExecute_MalformedArgsReachHandlerEmpty(t *testing.T) {
	c := NewCatalog()
	var got Args
	c.Register(FnGetInventory, func(ctx context.Context, args Args) Result {
		got = args
		return OK(map[string]interface{}{"items": []interface{}{}})
	})
	res := c.Execute(context.Background(), ai.ToolCall{Name: FnGetInventory, Arguments: "{not json"})
	if !res.Success {
		t.Fatalf("handler result lost: %+v", res)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("args = %v, want empty Args", got)
	}
}

func TestCatalogExecute_RecoversPanic(t *testing.T) {
	c := NewCatalog()
	c.Register(FnGetAppliances, func(ctx context.Context, args Args) Result {
		panic("boom")
	})
	res := c.Execute(context.Background(), ai.ToolCall{Name: FnGetAppliances, Arguments: "{}"})
	if res.Success {
		t.Error("panicking handler should produce success:false")
	}
}

func TestCatalogExecute_NoHandlerNoFallback(t *testing.T) {
	c := NewCatalog()
	res := c.Execute(context.Background(), ai.ToolCall{Name: FnSearchRecipes, Arguments: `{"query":"sopa"}`})
	if res.Success {
		t.Error("function without handler or fallback should fail")
	}
}

func TestCatalogWithFallback_LocalCalculatorsStayLocal(t *testing.T) {
	base := NewCatalog()
	var forwarded []string
	c := base.WithFallback(ExecutorFunc(func(ctx context.Context, call ai.ToolCall) Result {
		forwarded = append(forwarded, call.Name)
		return OK(map[string]interface{}{"items": []interface{}{"x"}})
	}))

	c.Execute(context.Background(), ai.ToolCall{Name: FnGetInventory, Arguments: "{}"})
	res := c.Execute(context.Background(), ai.ToolCall{
		Name:      FnScalePortions,
		Arguments: `{"ingredients":[{"name":"arroz","quantity":200,"unit":"g"}],"fromServings":2,"toServings":4}`,
	})
	if !res.Success {
		t.Fatalf("scalePortions failed: %s", res.Error)
	}
	if len(forwarded) != 1 || forwarded[0] != FnGetInventory {
		t.Errorf("forwarded = %v, want [getInventory]", forwarded)
	}

	// The base catalog keeps no fallback.
	if r := base.Execute(context.Background(), ai.ToolCall{Name: FnGetInventory, Arguments: "{}"}); r.Success {
		t.Error("base catalog should not have gained a fallback")
	}
}

func TestCatalogRegister_UndeclaredPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register of an undeclared function should panic")
		}
	}()
	NewCatalog().Register("nope", func(ctx context.Context, args Args) Result { return Result{} })
}

func TestResultIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"empty items and zero total", OK(map[string]interface{}{"items": []interface{}{}, "totalItems": 0}), true},
		{"empty results", OK(map[string]interface{}{"results": []map[string]interface{}{}}), true},
		{"decoded zero count", OK(map[string]interface{}{"count": float64(0)}), true},
		{"non-empty items", OK(map[string]interface{}{"items": []interface{}{"a"}}), false},
		{"positive total", OK(map[string]interface{}{"items": []interface{}{}, "totalItems": 2}), false},
		{"no known keys", OK(map[string]interface{}{"hasAppliance": false}), false},
		{"failure", Fail("x"), false},
		{"nil data", OK(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResult_NestedAndFlat(t *testing.T) {
	nested := ParseResult(json.RawMessage(`{"success":true,"data":{"items":[]}}`))
	if !nested.Success || !nested.IsEmpty() {
		t.Errorf("nested result = %+v, want successful empty", nested)
	}

	flat := ParseResult(json.RawMessage(`{"success":true,"route":"/recipes/7"}`))
	if route, ok := flat.Route(); !ok || route != "/recipes/7" {
		t.Errorf("Route() = %q, %v; want /recipes/7", route, ok)
	}

	bad := ParseResult(json.RawMessage(`[1,2]`))
	if bad.Success {
		t.Error("non-object result should fail")
	}
}

func TestArgs(t *testing.T) {
	a := ParseArgs(`{"name":" tomate ","qty":"2.5","ids":["1",2],"n":3}`)
	if got := a.String("name"); got != "tomate" {
		t.Errorf("String(name) = %q, want tomate", got)
	}
	if got, ok := a.Float("qty"); !ok || got != 2.5 {
		t.Errorf("Float(qty) = %v, %v; want 2.5", got, ok)
	}
	if got := a.Int("n", 0); got != 3 {
		t.Errorf("Int(n) = %d, want 3", got)
	}
	if got := a.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %d, want default 7", got)
	}
	ids := a.Strings("ids")
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Errorf("Strings(ids) = %v, want [1 2]", ids)
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := map[string]string{
		"refri":      "Refrigerador",
		"Nevera":     "Refrigerador",
		"el freezer": "Congelador",
		"congelador": "Congelador",
		"despensa":   "Alacena",
		"pantry":     "Alacena",
		"la alacena": "Alacena",
	}
	for in, want := range tests {
		got, ok := NormalizeLocation(in)
		if !ok || string(got) != want {
			t.Errorf("NormalizeLocation(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := NormalizeLocation("garage"); ok {
		t.Error("NormalizeLocation(garage) should fail")
	}
}
