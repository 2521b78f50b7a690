package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/models"
	"github.com/windoze95/reme-voice/internal/repository"
	"github.com/windoze95/reme-voice/internal/testutil"
	"github.com/windoze95/reme-voice/internal/tools"
)

func setupStore() (*tools.Catalog, *testutil.MockInventoryRepo, *testutil.MockApplianceRepo, *testutil.MockRecipeRepo) {
	inv := &testutil.MockInventoryRepo{}
	app := &testutil.MockApplianceRepo{}
	rec := &testutil.MockRecipeRepo{}
	store := tools.NewStore(inv, app, rec)
	store.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	c := tools.NewCatalog()
	store.Register(c)
	return c, inv, app, rec
}

func call(c *tools.Catalog, name, args string) tools.Result {
	return c.Execute(context.Background(), ai.ToolCall{ID: "call-1", Name: name, Arguments: args})
}

func TestStore_GetInventoryNormalizesLocation(t *testing.T) {
	c, inv, _, _ := setupStore()
	inv.ListInventoryFunc = func(ctx context.Context, loc models.StorageLocation) ([]models.InventoryItem, error) {
		if loc != models.LocationFridge {
			t.Errorf("location = %q, want Refrigerador", loc)
		}
		return nil, nil
	}
	res := call(c, tools.FnGetInventory, `{"location":"refri"}`)
	if !res.Success {
		t.Fatalf("getInventory failed: %s", res.Error)
	}
	if !res.IsEmpty() {
		t.Error("no items should be an empty result")
	}
}

func TestStore_SearchInventoryByName(t *testing.T) {
	c, inv, _, _ := setupStore()
	tomate := testutil.TestIngredient(3, "tomate")
	inv.SearchInventoryByNameFunc = func(ctx context.Context, name string) ([]models.InventoryItem, error) {
		return []models.InventoryItem{testutil.TestInventoryItem(9, tomate, 4, models.LocationFridge)}, nil
	}
	res := call(c, tools.FnSearchInventoryByName, `{"ingredientName":"tomate"}`)
	if !res.Success || res.IsEmpty() {
		t.Fatalf("result = %+v, want one item", res)
	}
	items := res.Data["items"].([]map[string]interface{})
	if items[0]["id"] != "9" || items[0]["ingredientName"] != "tomate" {
		t.Errorf("item = %v", items[0])
	}
}

func TestStore_AddToInventory(t *testing.T) {
	c, inv, _, _ := setupStore()
	inv.GetIngredientByIDFunc = func(ctx context.Context, id uint) (*models.Ingredient, error) {
		ing := testutil.TestIngredient(id, "leche")
		return &ing, nil
	}
	var stored *models.InventoryItem
	inv.AddInventoryItemFunc = func(ctx context.Context, item *models.InventoryItem) error {
		item.ID = 21
		stored = item
		return nil
	}

	res := call(c, tools.FnAddToInventory,
		`{"ingredientId":"5","quantity":2,"unit":"l","location":"nevera","expirationDate":"2026-03-20"}`)
	if !res.Success {
		t.Fatalf("addToInventory failed: %s", res.Error)
	}
	if stored.Location != models.LocationFridge || stored.IngredientID != 5 {
		t.Errorf("stored = %+v", stored)
	}
	if stored.ExpirationDate == nil || stored.ExpirationDate.Day() != 20 {
		t.Errorf("expiration = %v, want 2026-03-20", stored.ExpirationDate)
	}
}

func TestStore_AddToInventoryValidation(t *testing.T) {
	c, _, _, _ := setupStore()
	tests := map[string]string{
		"non-numeric id":   `{"ingredientId":"abc","quantity":1,"unit":"g","location":"Alacena"}`,
		"missing location": `{"ingredientId":"1","quantity":1,"unit":"g"}`,
		"zero quantity":    `{"ingredientId":"1","quantity":0,"unit":"g","location":"Alacena"}`,
		"bad date":         `{"ingredientId":"1","quantity":1,"unit":"g","location":"Alacena","expirationDate":"20/03/2026"}`,
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if res := call(c, tools.FnAddToInventory, args); res.Success {
				t.Error("expected failure")
			}
		})
	}
}

func TestStore_RemoveFromInventoryPartial(t *testing.T) {
	c, inv, _, _ := setupStore()
	ing := testutil.TestIngredient(1, "huevo")
	inv.GetInventoryItemFunc = func(ctx context.Context, id uint) (*models.InventoryItem, error) {
		it := testutil.TestInventoryItem(id, ing, 12, models.LocationFridge)
		return &it, nil
	}
	var updated float64
	inv.UpdateInventoryQuantityFunc = func(ctx context.Context, id uint, q float64) error {
		updated = q
		return nil
	}
	res := call(c, tools.FnRemoveFromInventory, `{"itemId":"4","quantity":3}`)
	if !res.Success || updated != 9 {
		t.Errorf("result = %+v, updated = %v; want 9 remaining", res, updated)
	}
}

func TestStore_InventoryAlerts(t *testing.T) {
	c, inv, _, _ := setupStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ing := testutil.TestIngredient(1, "yogur")
	low := testutil.TestInventoryItem(3, ing, 1, models.LocationFridge)
	low.MinQuantity = 2
	inv.ListInventoryFunc = func(ctx context.Context, loc models.StorageLocation) ([]models.InventoryItem, error) {
		return []models.InventoryItem{
			testutil.TestExpiringItem(1, ing, now.Add(-time.Hour)),
			testutil.TestExpiringItem(2, ing, now.Add(48*time.Hour)),
			low,
			testutil.TestExpiringItem(4, ing, now.Add(30*24*time.Hour)),
		}, nil
	}
	res := call(c, tools.FnGetInventoryAlerts, `{}`)
	alerts := res.Data["alerts"].([]map[string]interface{})
	if len(alerts) != 3 {
		t.Fatalf("len(alerts) = %d, want 3", len(alerts))
	}
	for i, want := range []string{"expired", "expiring", "low"} {
		if alerts[i]["alert"] != want {
			t.Errorf("alerts[%d] = %v, want %s", i, alerts[i]["alert"], want)
		}
	}
}

func TestStore_CheckApplianceMissing(t *testing.T) {
	c, _, app, _ := setupStore()
	app.FindApplianceByNameFunc = func(ctx context.Context, name string) (*models.Appliance, error) {
		return nil, repository.NotFoundError{}
	}
	res := call(c, tools.FnCheckAppliance, `{"name":"freidora de aire"}`)
	if !res.Success || res.Data["hasAppliance"] != false {
		t.Errorf("result = %+v, want hasAppliance false", res)
	}
}

func TestStore_OpenRecipeCarriesRoute(t *testing.T) {
	c, _, _, rec := setupStore()
	rec.GetRecipeByIDFunc = func(ctx context.Context, id uint) (*models.Recipe, error) {
		return testutil.TestRecipe(id, "Sopa de tortilla"), nil
	}
	res := call(c, tools.FnOpenRecipe, `{"recipeId":"12"}`)
	if route, ok := res.Route(); !ok || route != "/recipes/12" {
		t.Errorf("Route() = %q, %v; want /recipes/12", route, ok)
	}
}

func TestStore_RecipesByIngredients(t *testing.T) {
	c, _, _, rec := setupStore()
	arroz := testutil.TestIngredient(1, "arroz")
	pollo := testutil.TestIngredient(2, "pollo")
	ajo := testutil.TestIngredient(3, "ajo")
	cebolla := testutil.TestIngredient(4, "cebolla")
	rec.ListRecipesWithIngredientsFunc = func(ctx context.Context) ([]models.Recipe, error) {
		return []models.Recipe{
			*testutil.TestRecipe(1, "Arroz con pollo", arroz, pollo, ajo),
			*testutil.TestRecipe(2, "Sopa de cebolla", cebolla, ajo, pollo),
		}, nil
	}
	res := call(c, tools.FnGetRecipesByIngredients, `{"ingredientIds":["1","2"],"maxMissingIngredients":1}`)
	recipes := res.Data["recipes"].([]map[string]interface{})
	if len(recipes) != 1 || recipes[0]["name"] != "Arroz con pollo" {
		t.Errorf("recipes = %v, want only Arroz con pollo", recipes)
	}
}
