package testutil

import (
	"time"

	"github.com/lib/pq"
	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/models"
	"gorm.io/gorm"
)

// TestIngredient creates a catalog ingredient with nutrition values.
func TestIngredient(id uint, name string) models.Ingredient {
	return models.Ingredient{
		Model:       gorm.Model{ID: id},
		Name:        name,
		Category:    "Verduras",
		DefaultUnit: "piezas",
		Aliases:     pq.StringArray{name + "s"},
		Calories:    18,
		Protein:     0.9,
		Carbs:       3.9,
		Fat:         0.2,
	}
}

// TestInventoryItem creates an inventory item of ingredient ing.
func TestInventoryItem(id uint, ing models.Ingredient, quantity float64, loc models.StorageLocation) models.InventoryItem {
	return models.InventoryItem{
		Model:        gorm.Model{ID: id},
		IngredientID: ing.ID,
		Ingredient:   ing,
		Quantity:     quantity,
		Unit:         ing.DefaultUnit,
		Location:     loc,
	}
}

// TestExpiringItem creates an inventory item expiring at exp.
func TestExpiringItem(id uint, ing models.Ingredient, exp time.Time) models.InventoryItem {
	it := TestInventoryItem(id, ing, 1, models.LocationFridge)
	it.ExpirationDate = &exp
	return it
}

// TestRecipe creates a recipe requiring the given ingredients.
func TestRecipe(id uint, name string, ings ...models.Ingredient) *models.Recipe {
	r := &models.Recipe{
		Model:        gorm.Model{ID: id},
		Name:         name,
		Description:  "Receta de prueba",
		Servings:     4,
		TotalMinutes: 30,
		Difficulty:   "fácil",
		Tags:         pq.StringArray{"comida"},
		Steps: models.RecipeSteps{
			{Instruction: "Lava los ingredientes."},
			{Instruction: "Cocina a fuego medio.", DurationSeconds: 600},
		},
	}
	for i, ing := range ings {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{
			ID:           uint(i + 1),
			RecipeID:     id,
			IngredientID: ing.ID,
			Ingredient:   ing,
			Quantity:     2,
			Unit:         ing.DefaultUnit,
		})
	}
	return r
}

// ToolCallResponse is a chat response requesting the given calls.
func ToolCallResponse(calls ...ai.ToolCall) *ai.ChatResponse {
	return &ai.ChatResponse{ToolCalls: calls, FinishReason: ai.FinishToolCalls}
}

// AnswerResponse is a final chat response.
func AnswerResponse(text string) *ai.ChatResponse {
	return &ai.ChatResponse{Content: text, FinishReason: ai.FinishStop}
}
