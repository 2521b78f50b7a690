package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Recipe is the model for a recipe.
type Recipe struct {
	gorm.Model
	Name               string             `json:"name" gorm:"index"`
	Description        string             `json:"description"`
	Servings           int                `json:"servings"`
	TotalMinutes       int                `json:"totalMinutes"`
	Difficulty         string             `json:"difficulty"`
	Tags               pq.StringArray     `json:"tags" gorm:"type:text[]"`
	RequiredAppliances pq.StringArray     `json:"requiredAppliances" gorm:"type:text[]"`
	Ingredients        []RecipeIngredient `json:"ingredients"`
	Steps              RecipeSteps        `json:"steps" gorm:"type:jsonb"`
}

// RecipeIngredient links a recipe to a catalog ingredient.
type RecipeIngredient struct {
	ID           uint       `json:"id" gorm:"primarykey"`
	RecipeID     uint       `json:"recipeId" gorm:"index"`
	IngredientID uint       `json:"ingredientId" gorm:"index"`
	Ingredient   Ingredient `json:"ingredient"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit"`
	Optional     bool       `json:"optional,omitempty"`
}

// RecipeStep is one instruction of a recipe.
type RecipeStep struct {
	Instruction     string   `json:"instruction"`
	Ingredients     []string `json:"ingredients,omitempty"`
	DurationSeconds int      `json:"duration,omitempty"`
	Tip             string   `json:"tip,omitempty"`
	Warning         string   `json:"warning,omitempty"`
}

// RecipeSteps is a slice of RecipeStep.
// This is a workaround for GORM to embed a slice of structs into a JSONB field.
type RecipeSteps []RecipeStep

// Scan is a GORM hook that scans jsonb into RecipeSteps.
func (s *RecipeSteps) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	var result RecipeSteps
	err := json.Unmarshal(bytes, &result)
	*s = result

	return err
}

// Value is a GORM hook that returns json value of RecipeSteps.
func (s RecipeSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}
