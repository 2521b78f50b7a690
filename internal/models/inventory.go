package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// StorageLocation is where an inventory item is kept.
type StorageLocation string

// StorageLocation enum values.
const (
	LocationFridge  StorageLocation = "Refrigerador"
	LocationFreezer StorageLocation = "Congelador"
	LocationPantry  StorageLocation = "Alacena"
)

// Locations lists every valid StorageLocation.
var Locations = []StorageLocation{LocationFridge, LocationFreezer, LocationPantry}

// Ingredient is an entry of the ingredient catalog.
type Ingredient struct {
	gorm.Model
	Name        string         `json:"name" gorm:"uniqueIndex"`
	Category    string         `json:"category" gorm:"index"`
	DefaultUnit string         `json:"defaultUnit"`
	Aliases     pq.StringArray `json:"aliases,omitempty" gorm:"type:text[]"`
	// Nutrition per 100 g.
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// InventoryItem is a quantity of an ingredient the user has at home.
type InventoryItem struct {
	gorm.Model
	IngredientID   uint            `json:"ingredientId" gorm:"index"`
	Ingredient     Ingredient      `json:"ingredient"`
	Quantity       float64         `json:"quantity"`
	Unit           string          `json:"unit"`
	Location       StorageLocation `json:"location" gorm:"type:text;index"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	// Below MinQuantity the item shows up in alerts.
	MinQuantity float64 `json:"minQuantity,omitempty"`
}

// ExpiresWithin reports whether the item expires before now+d.
func (i InventoryItem) ExpiresWithin(now time.Time, d time.Duration) bool {
	return i.ExpirationDate != nil && i.ExpirationDate.Before(now.Add(d))
}

// IsLow reports whether the item is under its minimum quantity.
func (i InventoryItem) IsLow() bool {
	return i.MinQuantity > 0 && i.Quantity < i.MinQuantity
}
