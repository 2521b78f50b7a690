package repository

import (
	"context"

	"github.com/windoze95/reme-voice/internal/models"
)

// InventoryRepo is the interface for inventory and ingredient catalog operations.
type InventoryRepo interface {
	ListInventory(ctx context.Context, location models.StorageLocation) ([]models.InventoryItem, error)
	SearchInventoryByName(ctx context.Context, name string) ([]models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error)
	AddInventoryItem(ctx context.Context, item *models.InventoryItem) error
	UpdateInventoryQuantity(ctx context.Context, id uint, quantity float64) error
	DeleteInventoryItem(ctx context.Context, id uint) error
	SearchIngredients(ctx context.Context, query, category string, limit int) ([]models.Ingredient, error)
	GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error)
	FindIngredientsByNames(ctx context.Context, names []string) ([]models.Ingredient, error)
}

// ApplianceRepo is the interface for appliance operations.
type ApplianceRepo interface {
	ListAppliances(ctx context.Context, category string) ([]models.Appliance, error)
	FindApplianceByName(ctx context.Context, name string) (*models.Appliance, error)
	AddAppliance(ctx context.Context, appliance *models.Appliance) error
	DeleteAppliance(ctx context.Context, id uint) error
}

// RecipeRepo is the interface for recipe operations.
type RecipeRepo interface {
	SearchRecipes(ctx context.Context, query string, limit int) ([]models.Recipe, error)
	GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error)
	ListRecipesWithIngredients(ctx context.Context) ([]models.Recipe, error)
}
