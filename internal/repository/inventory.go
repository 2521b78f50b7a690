package repository

import (
	"context"
	"strings"

	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryRepository is a repository for the user's inventory and the
// ingredient catalog.
type InventoryRepository struct {
	DB *gorm.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// ListInventory returns every item, optionally filtered by location.
func (r *InventoryRepository) ListInventory(ctx context.Context, location models.StorageLocation) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	q := r.DB.WithContext(ctx).Preload("Ingredient").Order("location, id")
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if err := q.Find(&items).Error; err != nil {
		logger.Get().Error("failed to list inventory", zap.String("location", string(location)), zap.Error(err))
		return nil, err
	}
	return items, nil
}

// SearchInventoryByName returns the items whose ingredient name or alias
// contains name.
func (r *InventoryRepository) SearchInventoryByName(ctx context.Context, name string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	pattern := "%" + strings.TrimSpace(name) + "%"
	err := r.DB.WithContext(ctx).Preload("Ingredient").
		Joins("JOIN ingredients ON ingredients.id = inventory_items.ingredient_id").
		Where("ingredients.name ILIKE ? OR array_to_string(ingredients.aliases, ' ') ILIKE ?", pattern, pattern).
		Order("inventory_items.id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetInventoryItem retrieves an inventory item by its ID.
func (r *InventoryRepository) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB.WithContext(ctx).Preload("Ingredient").First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "Inventory item not found")
	}
	return &item, nil
}

// AddInventoryItem stores a new item.
func (r *InventoryRepository) AddInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		logger.Get().Error("failed to add inventory item", zap.Uint("ingredient_id", item.IngredientID), zap.Error(err))
		return err
	}
	return nil
}

// UpdateInventoryQuantity sets the quantity of an item.
func (r *InventoryRepository) UpdateInventoryQuantity(ctx context.Context, id uint, quantity float64) error {
	res := r.DB.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFoundError{message: "Inventory item not found"}
	}
	return nil
}

// DeleteInventoryItem removes an item.
func (r *InventoryRepository) DeleteInventoryItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFoundError{message: "Inventory item not found"}
	}
	return nil
}

// SearchIngredients searches the catalog by name or alias.
func (r *InventoryRepository) SearchIngredients(ctx context.Context, query, category string, limit int) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	pattern := "%" + strings.TrimSpace(query) + "%"
	q := r.DB.WithContext(ctx).
		Where("name ILIKE ? OR array_to_string(aliases, ' ') ILIKE ?", pattern, pattern)
	if category != "" {
		q = q.Where("category ILIKE ?", category)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("name").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// GetIngredientByID retrieves a catalog ingredient by its ID.
func (r *InventoryRepository) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := r.DB.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, notFoundOr(err, "Ingredient not found")
	}
	return &ing, nil
}

// FindIngredientsByNames returns catalog ingredients whose name matches one
// of names, case-insensitively.
func (r *InventoryRepository) FindIngredientsByNames(ctx context.Context, names []string) ([]models.Ingredient, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}
	var ingredients []models.Ingredient
	if err := r.DB.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
