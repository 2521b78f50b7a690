package repository

import (
	"context"
	"strings"

	"github.com/windoze95/reme-voice/internal/models"
	"gorm.io/gorm"
)

// RecipeRepository is a repository for interacting with recipes.
type RecipeRepository struct {
	DB *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{DB: db}
}

// SearchRecipes matches query against name, description and tags.
func (r *RecipeRepository) SearchRecipes(ctx context.Context, query string, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	pattern := "%" + strings.TrimSpace(query) + "%"
	q := r.DB.WithContext(ctx).
		Where("name ILIKE ? OR description ILIKE ? OR array_to_string(tags, ' ') ILIKE ?", pattern, pattern, pattern).
		Order("name")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipeByID retrieves a recipe by its ID with its ingredients.
func (r *RecipeRepository) GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.DB.WithContext(ctx).
		Preload("Ingredients.Ingredient").
		First(&recipe, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Recipe not found")
	}
	return &recipe, nil
}

// ListRecipesWithIngredients returns every recipe with its ingredients,
// used for ingredient-coverage matching.
func (r *RecipeRepository) ListRecipesWithIngredients(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := r.DB.WithContext(ctx).Preload("Ingredients.Ingredient").Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
