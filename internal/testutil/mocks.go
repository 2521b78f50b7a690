package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/models"
	"github.com/windoze95/reme-voice/internal/repository"
)

// --- MockChatProvider ---

// MockChatProvider is a mock implementation of ai.ChatProvider. Calls are
// recorded so tests can inspect the requests.
type MockChatProvider struct {
	CompleteFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	PingFunc     func(ctx context.Context) error

	mu       sync.Mutex
	requests []ai.ChatRequest
}

func (m *MockChatProvider) Complete(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return nil, fmt.Errorf("Complete not configured")
}

func (m *MockChatProvider) Name() string { return "mock" }

func (m *MockChatProvider) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Requests returns the requests received so far.
func (m *MockChatProvider) Requests() []ai.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.ChatRequest(nil), m.requests...)
}

// ScriptedChat returns a CompleteFunc answering with responses in order.
// Calls past the end repeat the last response.
func ScriptedChat(responses ...*ai.ChatResponse) func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(responses) == 0 {
			return nil, fmt.Errorf("no scripted responses")
		}
		r := responses[i]
		if i < len(responses)-1 {
			i++
		}
		return r, nil
	}
}

// --- MockSpeechProvider ---

// MockSpeechProvider is a mock implementation of ai.SpeechProvider.
type MockSpeechProvider struct {
	TranscribeAudioFunc func(ctx context.Context, data []byte, format string) (string, error)
}

func (m *MockSpeechProvider) TranscribeAudio(ctx context.Context, data []byte, format string) (string, error) {
	if m.TranscribeAudioFunc != nil {
		return m.TranscribeAudioFunc(ctx, data, format)
	}
	return "", fmt.Errorf("TranscribeAudio not configured")
}

// --- MockInventoryRepo ---

// MockInventoryRepo is a mock implementation of repository.InventoryRepo.
type MockInventoryRepo struct {
	ListInventoryFunc           func(ctx context.Context, location models.StorageLocation) ([]models.InventoryItem, error)
	SearchInventoryByNameFunc   func(ctx context.Context, name string) ([]models.InventoryItem, error)
	GetInventoryItemFunc        func(ctx context.Context, id uint) (*models.InventoryItem, error)
	AddInventoryItemFunc        func(ctx context.Context, item *models.InventoryItem) error
	UpdateInventoryQuantityFunc func(ctx context.Context, id uint, quantity float64) error
	DeleteInventoryItemFunc     func(ctx context.Context, id uint) error
	SearchIngredientsFunc       func(ctx context.Context, query, category string, limit int) ([]models.Ingredient, error)
	GetIngredientByIDFunc       func(ctx context.Context, id uint) (*models.Ingredient, error)
	FindIngredientsByNamesFunc  func(ctx context.Context, names []string) ([]models.Ingredient, error)
}

var _ repository.InventoryRepo = (*MockInventoryRepo)(nil)

func (m *MockInventoryRepo) ListInventory(ctx context.Context, location models.StorageLocation) ([]models.InventoryItem, error) {
	if m.ListInventoryFunc != nil {
		return m.ListInventoryFunc(ctx, location)
	}
	return nil, fmt.Errorf("ListInventory not configured")
}

func (m *MockInventoryRepo) SearchInventoryByName(ctx context.Context, name string) ([]models.InventoryItem, error) {
	if m.SearchInventoryByNameFunc != nil {
		return m.SearchInventoryByNameFunc(ctx, name)
	}
	return nil, fmt.Errorf("SearchInventoryByName not configured")
}

func (m *MockInventoryRepo) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	if m.GetInventoryItemFunc != nil {
		return m.GetInventoryItemFunc(ctx, id)
	}
	return nil, fmt.Errorf("GetInventoryItem not configured")
}

func (m *MockInventoryRepo) AddInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	if m.AddInventoryItemFunc != nil {
		return m.AddInventoryItemFunc(ctx, item)
	}
	return fmt.Errorf("AddInventoryItem not configured")
}

func (m *MockInventoryRepo) UpdateInventoryQuantity(ctx context.Context, id uint, quantity float64) error {
	if m.UpdateInventoryQuantityFunc != nil {
		return m.UpdateInventoryQuantityFunc(ctx, id, quantity)
	}
	return fmt.Errorf("UpdateInventoryQuantity not configured")
}

func (m *MockInventoryRepo) DeleteInventoryItem(ctx context.Context, id uint) error {
	if m.DeleteInventoryItemFunc != nil {
		return m.DeleteInventoryItemFunc(ctx, id)
	}
	return fmt.Errorf("DeleteInventoryItem not configured")
}

func (m *MockInventoryRepo) SearchIngredients(ctx context.Context, query, category string, limit int) ([]models.Ingredient, error) {
	if m.SearchIngredientsFunc != nil {
		return m.SearchIngredientsFunc(ctx, query, category, limit)
	}
	return nil, fmt.Errorf("SearchIngredients not configured")
}

func (m *MockInventoryRepo) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	if m.GetIngredientByIDFunc != nil {
		return m.GetIngredientByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("GetIngredientByID not configured")
}

func (m *MockInventoryRepo) FindIngredientsByNames(ctx context.Context, names []string) ([]models.Ingredient, error) {
	if m.FindIngredientsByNamesFunc != nil {
		return m.FindIngredientsByNamesFunc(ctx, names)
	}
	return nil, fmt.Errorf("FindIngredientsByNames not configured")
}

// --- MockApplianceRepo ---

// MockApplianceRepo is a mock implementation of repository.ApplianceRepo.
type MockApplianceRepo struct {
	ListAppliancesFunc      func(ctx context.Context, category string) ([]models.Appliance, error)
	FindApplianceByNameFunc func(ctx context.Context, name string) (*models.Appliance, error)
	AddApplianceFunc        func(ctx context.Context, appliance *models.Appliance) error
	DeleteApplianceFunc     func(ctx context.Context, id uint) error
}

var _ repository.ApplianceRepo = (*MockApplianceRepo)(nil)

func (m *MockApplianceRepo) ListAppliances(ctx context.Context, category string) ([]models.Appliance, error) {
	if m.ListAppliancesFunc != nil {
		return m.ListAppliancesFunc(ctx, category)
	}
	return nil, fmt.Errorf("ListAppliances not configured")
}

func (m *MockApplianceRepo) FindApplianceByName(ctx context.Context, name string) (*models.Appliance, error) {
	if m.FindApplianceByNameFunc != nil {
		return m.FindApplianceByNameFunc(ctx, name)
	}
	return nil, fmt.Errorf("FindApplianceByName not configured")
}

func (m *MockApplianceRepo) AddAppliance(ctx context.Context, appliance *models.Appliance) error {
	if m.AddApplianceFunc != nil {
		return m.AddApplianceFunc(ctx, appliance)
	}
	return fmt.Errorf("AddAppliance not configured")
}

func (m *MockApplianceRepo) DeleteAppliance(ctx context.Context, id uint) error {
	if m.DeleteApplianceFunc != nil {
		return m.DeleteApplianceFunc(ctx, id)
	}
	return fmt.Errorf("DeleteAppliance not configured")
}

// --- MockRecipeRepo ---

// MockRecipeRepo is a mock implementation of repository.RecipeRepo.
type MockRecipeRepo struct {
	SearchRecipesFunc              func(ctx context.Context, query string, limit int) ([]models.Recipe, error)
	GetRecipeByIDFunc              func(ctx context.Context, id uint) (*models.Recipe, error)
	ListRecipesWithIngredientsFunc func(ctx context.Context) ([]models.Recipe, error)
}

var _ repository.RecipeRepo = (*MockRecipeRepo)(nil)

func (m *MockRecipeRepo) SearchRecipes(ctx context.Context, query string, limit int) ([]models.Recipe, error) {
	if m.SearchRecipesFunc != nil {
		return m.SearchRecipesFunc(ctx, query, limit)
	}
	return nil, fmt.Errorf("SearchRecipes not configured")
}

func (m *MockRecipeRepo) GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error) {
	if m.GetRecipeByIDFunc != nil {
		return m.GetRecipeByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("GetRecipeByID not configured")
}

func (m *MockRecipeRepo) ListRecipesWithIngredients(ctx context.Context) ([]models.Recipe, error) {
	if m.ListRecipesWithIngredientsFunc != nil {
		return m.ListRecipesWithIngredientsFunc(ctx)
	}
	return nil, fmt.Errorf("ListRecipesWithIngredients not configured")
}
