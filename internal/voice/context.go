package voice

import (
	"sync"
)

// DefaultConversationID is used when the UI has not named a conversation.
const DefaultConversationID = "default"

// RecipeGuide is the step-by-step session state pushed by the recipe guide.
type RecipeGuide struct {
	RecipeID        string   `json:"recipeId"`
	RecipeName      string   `json:"recipeName"`
	StepIndex       int      `json:"currentStep"`
	TotalSteps      int      `json:"totalSteps"`
	Instruction     string   `json:"stepInstruction"`
	Ingredients     []string `json:"stepIngredients,omitempty"`
	Tip             string   `json:"stepTip,omitempty"`
	Warning         string   `json:"stepWarning,omitempty"`
	DurationSeconds int      `json:"stepDuration,omitempty"`
}

func (g RecipeGuide) clone() RecipeGuide {
	g.Ingredients = append([]string(nil), g.Ingredients...)
	return g
}

// VoiceContext is the latest snapshot of where the user is in the app.
type VoiceContext struct {
	CurrentPage    string      `json:"currentPage"`
	InRecipeGuide  bool        `json:"inRecipeGuide"`
	Guide          RecipeGuide `json:"recipeGuide"`
	InventoryHints []string    `json:"inventoryHints,omitempty"`
	ConversationID string      `json:"conversationId"`
}

// ConversationKey returns the conversation id, or the default one.
func (c VoiceContext) ConversationKey() string {
	if c.ConversationID == "" {
		return DefaultConversationID
	}
	return c.ConversationID
}

// ContextPatch is a partial update. Nil fields keep their previous value.
type ContextPatch struct {
	CurrentPage    *string      `json:"currentPage,omitempty"`
	InRecipeGuide  *bool        `json:"inRecipeGuide,omitempty"`
	Guide          *RecipeGuide `json:"recipeGuide,omitempty"`
	InventoryHints *[]string    `json:"inventoryHints,omitempty"`
	ConversationID *string      `json:"conversationId,omitempty"`
}

// ContextStore holds the current VoiceContext. The hosting UI writes it and
// the pipeline reads it; last write wins.
type ContextStore struct {
	mu  sync.RWMutex
	cur VoiceContext
}

// NewContextStore returns a store holding the zero context.
func NewContextStore() *ContextStore {
	return &ContextStore{}
}

// Update applies p. Recipe-guide fields are replaced as a unit and exist
// only while InRecipeGuide is true; leaving the guide clears them.
func (s *ContextStore) Update(p ContextPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CurrentPage != nil {
		s.cur.CurrentPage = *p.CurrentPage
	}
	if p.ConversationID != nil {
		s.cur.ConversationID = *p.ConversationID
	}
	if p.InventoryHints != nil {
		s.cur.InventoryHints = append([]string(nil), (*p.InventoryHints)...)
	}
	if p.InRecipeGuide != nil {
		s.cur.InRecipeGuide = *p.InRecipeGuide
	}
	if !s.cur.InRecipeGuide {
		s.cur.Guide = RecipeGuide{}
		return
	}
	if p.Guide != nil {
		s.cur.Guide = p.Guide.clone()
	}
}

// Current returns a copy of the snapshot.
func (s *ContextStore) Current() VoiceContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.cur
	c.Guide = c.Guide.clone()
	c.InventoryHints = append([]string(nil), c.InventoryHints...)
	return c
}
