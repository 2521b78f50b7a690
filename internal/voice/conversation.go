package voice

import (
	"sync"

	"github.com/windoze95/reme-voice/internal/ai"
)

// DefaultMaxHistory bounds each conversation.
const DefaultMaxHistory = 20

// ConversationStore keeps the bounded message history of every
// conversation for the life of the process. Conversations are created on
// first use.
type ConversationStore struct {
	mu    sync.Mutex
	max   int
	convs map[string][]ai.Message
}

// NewConversationStore creates a store bounded to max messages per
// conversation.
func NewConversationStore(max int) *ConversationStore {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &ConversationStore{max: max, convs: make(map[string][]ai.Message)}
}

// Append adds msgs to conversation id and trims the oldest messages past
// the bound. After a trim the history always starts with a user message:
// assistant turns and tool results left at the head are dropped too.
func (s *ConversationStore) Append(id string, msgs ...ai.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := append(s.convs[id], msgs...)
	if over := len(conv) - s.max; over > 0 {
		conv = conv[over:]
	}
	for len(conv) > 0 && conv[0].Role != ai.RoleUser {
		conv = conv[1:]
	}
	s.convs[id] = append([]ai.Message(nil), conv...)
}

// Messages returns a copy of conversation id.
func (s *ConversationStore) Messages(id string) []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.Message(nil), s.convs[id]...)
}

// Len returns the number of stored messages of conversation id.
func (s *ConversationStore) Len(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs[id])
}

// Reset forgets conversation id.
func (s *ConversationStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
}

// Count returns how many conversations are held.
func (s *ConversationStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}
