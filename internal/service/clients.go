package service

import (
	"context"
	"sync"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/tools"
)

// clientRegistry tracks the executors of live voice sessions by
// conversation, so REST commands can run data functions in a browser.
type clientRegistry struct {
	mu     sync.Mutex
	byConv map[string][]*attachedClient
}

type attachedClient struct {
	executor tools.Executor
}

func newClientRegistry() *clientRegistry {
	return &clientRegistry{byConv: make(map[string][]*attachedClient)}
}

func (r *clientRegistry) attach(conversationID string, e tools.Executor) func() {
	ac := &attachedClient{executor: e}
	r.mu.Lock()
	r.byConv[conversationID] = append(r.byConv[conversationID], ac)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.detach(conversationID, ac) })
	}
}

func (r *clientRegistry) detach(conversationID string, ac *attachedClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byConv[conversationID]
	for i, c := range list {
		if c == ac {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.byConv, conversationID)
		return
	}
	r.byConv[conversationID] = list
}

// latest returns the most recently attached executor of conversationID.
func (r *clientRegistry) latest(conversationID string) tools.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byConv[conversationID]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1].executor
}

type conversationKey struct{}

func withConversation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

func conversationFrom(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}

// AttachClient makes e the executor REST commands of conversationID use
// for data functions. The returned func detaches it and is safe to call
// more than once.
func (s *VoiceService) AttachClient(conversationID string, e tools.Executor) func() {
	return s.clients.attach(conversationID, e)
}

// restExecutor runs data functions of REST commands on a session of the
// command's conversation.
func (s *VoiceService) restExecutor() tools.Executor {
	return tools.ExecutorFunc(func(ctx context.Context, call ai.ToolCall) tools.Result {
		e := s.clients.latest(conversationFrom(ctx))
		if e == nil {
			return tools.Failed(tools.ErrNoClient)
		}
		return e.Execute(ctx, call)
	})
}
