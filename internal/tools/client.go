package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// DefaultFunctionTimeout bounds a browser round-trip.
const DefaultFunctionTimeout = 30 * time.Second

var (
	// ErrFunctionTimeout is returned when the client did not answer in time.
	ErrFunctionTimeout = errors.New("function request timed out")
	// ErrNoClient is returned when no client is attached to run functions.
	ErrNoClient = errors.New("no client connected to run functions")
)

// FunctionRequest is sent to the browser to run a data function.
type FunctionRequest struct {
	RequestID    string                 `json:"requestId"`
	FunctionName string                 `json:"functionName"`
	Args         map[string]interface{} `json:"args"`
}

// Requester delivers a FunctionRequest to the client.
type Requester interface {
	RequestFunction(ctx context.Context, req FunctionRequest) error
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, req FunctionRequest) error

// RequestFunction calls f.
func (f RequesterFunc) RequestFunction(ctx context.Context, req FunctionRequest) error {
	return f(ctx, req)
}

// ClientExecutor runs functions in the browser: it sends a request and
// waits for the matching response.
type ClientExecutor struct {
	requester Requester
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

// NewClientExecutor creates an executor sending through r.
func NewClientExecutor(r Requester, timeout time.Duration) *ClientExecutor {
	if timeout <= 0 {
		timeout = DefaultFunctionTimeout
	}
	return &ClientExecutor{
		requester: r,
		timeout:   timeout,
		pending:   make(map[string]chan json.RawMessage),
	}
}

// Execute sends call to the client. A missing client or a timeout are
// reported through Result.Err.
func (e *ClientExecutor) Execute(ctx context.Context, call ai.ToolCall) Result {
	res, err := e.Call(ctx, call)
	if err != nil {
		return Failed(err)
	}
	return res
}

// Call sends call to the client and waits for its result.
func (e *ClientExecutor) Call(ctx context.Context, call ai.ToolCall) (Result, error) {
	if e.requester == nil {
		return Result{}, ErrNoClient
	}

	id := uuid.NewString()
	ch := make(chan json.RawMessage, 1)
	e.mu.Lock()
	e.pending[id] = ch
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
	}()

	req := FunctionRequest{
		RequestID:    id,
		FunctionName: call.Name,
		Args:         ParseArgs(call.Arguments),
	}
	if err := e.requester.RequestFunction(ctx, req); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNoClient, err)
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case raw := <-ch:
		return ParseResult(raw), nil
	case <-timer.C:
		logger.Get().Warn("client function timed out",
			zap.String("function", call.Name),
			zap.String("request_id", id),
			zap.Duration("timeout", e.timeout),
		)
		return Result{}, fmt.Errorf("%s: %w", call.Name, ErrFunctionTimeout)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Resolve delivers the client's answer to requestID. It reports false
// when nothing is waiting for it.
func (e *ClientExecutor) Resolve(requestID string, raw json.RawMessage) bool {
	e.mu.Lock()
	ch, ok := e.pending[requestID]
	if ok {
		delete(e.pending, requestID)
	}
	e.mu.Unlock()
	if !ok {
		return false
	}
	ch <- raw
	return true
}

// Pending returns the number of requests waiting for an answer.
func (e *ClientExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
