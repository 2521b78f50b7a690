package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/windoze95/reme-voice/internal/ai"
)

func TestClientExecutor_RoundTrip(t *testing.T) {
	var exec *ClientExecutor
	exec = NewClientExecutor(RequesterFunc(func(ctx context.Context, req FunctionRequest) error {
		if req.FunctionName != FnGetInventory {
			t.Errorf("functionName = %q, want getInventory", req.FunctionName)
		}
		if req.Args["location"] != "Alacena" {
			t.Errorf("args = %v, want location Alacena", req.Args)
		}
		go exec.Resolve(req.RequestID, json.RawMessage(`{"success":true,"data":{"items":[],"totalItems":0}}`))
		return nil
	}), time.Second)

	res := exec.Execute(context.Background(), ai.ToolCall{Name: FnGetInventory, Arguments: `{"location":"Alacena"}`})
	if !res.Success || res.Err() != nil {
		t.Fatalf("result = %+v, err %v", res, res.Err())
	}
	if !res.IsEmpty() {
		t.Error("empty inventory should be reported as empty")
	}
	if exec.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", exec.Pending())
	}
}

func TestClientExecutor_Timeout(t *testing.T) {
	exec := NewClientExecutor(RequesterFunc(func(ctx context.Context, req FunctionRequest) error {
		return nil
	}), 20*time.Millisecond)

	res := exec.Execute(context.Background(), ai.ToolCall{Name: FnGetAppliances, Arguments: "{}"})
	if res.Success {
		t.Fatal("timed out call should fail")
	}
	if !errors.Is(res.Err(), ErrFunctionTimeout) {
		t.Errorf("Err() = %v, want ErrFunctionTimeout", res.Err())
	}
	if exec.Pending() != 0 {
		t.Errorf("Pending() = %d after timeout, want 0", exec.Pending())
	}
}

func TestClientExecutor_NoClient(t *testing.T) {
	exec := NewClientExecutor(RequesterFunc(func(ctx context.Context, req FunctionRequest) error {
		return errors.New("socket closed")
	}), time.Second)

	res := exec.Execute(context.Background(), ai.ToolCall{Name: FnGetAppliances, Arguments: "{}"})
	if !errors.Is(res.Err(), ErrNoClient) {
		t.Errorf("Err() = %v, want ErrNoClient", res.Err())
	}

	if _, err := NewClientExecutor(nil, 0).Call(context.Background(), ai.ToolCall{Name: FnGetAppliances}); !errors.Is(err, ErrNoClient) {
		t.Errorf("nil requester err = %v, want ErrNoClient", err)
	}
}

func TestClientExecutor_ResolveUnknown(t *testing.T) {
	exec := NewClientExecutor(nil, time.Second)
	if exec.Resolve("nope", json.RawMessage(`{}`)) {
		t.Error("Resolve of an unknown request should report false")
	}
}

func TestClientExecutor_ContextCanceled(t *testing.T) {
	exec := NewClientExecutor(RequesterFunc(func(ctx context.Context, req FunctionRequest) error {
		return nil
	}), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Call(ctx, ai.ToolCall{Name: FnGetAppliances})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
