package tools

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/windoze95/reme-voice/internal/ai"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

// Handler runs one function locally.
type Handler func(ctx context.Context, args Args) Result

// Executor runs a tool call requested by the model. Failures are reported
// in the Result, never returned.
type Executor interface {
	Execute(ctx context.Context, call ai.ToolCall) Result
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, call ai.ToolCall) Result

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, call ai.ToolCall) Result {
	return f(ctx, call)
}

// Catalog declares the functions offered to the model and runs the ones
// that have a local handler. Declared functions without a handler go to
// the fallback executor.
type Catalog struct {
	defs     []ai.ToolDefinition
	declared map[string]bool
	handlers map[string]Handler
	fallback Executor
}

// NewCatalog declares every function and registers the calculators.
func NewCatalog() *Catalog {
	c := &Catalog{
		defs:     definitions(),
		declared: make(map[string]bool),
		handlers: make(map[string]Handler),
	}
	for _, d := range c.defs {
		c.declared[d.Name] = true
	}
	c.Register(FnCalculateNutrition, CalculateNutrition)
	c.Register(FnScalePortions, ScalePortions)
	return c
}

// Register sets the local handler of a declared function.
func (c *Catalog) Register(name string, h Handler) {
	if !c.declared[name] {
		panic(fmt.Sprintf("tools: register of undeclared function %q", name))
	}
	c.handlers[name] = h
}

// WithFallback returns a copy of the catalog that sends functions without
// a local handler to e. The receiver is not modified, so one base catalog
// can serve many sessions.
func (c *Catalog) WithFallback(e Executor) *Catalog {
	cp := &Catalog{
		defs:     c.defs,
		declared: c.declared,
		handlers: make(map[string]Handler, len(c.handlers)),
		fallback: e,
	}
	for k, v := range c.handlers {
		cp.handlers[k] = v
	}
	return cp
}

// Definitions returns the declared functions in a stable order.
func (c *Catalog) Definitions() []ai.ToolDefinition {
	return append([]ai.ToolDefinition(nil), c.defs...)
}

// Has reports whether name is declared.
func (c *Catalog) Has(name string) bool {
	return c.declared[name]
}

// Execute runs call. Unknown functions and handler panics become failed
// results.
func (c *Catalog) Execute(ctx context.Context, call ai.ToolCall) (res Result) {
	if !c.declared[call.Name] {
		return Fail("función desconocida: %s", call.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("tool handler panicked",
				zap.String("function", call.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = Fail("error interno al ejecutar %s", call.Name)
		}
	}()

	if h, ok := c.handlers[call.Name]; ok {
		return h(ctx, ParseArgs(call.Arguments))
	}
	if c.fallback != nil {
		return c.fallback.Execute(ctx, call)
	}
	return Fail("la función %s no está disponible", call.Name)
}
