package parser

import (
	"context"
	"runtime/debug"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
)

// panicHandler recovers panics raised by a grammar binding or regex
// engine mid-parse and turns them into a *cgerrors.ParseError instead of
// crashing the whole analysis run — a single malformed file must never
// take down analyze_project.
type panicHandler struct {
	logger logging.Logger
}

func newPanicHandler(logger logging.Logger) *panicHandler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &panicHandler{logger: logger}
}

func (h *panicHandler) withRecover(ctx context.Context, op, path, language string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := &cgerrors.ParseError{
				Op:       op,
				Path:     path,
				Language: language,
				Err:      nil,
				Fatal:    true,
			}
			h.logger.Error("panic recovered during parse", perr,
				logging.Field{Key: "operation", Value: op},
				logging.Field{Key: "panic_value", Value: r},
				logging.Field{Key: "stack", Value: string(debug.Stack())})
			err = perr
		}
	}()
	_ = ctx
	return fn()
}
