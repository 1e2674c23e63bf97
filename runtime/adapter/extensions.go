package adapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// Operation names as reported to extensions.
const (
	OpFind       = "find"
	OpFindAll    = "findAll"
	OpCreate     = "create"
	OpCreateMany = "createMany"
	OpUpdate     = "update"
	OpUpdateAll  = "updateAll"
	OpUpdateMany = "updateMany"
	OpDestroy    = "destroy"
	OpDestroyAll = "destroyAll"
	OpCount      = "count"
	OpSum        = "sum"
)

// IsMutation reports whether op writes documents.
func IsMutation(op string) bool {
	switch op {
	case OpCreate, OpCreateMany, OpUpdate, OpUpdateAll, OpUpdateMany, OpDestroy, OpDestroyAll:
		return true
	}
	return false
}

// ExtensionContext provides context for extension hooks
type ExtensionContext struct {
	Context    context.Context
	Collection string      // logical collection name
	Database   string      // database id the operation targets
	Operation  string      // one of the Op constants
	Args       interface{} // operation arguments
	Result     interface{} // operation result (set for After hooks)
	Metadata   types.Metadata
	Error      error // operation error (set for After hooks)
	Duration   time.Duration
	StartTime  time.Time
	EndTime    time.Time
}

// Hook is called before or after an operation. Returning an error from a
// Before hook aborts the operation.
type Hook func(ctx *ExtensionContext, next func() error) error

// Extension defines hooks around adapter operations
type Extension struct {
	Name string

	// Query hooks run around find, findAll, count and sum.
	BeforeQuery Hook
	AfterQuery  Hook

	// Mutation hooks run around every other operation.
	BeforeMutation Hook
	AfterMutation  Hook
}

// ExtensionChain manages a chain of extensions
type ExtensionChain struct {
	extensions []Extension
}

// NewExtensionChain creates a new extension chain
func NewExtensionChain() *ExtensionChain {
	return &ExtensionChain{
		extensions: []Extension{},
	}
}

// Add adds an extension to the chain
func (ec *ExtensionChain) Add(ext Extension) {
	ec.extensions = append(ec.extensions, ext)
}

// Len returns the number of extensions
func (ec *ExtensionChain) Len() int {
	return len(ec.extensions)
}

// Execute runs exec between the before hooks (in order) and the after hooks
// (in reverse order). After hooks may replace Result.
func (ec *ExtensionChain) Execute(extCtx *ExtensionContext, exec func() (interface{}, types.Metadata, error)) (interface{}, types.Metadata, error) {
	mutation := IsMutation(extCtx.Operation)
	extCtx.StartTime = time.Now()

	for _, ext := range ec.extensions {
		before := ext.BeforeQuery
		if mutation {
			before = ext.BeforeMutation
		}
		if before != nil {
			if err := before(extCtx, func() error { return nil }); err != nil {
				return nil, types.Metadata{}, err
			}
		}
	}

	result, meta, err := exec()
	extCtx.Result = result
	extCtx.Metadata = meta
	extCtx.Error = err
	extCtx.EndTime = time.Now()
	extCtx.Duration = extCtx.EndTime.Sub(extCtx.StartTime)

	for i := len(ec.extensions) - 1; i >= 0; i-- {
		ext := ec.extensions[i]
		after := ext.AfterQuery
		if mutation {
			after = ext.AfterMutation
		}
		if after != nil {
			// a hook passing the operation error through does not stop the chain
			if herr := after(extCtx, func() error { return err }); herr != nil && herr != err {
				return extCtx.Result, meta, herr
			}
		}
	}

	return extCtx.Result, meta, err
}

// LoggingExtension creates an extension that logs operations. A nil logger
// uses the debug logger.
func LoggingExtension(logger *slog.Logger) Extension {
	if logger == nil {
		logger = debug.Component("adapter")
	}
	before := func(ctx *ExtensionContext, next func() error) error {
		logger.DebugContext(ctx.Context, "operation started",
			"collection", ctx.Collection, "op", ctx.Operation, "args", ctx.Args)
		return next()
	}
	after := func(ctx *ExtensionContext, next func() error) error {
		if ctx.Error != nil {
			logger.DebugContext(ctx.Context, "operation failed",
				"collection", ctx.Collection, "op", ctx.Operation, "error", ctx.Error, "duration", ctx.Duration)
		} else {
			logger.DebugContext(ctx.Context, "operation completed",
				"collection", ctx.Collection, "op", ctx.Operation, "metadata", ctx.Metadata, "duration", ctx.Duration)
		}
		return next()
	}
	return Extension{
		Name:           "logging",
		BeforeQuery:    before,
		AfterQuery:     after,
		BeforeMutation: before,
		AfterMutation:  after,
	}
}

// TimingExtension creates an extension that measures operation timing
func TimingExtension(onTiming func(collection string, operation string, duration time.Duration)) Extension {
	after := func(ctx *ExtensionContext, next func() error) error {
		if onTiming != nil {
			onTiming(ctx.Collection, ctx.Operation, ctx.Duration)
		}
		return next()
	}
	return Extension{
		Name:          "timing",
		AfterQuery:    after,
		AfterMutation: after,
	}
}

// ErrorHandlingExtension creates an extension that observes failed operations
func ErrorHandlingExtension(onError func(collection string, operation string, err error)) Extension {
	after := func(ctx *ExtensionContext, next func() error) error {
		if ctx.Error != nil && onError != nil {
			onError(ctx.Collection, ctx.Operation, ctx.Error)
		}
		return next()
	}
	return Extension{
		Name:          "error-handling",
		AfterQuery:    after,
		AfterMutation: after,
	}
}
