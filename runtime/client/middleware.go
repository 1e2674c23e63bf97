package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/prisma-docdb/internal/debug"
)

// CallEvent describes one call into the document client
type CallEvent struct {
	// Op is the DocumentClient method name, e.g. "QueryDocuments".
	Op string
	// Link is the database, collection or document link the call targets.
	Link     string
	Query    *QuerySpec
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware is a function that intercepts client calls
type Middleware func(ctx context.Context, event *CallEvent, next func() error) error

// Chain wraps c so every call runs through mws, first to last.
func Chain(c DocumentClient, mws ...Middleware) DocumentClient {
	if len(mws) == 0 {
		return c
	}
	return &chained{next: c, middlewares: mws}
}

type chained struct {
	next        DocumentClient
	middlewares []Middleware
}

func (c *chained) run(ctx context.Context, event *CallEvent, exec func() error) error {
	event.Start = time.Now()

	var next func() error
	index := 0

	next = func() error {
		if index >= len(c.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}

		middleware := c.middlewares[index]
		index++
		return middleware(ctx, event, next)
	}

	return next()
}

func (c *chained) ListDatabases(ctx context.Context) (out []Database, err error) {
	err = c.run(ctx, &CallEvent{Op: "ListDatabases"}, func() error {
		out, err = c.next.ListDatabases(ctx)
		return err
	})
	return out, err
}

func (c *chained) CreateDatabase(ctx context.Context, id string) (out *Database, err error) {
	err = c.run(ctx, &CallEvent{Op: "CreateDatabase", Link: DatabaseLink(id)}, func() error {
		out, err = c.next.CreateDatabase(ctx, id)
		return err
	})
	return out, err
}

func (c *chained) ListCollections(ctx context.Context, dbLink string) (out []Collection, err error) {
	err = c.run(ctx, &CallEvent{Op: "ListCollections", Link: dbLink}, func() error {
		out, err = c.next.ListCollections(ctx, dbLink)
		return err
	})
	return out, err
}

func (c *chained) CreateCollection(ctx context.Context, dbLink string, id string) (out *Collection, err error) {
	err = c.run(ctx, &CallEvent{Op: "CreateCollection", Link: CollectionLinkFrom(dbLink, id)}, func() error {
		out, err = c.next.CreateCollection(ctx, dbLink, id)
		return err
	})
	return out, err
}

func (c *chained) QueryDocuments(ctx context.Context, collLink string, spec QuerySpec, opts *FeedOptions) (out []map[string]interface{}, err error) {
	err = c.run(ctx, &CallEvent{Op: "QueryDocuments", Link: collLink, Query: &spec}, func() error {
		out, err = c.next.QueryDocuments(ctx, collLink, spec, opts)
		return err
	})
	return out, err
}

func (c *chained) ReadDocument(ctx context.Context, docLink string, opts *RequestOptions) (out map[string]interface{}, err error) {
	err = c.run(ctx, &CallEvent{Op: "ReadDocument", Link: docLink}, func() error {
		out, err = c.next.ReadDocument(ctx, docLink, opts)
		return err
	})
	return out, err
}

func (c *chained) CreateDocument(ctx context.Context, collLink string, doc map[string]interface{}, opts *RequestOptions) (out map[string]interface{}, err error) {
	err = c.run(ctx, &CallEvent{Op: "CreateDocument", Link: collLink}, func() error {
		out, err = c.next.CreateDocument(ctx, collLink, doc, opts)
		return err
	})
	return out, err
}

func (c *chained) ReplaceDocument(ctx context.Context, docLink string, doc map[string]interface{}, opts *RequestOptions) (out map[string]interface{}, err error) {
	err = c.run(ctx, &CallEvent{Op: "ReplaceDocument", Link: docLink}, func() error {
		out, err = c.next.ReplaceDocument(ctx, docLink, doc, opts)
		return err
	})
	return out, err
}

func (c *chained) DeleteDocument(ctx context.Context, docLink string, opts *RequestOptions) error {
	return c.run(ctx, &CallEvent{Op: "DeleteDocument", Link: docLink}, func() error {
		return c.next.DeleteDocument(ctx, docLink, opts)
	})
}

// LoggingMiddleware creates a middleware that logs calls. A nil logger uses the
// debug logger.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = debug.Component("client")
	}
	return func(ctx context.Context, event *CallEvent, next func() error) error {
		attrs := []any{"op", event.Op, "link", event.Link}
		if event.Query != nil {
			attrs = append(attrs, "query", event.Query.Query, "params", len(event.Query.Parameters))
		}
		logger.DebugContext(ctx, "client call", attrs...)
		err := next()
		if err != nil {
			logger.DebugContext(ctx, "client call failed", "op", event.Op, "link", event.Link, "error", err)
		} else {
			logger.DebugContext(ctx, "client call completed", "op", event.Op, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware creates a middleware that measures call time
func TimingMiddleware(onTiming func(op string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *CallEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Op, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware creates a middleware that observes failed calls
func ErrorMiddleware(onError func(op string, link string, err error)) Middleware {
	return func(ctx context.Context, event *CallEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Op, event.Link, err)
		}
		return err
	}
}
