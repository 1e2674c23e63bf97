// Package adapter implements CRUD operations for logical collections on top of
// a document client.
//
// Every operation resolves the target collection through a resource cache,
// compiles its selection query if it has one, calls the client and reports
// what it touched as types.Metadata.
package adapter

import (
	"log/slog"

	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/query/compiler"
	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/resource"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// Config holds adapter-wide settings.
type Config struct {
	// Database is the default database id.
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	// Operators extend or override the default operators.
	Operators sqlgen.Operators `json:"-" yaml:"-" mapstructure:"-"`
	// RequestOptions are sent with every document call.
	RequestOptions *client.RequestOptions `json:"requestOptions,omitempty" yaml:"requestOptions,omitempty" mapstructure:"request_options"`
	// FeedOptions are sent with every query.
	FeedOptions *client.FeedOptions `json:"feedOptions,omitempty" yaml:"feedOptions,omitempty" mapstructure:"feed_options"`
	// IDField names the identifier field. Defaults to "id".
	IDField string `json:"idField,omitempty" yaml:"idField,omitempty" mapstructure:"id_field"`
	// ReservedKeys are query keys that are never folded into where.
	ReservedKeys []string `json:"reservedKeys,omitempty" yaml:"reservedKeys,omitempty" mapstructure:"reserved_keys"`
	// Concurrency caps the calls a batch operation has in flight. Zero means no cap.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" mapstructure:"concurrency"`
}

// Adapter runs CRUD operations against a document client.
type Adapter struct {
	client     client.DocumentClient
	cfg        Config
	compiler   *compiler.Compiler
	resources  *resource.Cache
	extensions *ExtensionChain
	logger     *slog.Logger

	middlewares  []client.Middleware
	resourceOpts []resource.Option
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the logger used by the adapter and its resource cache.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithExtension adds an extension to the adapter's chain.
func WithExtension(ext Extension) AdapterOption {
	return func(a *Adapter) {
		a.extensions.Add(ext)
	}
}

// WithResourceOptions configures the resource cache.
func WithResourceOptions(opts ...resource.Option) AdapterOption {
	return func(a *Adapter) {
		a.resourceOpts = append(a.resourceOpts, opts...)
	}
}

// WithMiddleware wraps the client with middlewares.
func WithMiddleware(mws ...client.Middleware) AdapterOption {
	return func(a *Adapter) {
		a.middlewares = append(a.middlewares, mws...)
	}
}

// New creates an adapter.
func New(c client.DocumentClient, cfg Config, opts ...AdapterOption) *Adapter {
	if cfg.IDField == "" {
		cfg.IDField = types.DefaultIDField
	}

	a := &Adapter{
		cfg:        cfg,
		compiler:   compiler.NewCompiler(sqlgen.NewRegistry(cfg.Operators)),
		extensions: NewExtensionChain(),
		logger:     debug.Component("adapter"),
	}
	a.extensions.Add(LoggingExtension(a.logger))
	for _, opt := range opts {
		opt(a)
	}

	a.client = client.Chain(c, a.middlewares...)
	resourceOpts := append([]resource.Option{resource.WithLogger(a.logger.With("component", "resource"))}, a.resourceOpts...)
	a.resources = resource.New(a.client, resourceOpts...)
	return a
}

// Config returns the adapter configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// Resources returns the adapter's resource cache.
func (a *Adapter) Resources() *resource.Cache {
	return a.resources
}

// Extensions returns the adapter's extension chain.
func (a *Adapter) Extensions() *ExtensionChain {
	return a.extensions
}
