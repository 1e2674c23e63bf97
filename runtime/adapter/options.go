package adapter

import (
	"github.com/satishbabariya/prisma-docdb/query/compiler"
	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// Option customises a single operation.
type Option func(*callOptions)

type callOptions struct {
	request   *client.RequestOptions
	feed      *client.FeedOptions
	operators sqlgen.Operators
	database  string
	reserved  []string
}

// WithRequestOptions sets request options for this call. Set fields override
// the adapter's.
func WithRequestOptions(o *client.RequestOptions) Option {
	return func(c *callOptions) {
		c.request = o
	}
}

// WithFeedOptions sets feed options for this call. Set fields override the
// adapter's.
func WithFeedOptions(o *client.FeedOptions) Option {
	return func(c *callOptions) {
		c.feed = o
	}
}

// WithOperators overrides operators for this call.
func WithOperators(ops sqlgen.Operators) Option {
	return func(c *callOptions) {
		c.operators = ops
	}
}

// WithDatabase targets another database for this call.
func WithDatabase(id string) Option {
	return func(c *callOptions) {
		c.database = id
	}
}

// WithReservedKeys adds query keys that must not be folded into where.
func WithReservedKeys(keys ...string) Option {
	return func(c *callOptions) {
		c.reserved = append(c.reserved, keys...)
	}
}

// call is the resolved context of one operation.
type call struct {
	ref      types.CollectionRef
	database string
	alias    string
	idField  string
	request  *client.RequestOptions
	feed     *client.FeedOptions
	compile  *compiler.Options
}

func (a *Adapter) resolve(ref types.CollectionRef, opts []Option) *call {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &call{
		ref:      ref,
		database: a.cfg.Database,
		alias:    ref.QueryAlias(),
		idField:  a.cfg.IDField,
		request:  mergeRequestOptions(a.cfg.RequestOptions, o.request),
		feed:     mergeFeedOptions(a.cfg.FeedOptions, o.feed),
	}
	if ref.Database != "" {
		c.database = ref.Database
	}
	if o.database != "" {
		c.database = o.database
	}
	if ref.IDField != "" {
		c.idField = ref.IDField
	}

	reserved := append(append([]string(nil), a.cfg.ReservedKeys...), o.reserved...)
	c.compile = &compiler.Options{
		Operators:    o.operators,
		ReservedKeys: reserved,
	}
	return c
}

// compileOptions returns the call's compiler options with a fixed projection.
func (c *call) compileOptions(fields ...string) *compiler.Options {
	opts := *c.compile
	opts.Fields = fields
	return &opts
}

func mergeRequestOptions(base, override *client.RequestOptions) *client.RequestOptions {
	if base == nil && override == nil {
		return nil
	}
	out := &client.RequestOptions{}
	for _, src := range []*client.RequestOptions{base, override} {
		if src == nil {
			continue
		}
		if src.PartitionKey != nil {
			out.PartitionKey = src.PartitionKey
		}
		if src.ConsistencyLevel != "" {
			out.ConsistencyLevel = src.ConsistencyLevel
		}
		if src.SessionToken != "" {
			out.SessionToken = src.SessionToken
		}
		if src.IfMatch != "" {
			out.IfMatch = src.IfMatch
		}
		for k, v := range src.Headers {
			if out.Headers == nil {
				out.Headers = make(map[string]string)
			}
			out.Headers[k] = v
		}
	}
	return out
}

func mergeFeedOptions(base, override *client.FeedOptions) *client.FeedOptions {
	if base == nil && override == nil {
		return nil
	}
	out := &client.FeedOptions{}
	for _, src := range []*client.FeedOptions{base, override} {
		if src == nil {
			continue
		}
		if src.MaxItemCount != 0 {
			out.MaxItemCount = src.MaxItemCount
		}
		if src.EnableCrossPartitionQuery {
			out.EnableCrossPartitionQuery = true
		}
		if src.PartitionKey != nil {
			out.PartitionKey = src.PartitionKey
		}
		if src.ContinuationToken != "" {
			out.ContinuationToken = src.ContinuationToken
		}
		if src.ConsistencyLevel != "" {
			out.ConsistencyLevel = src.ConsistencyLevel
		}
	}
	return out
}
