// Package resource provisions databases and collections on demand and remembers
// them for the lifetime of a Cache.
package resource

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
)

// FailurePolicy decides what happens to a lookup that failed.
type FailurePolicy int

const (
	// CacheFailures keeps a failed lookup; every later call for the same id
	// returns the same error without contacting the store.
	CacheFailures FailurePolicy = iota
	// RetryFailures drops a failed lookup so the next call tries again.
	RetryFailures
)

func (p FailurePolicy) String() string {
	switch p {
	case CacheFailures:
		return "cache"
	case RetryFailures:
		return "retry"
	default:
		return "unknown"
	}
}

// Option configures a Cache.
type Option func(*Cache)

// WithFailurePolicy sets the failure policy. The default is CacheFailures.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Cache) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Stats counts round trips to the store and how callers were served.
type Stats struct {
	DatabaseLists     int64
	DatabaseCreates   int64
	CollectionLists   int64
	CollectionCreates int64
	// Hits counts calls answered from a settled entry.
	Hits int64
	// Shared counts calls served by a lookup that had more than one waiter.
	Shared int64
}

// RoundTrips is the total number of store calls.
func (s Stats) RoundTrips() int64 {
	return s.DatabaseLists + s.DatabaseCreates + s.CollectionLists + s.CollectionCreates
}

type dbEntry struct {
	db  *client.Database
	err error
}

type collEntry struct {
	coll *client.Collection
	err  error
}

// Cache resolves database and collection ids to remote descriptors, creating
// them when absent. Each id costs at most one lookup for the lifetime of the
// cache; concurrent callers for the same id share one lookup.
type Cache struct {
	client client.DocumentClient
	policy FailurePolicy
	logger *slog.Logger

	flight singleflight.Group

	mu          sync.Mutex
	databases   map[string]dbEntry
	collections map[string]collEntry

	dbLists, dbCreates, collLists, collCreates atomic.Int64
	hits, shared                               atomic.Int64
}

// New creates a cache in front of c.
func New(c client.DocumentClient, opts ...Option) *Cache {
	cache := &Cache{
		client:      c,
		policy:      CacheFailures,
		logger:      debug.Component("resource"),
		databases:   make(map[string]dbEntry),
		collections: make(map[string]collEntry),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// Policy returns the failure policy.
func (c *Cache) Policy() FailurePolicy {
	return c.policy
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		DatabaseLists:     c.dbLists.Load(),
		DatabaseCreates:   c.dbCreates.Load(),
		CollectionLists:   c.collLists.Load(),
		CollectionCreates: c.collCreates.Load(),
		Hits:              c.hits.Load(),
		Shared:            c.shared.Load(),
	}
}

// CollectionKey is the cache key of a collection.
func CollectionKey(dbID, collID string) string {
	return dbID + "/" + collID
}

// EnsureDatabase returns the database with the given id, creating it if the
// store does not list it.
func (c *Cache) EnsureDatabase(ctx context.Context, id string) (*client.Database, error) {
	if e, ok := c.settledDatabase(id); ok {
		c.hits.Add(1)
		return e.db, e.err
	}

	v, err := c.do(ctx, "db:"+id, func(ctx context.Context) (interface{}, error) {
		if e, ok := c.settledDatabase(id); ok {
			return e.db, e.err
		}
		db, err := c.lookupDatabase(ctx, id)
		c.settleDatabase(id, db, err)
		return db, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*client.Database), nil
}

// EnsureCollection returns the collection collID of database dbID, ensuring the
// database first.
func (c *Cache) EnsureCollection(ctx context.Context, dbID, collID string) (*client.Collection, error) {
	key := CollectionKey(dbID, collID)
	if e, ok := c.settledCollection(key); ok {
		c.hits.Add(1)
		return e.coll, e.err
	}

	v, err := c.do(ctx, "coll:"+key, func(ctx context.Context) (interface{}, error) {
		if e, ok := c.settledCollection(key); ok {
			return e.coll, e.err
		}
		db, err := c.EnsureDatabase(ctx, dbID)
		if err != nil {
			// the database entry already carries the failure; the collection
			// stays unsettled so a retried database lookup can proceed
			return nil, err
		}
		coll, err := c.lookupCollection(ctx, db, collID)
		c.settleCollection(key, coll, err)
		return coll, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*client.Collection), nil
}

// do runs fn once per key among concurrent callers. The lookup is detached from
// the first caller's cancellation; each caller stops waiting when its own
// context is done.
func (c *Cache) do(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) settledDatabase(id string) (dbEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.databases[id]
	return e, ok
}

func (c *Cache) settleDatabase(id string, db *client.Database, err error) {
	if err != nil && c.policy == RetryFailures {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.databases[id] = dbEntry{db: db, err: err}
}

func (c *Cache) settledCollection(key string) (collEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.collections[key]
	return e, ok
}

func (c *Cache) settleCollection(key string, coll *client.Collection, err error) {
	if err != nil && c.policy == RetryFailures {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections[key] = collEntry{coll: coll, err: err}
}

func (c *Cache) lookupDatabase(ctx context.Context, id string) (*client.Database, error) {
	c.dbLists.Add(1)
	dbs, err := c.client.ListDatabases(ctx)
	if err != nil {
		c.logger.Debug("list databases failed", "db", id, "error", err)
		return nil, err
	}
	for i := range dbs {
		if dbs[i].ID == id {
			c.logger.Debug("database found", "db", id)
			db := dbs[i]
			return &db, nil
		}
	}

	c.dbCreates.Add(1)
	db, err := c.client.CreateDatabase(ctx, id)
	if runtime.IsStatus(err, runtime.StatusConflict) {
		// created by someone else since the list
		c.dbLists.Add(1)
		if dbs, lerr := c.client.ListDatabases(ctx); lerr == nil {
			for i := range dbs {
				if dbs[i].ID == id {
					db := dbs[i]
					return &db, nil
				}
			}
		}
	}
	if err != nil {
		c.logger.Debug("create database failed", "db", id, "error", err)
		return nil, err
	}
	c.logger.Debug("database created", "db", id)
	return db, nil
}

func (c *Cache) lookupCollection(ctx context.Context, db *client.Database, id string) (*client.Collection, error) {
	c.collLists.Add(1)
	colls, err := c.client.ListCollections(ctx, db.Link())
	if err != nil {
		c.logger.Debug("list collections failed", "db", db.ID, "collection", id, "error", err)
		return nil, err
	}
	for i := range colls {
		if colls[i].ID == id {
			c.logger.Debug("collection found", "db", db.ID, "collection", id)
			coll := colls[i]
			if coll.Self == "" {
				coll.Self = client.CollectionLinkFrom(db.Link(), id)
			}
			return &coll, nil
		}
	}

	c.collCreates.Add(1)
	coll, err := c.client.CreateCollection(ctx, db.Link(), id)
	if runtime.IsStatus(err, runtime.StatusConflict) {
		c.collLists.Add(1)
		if colls, lerr := c.client.ListCollections(ctx, db.Link()); lerr == nil {
			for i := range colls {
				if colls[i].ID == id {
					found := colls[i]
					if found.Self == "" {
						found.Self = client.CollectionLinkFrom(db.Link(), id)
					}
					return &found, nil
				}
			}
		}
	}
	if err != nil {
		c.logger.Debug("create collection failed", "db", db.ID, "collection", id, "error", err)
		return nil, err
	}
	if coll.Self == "" {
		coll.Self = client.CollectionLinkFrom(db.Link(), id)
	}
	c.logger.Debug("collection created", "db", db.ID, "collection", id)
	return coll, nil
}
