// Package storage persists the emulator's databases, collections and documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a database, collection or document does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrExists is returned when inserting an id that is already taken.
	ErrExists = errors.New("storage: already exists")
)

// Resource is the system metadata of a database or collection.
type Resource struct {
	ID   string
	RID  string
	Self string
	ETag string
}

// Document is one stored document body.
type Document struct {
	ID   string
	Body []byte
}

// Storage is a backend of the emulator. Implementations must be safe for
// concurrent use. Document order is insertion order.
type Storage interface {
	Databases(ctx context.Context) ([]Resource, error)
	InsertDatabase(ctx context.Context, db Resource) error

	Collections(ctx context.Context, dbID string) ([]Resource, error)
	InsertCollection(ctx context.Context, dbID string, coll Resource) error

	Documents(ctx context.Context, dbID, collID string) ([]Document, error)
	GetDocument(ctx context.Context, dbID, collID, id string) ([]byte, error)
	InsertDocument(ctx context.Context, dbID, collID string, doc Document) error
	UpdateDocument(ctx context.Context, dbID, collID string, doc Document) error
	DeleteDocument(ctx context.Context, dbID, collID, id string) error

	Close() error
}

// Open opens a backend by name. "memory" (or "") ignores dsn; "sqlite",
// "postgres" and "mysql" open dsn with the matching database/sql driver.
func Open(ctx context.Context, backend, dsn string) (Storage, error) {
	switch strings.ToLower(backend) {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
		return OpenSQL(ctx, backend, dsn)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
