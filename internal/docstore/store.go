// Package docstore is an embedded document store that speaks the DocumentClient
// contract. It backs the CLI's local mode and the adapter tests.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/internal/docstore/docsql"
	"github.com/satishbabariya/prisma-docdb/internal/docstore/storage"
	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
)

// System properties the store maintains on every document.
const (
	PropID   = "id"
	PropRID  = "_rid"
	PropSelf = "_self"
	PropETag = "_etag"
	PropTS   = "_ts"
)

// Store implements client.DocumentClient on top of a storage backend.
type Store struct {
	backend storage.Storage
	logger  *slog.Logger
	now     func() time.Time
}

var _ client.DocumentClient = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for _ts.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store over backend. A nil backend means a fresh in-memory one.
func New(backend storage.Storage, opts ...Option) *Store {
	if backend == nil {
		backend = storage.NewMemory()
	}
	s := &Store{
		backend: backend,
		logger:  debug.Component("docstore"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the named storage backend and wraps it in a Store.
func Open(ctx context.Context, backend, dsn string, opts ...Option) (*Store, error) {
	b, err := storage.Open(ctx, backend, dsn)
	if err != nil {
		return nil, err
	}
	return New(b, opts...), nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func newRID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func newETag() string {
	return `"` + uuid.NewString() + `"`
}

// remoteError maps backend errors onto the status codes clients expect.
func remoteError(op, link string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return runtime.NewRemoteError(op, link, runtime.StatusNotFound, err)
	case errors.Is(err, storage.ErrExists):
		return runtime.NewRemoteError(op, link, runtime.StatusConflict, err)
	default:
		return runtime.NewRemoteError(op, link, 0, err)
	}
}

func badLink(op, link string) error {
	return runtime.NewRemoteError(op, link, 400, fmt.Errorf("malformed link"))
}

func (s *Store) ListDatabases(ctx context.Context) ([]client.Database, error) {
	res, err := s.backend.Databases(ctx)
	if err != nil {
		return nil, remoteError("list databases", "dbs", err)
	}
	out := make([]client.Database, 0, len(res))
	for _, r := range res {
		out = append(out, client.Database{ID: r.ID, RID: r.RID, Self: r.Self, ETag: r.ETag})
	}
	return out, nil
}

func (s *Store) CreateDatabase(ctx context.Context, id string) (*client.Database, error) {
	if id == "" {
		return nil, runtime.NewRemoteError("create database", "dbs", 400, fmt.Errorf("id is required"))
	}
	r := storage.Resource{ID: id, RID: newRID(), Self: client.DatabaseLink(id) + "/", ETag: newETag()}
	if err := s.backend.InsertDatabase(ctx, r); err != nil {
		return nil, remoteError("create database", client.DatabaseLink(id), err)
	}
	s.logger.Debug("created database", "id", id)
	return &client.Database{ID: r.ID, RID: r.RID, Self: r.Self, ETag: r.ETag}, nil
}

func (s *Store) ListCollections(ctx context.Context, dbLink string) ([]client.Collection, error) {
	dbID, collID, _, ok := client.ParseLink(dbLink)
	if !ok || dbID == "" || collID != "" {
		return nil, badLink("list collections", dbLink)
	}
	res, err := s.backend.Collections(ctx, dbID)
	if err != nil {
		return nil, remoteError("list collections", dbLink, err)
	}
	out := make([]client.Collection, 0, len(res))
	for _, r := range res {
		out = append(out, client.Collection{ID: r.ID, RID: r.RID, Self: r.Self, ETag: r.ETag})
	}
	return out, nil
}

func (s *Store) CreateCollection(ctx context.Context, dbLink string, id string) (*client.Collection, error) {
	dbID, collID, _, ok := client.ParseLink(dbLink)
	if !ok || dbID == "" || collID != "" || id == "" {
		return nil, badLink("create collection", dbLink)
	}
	r := storage.Resource{ID: id, RID: newRID(), Self: client.CollectionLink(dbID, id) + "/", ETag: newETag()}
	if err := s.backend.InsertCollection(ctx, dbID, r); err != nil {
		return nil, remoteError("create collection", client.CollectionLink(dbID, id), err)
	}
	s.logger.Debug("created collection", "db", dbID, "id", id)
	return &client.Collection{ID: r.ID, RID: r.RID, Self: r.Self, ETag: r.ETag}, nil
}

func parseCollLink(op, link string) (dbID, collID string, err error) {
	dbID, collID, docID, ok := client.ParseLink(link)
	if !ok || collID == "" || docID != "" {
		return "", "", badLink(op, link)
	}
	return dbID, collID, nil
}

func parseDocLink(op, link string) (dbID, collID, docID string, err error) {
	dbID, collID, docID, ok := client.ParseLink(link)
	if !ok || docID == "" {
		return "", "", "", badLink(op, link)
	}
	return dbID, collID, docID, nil
}

func decode(body []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	return doc, nil
}

// QueryDocuments runs spec against every document in the collection.
// opts.MaxItemCount is a page size and does not cap the result.
func (s *Store) QueryDocuments(ctx context.Context, collLink string, spec client.QuerySpec, opts *client.FeedOptions) ([]map[string]interface{}, error) {
	const op = "query documents"
	dbID, collID, err := parseCollLink(op, collLink)
	if err != nil {
		return nil, err
	}
	q, err := docsql.Parse(spec.Query)
	if err != nil {
		return nil, runtime.NewRemoteError(op, collLink, 400, err)
	}

	stored, err := s.backend.Documents(ctx, dbID, collID)
	if err != nil {
		return nil, remoteError(op, collLink, err)
	}
	docs := make([]map[string]interface{}, 0, len(stored))
	for _, d := range stored {
		doc, err := decode(d.Body)
		if err != nil {
			return nil, remoteError(op, collLink, err)
		}
		docs = append(docs, doc)
	}

	params := make(map[string]interface{}, len(spec.Parameters))
	for _, p := range spec.Parameters {
		params[p.Name] = p.Value
	}
	out, err := q.Execute(docs, params)
	if err != nil {
		return nil, runtime.NewRemoteError(op, collLink, 400, err)
	}
	s.logger.Debug("query", "collection", collLink, "query", spec.Query, "matched", len(out))
	return out, nil
}

func (s *Store) ReadDocument(ctx context.Context, docLink string, opts *client.RequestOptions) (map[string]interface{}, error) {
	const op = "read document"
	dbID, collID, docID, err := parseDocLink(op, docLink)
	if err != nil {
		return nil, err
	}
	body, err := s.backend.GetDocument(ctx, dbID, collID, docID)
	if err != nil {
		return nil, remoteError(op, docLink, err)
	}
	doc, err := decode(body)
	if err != nil {
		return nil, remoteError(op, docLink, err)
	}
	return doc, nil
}

// stamp fills the system properties and encodes doc.
func (s *Store) stamp(dbID, collID, id string, doc map[string]interface{}, rid string) ([]byte, map[string]interface{}, error) {
	out := make(map[string]interface{}, len(doc)+4)
	for k, v := range doc {
		out[k] = v
	}
	out[PropID] = id
	out[PropRID] = rid
	out[PropSelf] = client.DocumentLink(client.CollectionLink(dbID, collID), id) + "/"
	out[PropETag] = newETag()
	out[PropTS] = s.now().Unix()
	body, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("encode document: %w", err)
	}
	// round trip so callers see the same value types a read returns
	decoded, err := decode(body)
	if err != nil {
		return nil, nil, err
	}
	return body, decoded, nil
}

// CreateDocument stores doc, generating an id if it has none.
func (s *Store) CreateDocument(ctx context.Context, collLink string, doc map[string]interface{}, opts *client.RequestOptions) (map[string]interface{}, error) {
	const op = "create document"
	dbID, collID, err := parseCollLink(op, collLink)
	if err != nil {
		return nil, err
	}
	id, _ := doc[PropID].(string)
	if id == "" {
		if raw, ok := doc[PropID]; ok && raw != nil {
			id = fmt.Sprint(raw)
		} else {
			id = uuid.NewString()
		}
	}
	body, created, err := s.stamp(dbID, collID, id, doc, newRID())
	if err != nil {
		return nil, runtime.NewRemoteError(op, collLink, 400, err)
	}
	if err := s.backend.InsertDocument(ctx, dbID, collID, storage.Document{ID: id, Body: body}); err != nil {
		return nil, remoteError(op, client.DocumentLink(collLink, id), err)
	}
	return created, nil
}

// ReplaceDocument overwrites a document. opts.IfMatch, when set, must equal the
// stored etag.
func (s *Store) ReplaceDocument(ctx context.Context, docLink string, doc map[string]interface{}, opts *client.RequestOptions) (map[string]interface{}, error) {
	const op = "replace document"
	dbID, collID, docID, err := parseDocLink(op, docLink)
	if err != nil {
		return nil, err
	}
	current, err := s.ReadDocument(ctx, docLink, opts)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.IfMatch != "" && opts.IfMatch != current[PropETag] {
		return nil, runtime.NewRemoteError(op, docLink, runtime.StatusPreconditionFailed, fmt.Errorf("etag mismatch"))
	}
	rid, _ := current[PropRID].(string)
	body, replaced, err := s.stamp(dbID, collID, docID, doc, rid)
	if err != nil {
		return nil, runtime.NewRemoteError(op, docLink, 400, err)
	}
	if err := s.backend.UpdateDocument(ctx, dbID, collID, storage.Document{ID: docID, Body: body}); err != nil {
		return nil, remoteError(op, docLink, err)
	}
	return replaced, nil
}

func (s *Store) DeleteDocument(ctx context.Context, docLink string, opts *client.RequestOptions) error {
	const op = "delete document"
	dbID, collID, docID, err := parseDocLink(op, docLink)
	if err != nil {
		return err
	}
	return remoteError(op, docLink, s.backend.DeleteDocument(ctx, dbID, collID, docID))
}
