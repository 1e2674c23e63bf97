package storage

import (
	"context"
	"sync"
)

type memCollection struct {
	meta  Resource
	order []string
	docs  map[string][]byte
}

type memDatabase struct {
	meta  Resource
	order []string
	colls map[string]*memCollection
}

// Memory keeps everything in process memory.
type Memory struct {
	mu    sync.RWMutex
	order []string
	dbs   map[string]*memDatabase
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{dbs: make(map[string]*memDatabase)}
}

func (m *Memory) Databases(ctx context.Context) ([]Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Resource, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.dbs[id].meta)
	}
	return out, nil
}

func (m *Memory) InsertDatabase(ctx context.Context, db Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dbs[db.ID]; ok {
		return ErrExists
	}
	m.dbs[db.ID] = &memDatabase{meta: db, colls: make(map[string]*memCollection)}
	m.order = append(m.order, db.ID)
	return nil
}

func (m *Memory) Collections(ctx context.Context, dbID string) ([]Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, ok := m.dbs[dbID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Resource, 0, len(db.order))
	for _, id := range db.order {
		out = append(out, db.colls[id].meta)
	}
	return out, nil
}

func (m *Memory) InsertCollection(ctx context.Context, dbID string, coll Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	db, ok := m.dbs[dbID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := db.colls[coll.ID]; ok {
		return ErrExists
	}
	db.colls[coll.ID] = &memCollection{meta: coll, docs: make(map[string][]byte)}
	db.order = append(db.order, coll.ID)
	return nil
}

// collection must be called with m.mu held.
func (m *Memory) collection(dbID, collID string) (*memCollection, error) {
	db, ok := m.dbs[dbID]
	if !ok {
		return nil, ErrNotFound
	}
	coll, ok := db.colls[collID]
	if !ok {
		return nil, ErrNotFound
	}
	return coll, nil
}

func (m *Memory) Documents(ctx context.Context, dbID, collID string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, err := m.collection(dbID, collID)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(coll.order))
	for _, id := range coll.order {
		out = append(out, Document{ID: id, Body: coll.docs[id]})
	}
	return out, nil
}

func (m *Memory) GetDocument(ctx context.Context, dbID, collID, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, err := m.collection(dbID, collID)
	if err != nil {
		return nil, err
	}
	body, ok := coll.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return body, nil
}

func (m *Memory) InsertDocument(ctx context.Context, dbID, collID string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(dbID, collID)
	if err != nil {
		return err
	}
	if _, ok := coll.docs[doc.ID]; ok {
		return ErrExists
	}
	coll.docs[doc.ID] = doc.Body
	coll.order = append(coll.order, doc.ID)
	return nil
}

func (m *Memory) UpdateDocument(ctx context.Context, dbID, collID string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(dbID, collID)
	if err != nil {
		return err
	}
	if _, ok := coll.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	coll.docs[doc.ID] = doc.Body
	return nil
}

func (m *Memory) DeleteDocument(ctx context.Context, dbID, collID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.collection(dbID, collID)
	if err != nil {
		return err
	}
	if _, ok := coll.docs[id]; !ok {
		return ErrNotFound
	}
	delete(coll.docs, id)
	for i, v := range coll.order {
		if v == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
