package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/prisma-docdb/query/compiler"
	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// Compile returns the query FindAll would send for q, without any I/O.
func (a *Adapter) Compile(ref types.CollectionRef, q compiler.Query, opts ...Option) (*sqlgen.Query, error) {
	c := a.resolve(ref, opts)
	return a.compiler.Compile(c.alias, q, c.compile)
}

// EnsureCollection provisions the collection behind ref.
func (a *Adapter) EnsureCollection(ctx context.Context, ref types.CollectionRef, opts ...Option) (*client.Collection, error) {
	return a.collection(ctx, a.resolve(ref, opts))
}

func (a *Adapter) collection(ctx context.Context, c *call) (*client.Collection, error) {
	if c.database == "" {
		return nil, runtime.NewValidationError("database", "no database configured for %s", c.ref.Name)
	}
	if c.ref.CollectionID() == "" {
		return nil, runtime.NewValidationError("collection", "empty collection name")
	}
	return a.resources.EnsureCollection(ctx, c.database, c.ref.CollectionID())
}

func (a *Adapter) run(ctx context.Context, c *call, op string, args interface{}, exec func() (interface{}, types.Metadata, error)) (interface{}, types.Metadata, error) {
	return a.extensions.Execute(&ExtensionContext{
		Context:    ctx,
		Collection: c.ref.Name,
		Database:   c.database,
		Operation:  op,
		Args:       args,
	}, exec)
}

func (a *Adapter) query(ctx context.Context, c *call, coll *client.Collection, q *sqlgen.Query) ([]types.Record, error) {
	docs, err := a.client.QueryDocuments(ctx, coll.Link(), client.NewQuerySpec(q), c.feed)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// fanOut runs fn for every index concurrently. The first error cancels the
// context handed to the others and is returned.
func (a *Adapter) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Concurrency > 0 {
		g.SetLimit(a.cfg.Concurrency)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Find reads one document by id. A missing document is not an error: the
// record is nil and Found is 0.
func (a *Adapter) Find(ctx context.Context, ref types.CollectionRef, id string, opts ...Option) (types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpFind, id, func() (interface{}, types.Metadata, error) {
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		doc, err := a.client.ReadDocument(ctx, client.DocumentLink(coll.Link(), id), c.request)
		if runtime.IsRemoteNotFound(err) {
			return nil, types.Metadata{Found: 0}, nil
		}
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return types.Record(doc), types.Metadata{Found: 1}, nil
	})
	return asRecord(res), meta, err
}

// FindAll returns the documents matching q.
func (a *Adapter) FindAll(ctx context.Context, ref types.CollectionRef, q compiler.Query, opts ...Option) ([]types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpFindAll, q, func() (interface{}, types.Metadata, error) {
		compiled, err := a.compiler.Compile(c.alias, q, c.compile)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		docs, err := a.query(ctx, c, coll, compiled)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return docs, types.Metadata{Found: len(docs)}, nil
	})
	return asRecords(res), meta, err
}

// Create stores a copy of record and returns the stored document.
func (a *Adapter) Create(ctx context.Context, ref types.CollectionRef, record types.Record, opts ...Option) (types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpCreate, record, func() (interface{}, types.Metadata, error) {
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		doc, err := a.create(ctx, c, coll, record)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return doc, types.Metadata{Created: 1}, nil
	})
	return asRecord(res), meta, err
}

func (a *Adapter) create(ctx context.Context, c *call, coll *client.Collection, record types.Record) (types.Record, error) {
	doc, err := deepCopy(record)
	if err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	return a.client.CreateDocument(ctx, coll.Link(), doc, c.request)
}

// CreateMany stores every record concurrently. Results keep the input order.
func (a *Adapter) CreateMany(ctx context.Context, ref types.CollectionRef, records []types.Record, opts ...Option) ([]types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpCreateMany, records, func() (interface{}, types.Metadata, error) {
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		out := make([]types.Record, len(records))
		err = a.fanOut(ctx, len(records), func(ctx context.Context, i int) error {
			doc, err := a.create(ctx, c, coll, records[i])
			out[i] = doc
			return err
		})
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return out, types.Metadata{Created: len(records)}, nil
	})
	return asRecords(res), meta, err
}

// Update reads the document, deep-merges patch into it and replaces it. A
// missing document fails with *runtime.NotFoundError and nothing is written.
func (a *Adapter) Update(ctx context.Context, ref types.CollectionRef, id string, patch types.Record, opts ...Option) (types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpUpdate, map[string]interface{}{"id": id, "patch": patch}, func() (interface{}, types.Metadata, error) {
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		doc, err := a.update(ctx, c, coll, id, patch)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return doc, types.Metadata{Updated: 1}, nil
	})
	return asRecord(res), meta, err
}

func (a *Adapter) update(ctx context.Context, c *call, coll *client.Collection, id string, patch types.Record) (types.Record, error) {
	link := client.DocumentLink(coll.Link(), id)
	current, err := a.client.ReadDocument(ctx, link, c.request)
	if runtime.IsRemoteNotFound(err) || (err == nil && current == nil) {
		return nil, &runtime.NotFoundError{Collection: c.ref.Name, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return a.replace(ctx, c, link, current, patch)
}

func (a *Adapter) replace(ctx context.Context, c *call, link string, current, patch types.Record) (types.Record, error) {
	merged, err := DeepMerge(current, patch)
	if err != nil {
		return nil, fmt.Errorf("merge patch: %w", err)
	}
	if id, ok := current[c.idField]; ok {
		merged[c.idField] = id
	}
	return a.client.ReplaceDocument(ctx, link, merged, c.request)
}

// UpdateAll deep-merges patch into every document matching q and replaces
// them concurrently.
func (a *Adapter) UpdateAll(ctx context.Context, ref types.CollectionRef, patch types.Record, q compiler.Query, opts ...Option) ([]types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpUpdateAll, map[string]interface{}{"patch": patch, "query": q}, func() (interface{}, types.Metadata, error) {
		compiled, err := a.compiler.Compile(c.alias, q, c.compile)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		docs, err := a.query(ctx, c, coll, compiled)
		if err != nil {
			return nil, types.Metadata{}, err
		}

		out := make([]types.Record, len(docs))
		err = a.fanOut(ctx, len(docs), func(ctx context.Context, i int) error {
			id, err := recordID(docs[i], c.idField)
			if err != nil {
				return err
			}
			doc, err := a.replace(ctx, c, client.DocumentLink(coll.Link(), id), docs[i], patch)
			out[i] = doc
			return err
		})
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return out, types.Metadata{Updated: len(docs)}, nil
	})
	return asRecords(res), meta, err
}

// UpdateMany updates every record by the id it carries. Each record is merged
// into its stored document like Update does.
func (a *Adapter) UpdateMany(ctx context.Context, ref types.CollectionRef, records []types.Record, opts ...Option) ([]types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpUpdateMany, records, func() (interface{}, types.Metadata, error) {
		ids := make([]string, len(records))
		for i, r := range records {
			id, err := recordID(r, c.idField)
			if err != nil {
				return nil, types.Metadata{}, err
			}
			ids[i] = id
		}

		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		out := make([]types.Record, len(records))
		err = a.fanOut(ctx, len(records), func(ctx context.Context, i int) error {
			doc, err := a.update(ctx, c, coll, ids[i], records[i])
			out[i] = doc
			return err
		})
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return out, types.Metadata{Updated: len(records)}, nil
	})
	return asRecords(res), meta, err
}

// Destroy deletes one document. A missing document is not an error: the
// record is nil and Deleted is 0.
func (a *Adapter) Destroy(ctx context.Context, ref types.CollectionRef, id string, opts ...Option) (types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpDestroy, id, func() (interface{}, types.Metadata, error) {
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		deleted, err := a.destroy(ctx, c, coll, id)
		if err != nil || !deleted {
			return nil, types.Metadata{}, err
		}
		return types.Record{c.idField: id}, types.Metadata{Deleted: 1}, nil
	})
	return asRecord(res), meta, err
}

func (a *Adapter) destroy(ctx context.Context, c *call, coll *client.Collection, id string) (bool, error) {
	err := a.client.DeleteDocument(ctx, client.DocumentLink(coll.Link(), id), c.request)
	if runtime.IsRemoteNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// DestroyAll deletes every document matching q concurrently. Deleted counts
// the matches, including any that vanished before their delete ran.
func (a *Adapter) DestroyAll(ctx context.Context, ref types.CollectionRef, q compiler.Query, opts ...Option) ([]types.Record, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpDestroyAll, q, func() (interface{}, types.Metadata, error) {
		compiled, err := a.compiler.Compile(c.alias, q, c.compileOptions(c.idField))
		if err != nil {
			return nil, types.Metadata{}, err
		}
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		docs, err := a.query(ctx, c, coll, compiled)
		if err != nil {
			return nil, types.Metadata{}, err
		}

		err = a.fanOut(ctx, len(docs), func(ctx context.Context, i int) error {
			id, err := recordID(docs[i], c.idField)
			if err != nil {
				return err
			}
			_, err = a.destroy(ctx, c, coll, id)
			return err
		})
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return docs, types.Metadata{Deleted: len(docs)}, nil
	})
	return asRecords(res), meta, err
}

// Count returns the number of documents matching q. Only ids are fetched.
func (a *Adapter) Count(ctx context.Context, ref types.CollectionRef, q compiler.Query, opts ...Option) (int, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpCount, q, func() (interface{}, types.Metadata, error) {
		compiled, err := a.compiler.Compile(c.alias, q, c.compileOptions(c.idField))
		if err != nil {
			return nil, types.Metadata{}, err
		}
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		docs, err := a.query(ctx, c, coll, compiled)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		return len(docs), types.Metadata{Found: len(docs)}, nil
	})
	n, _ := res.(int)
	return n, meta, err
}

// Sum adds up field over the documents matching q. field must be a string;
// anything else fails with *runtime.ValidationError before any I/O.
// Documents where the field is missing or null are skipped.
func (a *Adapter) Sum(ctx context.Context, ref types.CollectionRef, field interface{}, q compiler.Query, opts ...Option) (float64, types.Metadata, error) {
	c := a.resolve(ref, opts)
	res, meta, err := a.run(ctx, c, OpSum, map[string]interface{}{"field": field, "query": q}, func() (interface{}, types.Metadata, error) {
		name, ok := field.(string)
		if !ok || name == "" {
			return nil, types.Metadata{}, runtime.NewValidationError("field", "sum field must be a non-empty string, got %T", field)
		}
		compiled, err := a.compiler.Compile(c.alias, q, c.compileOptions(c.idField, name))
		if err != nil {
			return nil, types.Metadata{}, err
		}
		coll, err := a.collection(ctx, c)
		if err != nil {
			return nil, types.Metadata{}, err
		}
		docs, err := a.query(ctx, c, coll, compiled)
		if err != nil {
			return nil, types.Metadata{}, err
		}

		var total float64
		for _, doc := range docs {
			v, ok := lookup(doc, name)
			if !ok || v == nil {
				continue
			}
			n, err := toFloat(v)
			if err != nil {
				return nil, types.Metadata{}, runtime.NewValidationError(name, "%v", err)
			}
			total += n
		}
		return total, types.Metadata{Found: len(docs)}, nil
	})
	total, _ := res.(float64)
	return total, meta, err
}

func asRecord(v interface{}) types.Record {
	r, _ := v.(types.Record)
	return r
}

func asRecords(v interface{}) []types.Record {
	r, _ := v.([]types.Record)
	return r
}

// recordID returns the record's id as a string.
func recordID(r types.Record, idField string) (string, error) {
	v, ok := r[idField]
	if !ok || v == nil {
		return "", runtime.NewValidationError(idField, "record has no %s", idField)
	}
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", runtime.NewValidationError(idField, "empty id")
		}
		return id, nil
	case fmt.Stringer:
		return id.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// lookup finds field in a projected document: as a literal key, as a dotted
// path, or under the last path segment, which is how projections name nested
// fields.
func lookup(doc types.Record, field string) (interface{}, bool) {
	if v, ok := doc[field]; ok {
		return v, true
	}
	parts := strings.Split(field, ".")
	var cur interface{} = doc
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			cur = nil
			break
		}
		if cur, ok = m[p]; !ok {
			cur = nil
			break
		}
	}
	if cur != nil {
		return cur, true
	}
	v, ok := doc[parts[len(parts)-1]]
	return v, ok
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
