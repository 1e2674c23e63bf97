package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/prisma-docdb/cli/internal/config"
	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/internal/docstore"
	"github.com/satishbabariya/prisma-docdb/query/compiler"
	"github.com/satishbabariya/prisma-docdb/runtime/adapter"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// session is an open store plus the adapter running on it.
type session struct {
	store   *docstore.Store
	adapter *adapter.Adapter
}

func (s *session) Close() error {
	return s.store.Close()
}

// open connects to the configured backend.
func (a *app) open(ctx context.Context) (*session, error) {
	store, err := docstore.Open(ctx, a.cfg.Backend, a.cfg.DSN, docstore.WithLogger(debug.Component("docstore")))
	if err != nil {
		return nil, err
	}
	ad := adapter.New(store, adapter.Config{
		Database:    a.cfg.Database,
		IDField:     a.cfg.IDField,
		Concurrency: a.cfg.Concurrency,
	},
		adapter.WithExtension(a.metrics.Extension()),
		adapter.WithMiddleware(a.metrics.Middleware()),
	)
	return &session{store: store, adapter: ad}, nil
}

// collectionRef names a collection, optionally with an explicit query alias.
func collectionRef(name, alias string) types.CollectionRef {
	ref := types.Ref(name)
	ref.Alias = alias
	return ref
}

// readFile reads path through the config filesystem; "-" reads stdin.
func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return afero.ReadFile(config.AppFs, path)
}

// decodeYAML parses YAML or JSON into plain Go values.
func decodeYAML(data []byte, out interface{}) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	return yaml.Unmarshal(data, out)
}

// readQuery loads a query file. An empty path means no filter.
func readQuery(path string, stdin io.Reader) (compiler.Query, error) {
	if path == "" {
		return compiler.Query{}, nil
	}
	data, err := readFile(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read query: %w", err)
	}
	q := compiler.Query{}
	if err := decodeYAML(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse query %s: %w", path, err)
	}
	return q, nil
}

// readRecords loads a record file holding one object or a list of objects.
func readRecords(path string, stdin io.Reader) ([]types.Record, error) {
	data, err := readFile(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	var raw interface{}
	if err := decodeYAML(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse records %s: %w", path, err)
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		return []types.Record{v}, nil
	case []interface{}:
		out := make([]types.Record, 0, len(v))
		for i, elem := range v {
			m, ok := elem.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("record %d is not an object", i)
			}
			out = append(out, m)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%s holds no records", path)
	default:
		return nil, fmt.Errorf("%s must hold an object or a list of objects", path)
	}
}
