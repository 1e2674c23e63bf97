package telemetry_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/internal/docstore"
	"github.com/satishbabariya/prisma-docdb/query/compiler"
	"github.com/satishbabariya/prisma-docdb/runtime/adapter"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
	"github.com/satishbabariya/prisma-docdb/telemetry"
)

func TestCollector(t *testing.T) {
	ctx := context.Background()
	metrics := telemetry.New("")
	a := adapter.New(docstore.New(nil), adapter.Config{Database: "app"},
		adapter.WithExtension(metrics.Extension()),
		adapter.WithMiddleware(metrics.Middleware()),
	)
	require.NoError(t, metrics.WatchResources(a.Resources()))

	users := types.Ref("User")
	_, _, err := a.CreateMany(ctx, users, []types.Record{{"id": "1"}, {"id": "2"}})
	require.NoError(t, err)
	_, _, err = a.FindAll(ctx, users, nil)
	require.NoError(t, err)
	_, _, err = a.FindAll(ctx, users, compiler.Query{"id": map[string]interface{}{"~~": 1}})
	require.Error(t, err)
	_, _, err = a.Create(ctx, users, types.Record{"id": "1"})
	require.Error(t, err)

	out, err := testutil.GatherAndLint(metrics.Registry())
	require.NoError(t, err)
	assert.Empty(t, out)

	body := scrape(t, metrics)
	assert.Contains(t, body, `prisma_docdb_operations_total{collection="User",operation="createMany",status="ok"} 1`)
	assert.Contains(t, body, `prisma_docdb_operations_total{collection="User",operation="findAll",status="unsupported"} 1`)
	assert.Contains(t, body, `prisma_docdb_operations_total{collection="User",operation="create",status="Conflict"} 1`)
	assert.Contains(t, body, `prisma_docdb_documents_total{collection="User",kind="created"} 2`)
	assert.Contains(t, body, `prisma_docdb_documents_total{collection="User",kind="found"} 2`)
	assert.Contains(t, body, `prisma_docdb_client_calls_total{method="CreateDocument",status="ok"} 2`)
	assert.Contains(t, body, `prisma_docdb_client_calls_total{method="CreateDocument",status="Conflict"} 1`)
	assert.Contains(t, body, `prisma_docdb_resource_cache_collection_creates_total 1`)
	assert.Contains(t, body, "prisma_docdb_operation_duration_seconds_bucket")
}

func TestWatchResourcesTwice(t *testing.T) {
	metrics := telemetry.New("custom")
	a := adapter.New(docstore.New(nil), adapter.Config{Database: "app"})
	require.NoError(t, metrics.WatchResources(a.Resources()))
	assert.Error(t, metrics.WatchResources(a.Resources()))
}

func TestIsDisabled(t *testing.T) {
	t.Setenv("PRISMA_DOCDB_METRICS_DISABLED", "true")
	assert.True(t, telemetry.IsDisabled())
	t.Setenv("PRISMA_DOCDB_METRICS_DISABLED", "")
	assert.False(t, telemetry.IsDisabled())
}

func scrape(t *testing.T, c *telemetry.Collector) string {
	t.Helper()
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(resp.Header.Get("Content-Type"), "text/plain"))
	return string(b)
}
