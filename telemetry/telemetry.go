// Package telemetry exports adapter and client metrics in the Prometheus format.
package telemetry

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/adapter"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/resource"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "prisma_docdb"

// Collector owns a registry and the metrics recorded into it.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	operations     *prometheus.CounterVec
	operationTime  *prometheus.HistogramVec
	documents      *prometheus.CounterVec
	clientCalls    *prometheus.CounterVec
	clientCallTime *prometheus.HistogramVec
}

// New creates a collector with its own registry. An empty namespace uses
// DefaultNamespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry:  reg,
		namespace: namespace,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Adapter operations by collection, operation and outcome",
			},
			[]string{"collection", "operation", "status"},
		),
		operationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Adapter operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents found, created, updated or deleted",
			},
			[]string{"collection", "kind"},
		),
		clientCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_calls_total",
				Help:      "Document client calls by method and status",
			},
			[]string{"method", "status"},
		),
		clientCallTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "client_call_duration_seconds",
				Help:      "Document client call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// status labels an error: "ok", the remote status code, or the error kind.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case runtime.IsValidation(err):
		return "invalid"
	case runtime.IsUnsupportedOperator(err):
		return "unsupported"
	case runtime.IsNotFound(err):
		return "not_found"
	}
	if code := runtime.StatusCode(err); code != 0 {
		return http.StatusText(code)
	}
	return "error"
}

// Extension records every adapter operation.
func (c *Collector) Extension() adapter.Extension {
	after := func(ctx *adapter.ExtensionContext, next func() error) error {
		c.operations.WithLabelValues(ctx.Collection, ctx.Operation, status(ctx.Error)).Inc()
		c.operationTime.WithLabelValues(ctx.Collection, ctx.Operation).Observe(ctx.Duration.Seconds())
		if ctx.Error == nil {
			m := ctx.Metadata
			for kind, n := range map[string]int{"found": m.Found, "created": m.Created, "updated": m.Updated, "deleted": m.Deleted} {
				if n > 0 {
					c.documents.WithLabelValues(ctx.Collection, kind).Add(float64(n))
				}
			}
		}
		return next()
	}
	return adapter.Extension{
		Name:          "metrics",
		AfterQuery:    after,
		AfterMutation: after,
	}
}

// Middleware records every document client call.
func (c *Collector) Middleware() client.Middleware {
	return func(ctx context.Context, event *client.CallEvent, next func() error) error {
		err := next()
		c.clientCalls.WithLabelValues(event.Op, status(err)).Inc()
		c.clientCallTime.WithLabelValues(event.Op).Observe(event.Duration.Seconds())
		return err
	}
}

// WatchResources exports the cache's round trip counters.
func (c *Collector) WatchResources(cache *resource.Cache) error {
	stat := func(name, help string, get func(resource.Stats) int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "resource_cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(get(cache.Stats())) })
	}
	for _, col := range []prometheus.Collector{
		stat("database_lists_total", "Database list round trips", func(s resource.Stats) int64 { return s.DatabaseLists }),
		stat("database_creates_total", "Database create round trips", func(s resource.Stats) int64 { return s.DatabaseCreates }),
		stat("collection_lists_total", "Collection list round trips", func(s resource.Stats) int64 { return s.CollectionLists }),
		stat("collection_creates_total", "Collection create round trips", func(s resource.Stats) int64 { return s.CollectionCreates }),
		stat("hits_total", "Lookups answered from settled entries", func(s resource.Stats) int64 { return s.Hits }),
		stat("shared_total", "Lookups that joined an in-flight lookup", func(s resource.Stats) int64 { return s.Shared }),
	} {
		if err := c.registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Serve exposes the metrics on addr under /metrics until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// IsDisabled reports whether PRISMA_DOCDB_METRICS_DISABLED opts out of metrics.
func IsDisabled() bool {
	v := strings.ToLower(os.Getenv("PRISMA_DOCDB_METRICS_DISABLED"))
	return v == "1" || v == "true"
}
