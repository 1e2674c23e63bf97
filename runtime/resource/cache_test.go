package resource_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/resource"
)

// stubClient implements the provisioning half of client.DocumentClient.
type stubClient struct {
	client.DocumentClient

	mu          sync.Mutex
	databases   []client.Database
	collections map[string][]client.Collection

	gate       chan struct{}
	listErr    error
	createErr  error
	failOnce   bool
	dbLists    atomic.Int64
	dbCreates  atomic.Int64
	collLists  atomic.Int64
	collCreate atomic.Int64
}

func newStub() *stubClient {
	return &stubClient{collections: map[string][]client.Collection{}}
}

func (s *stubClient) wait(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	select {
	case <-s.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubClient) ListDatabases(ctx context.Context) ([]client.Database, error) {
	s.dbLists.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		err := s.listErr
		if s.failOnce {
			s.listErr = nil
		}
		return nil, err
	}
	return append([]client.Database(nil), s.databases...), nil
}

func (s *stubClient) CreateDatabase(ctx context.Context, id string) (*client.Database, error) {
	s.dbCreates.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	db := client.Database{ID: id, Self: client.DatabaseLink(id)}
	s.databases = append(s.databases, db)
	return &db, nil
}

func (s *stubClient) ListCollections(ctx context.Context, dbLink string) ([]client.Collection, error) {
	s.collLists.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Collection(nil), s.collections[dbLink]...), nil
}

func (s *stubClient) CreateCollection(ctx context.Context, dbLink string, id string) (*client.Collection, error) {
	s.collCreate.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := client.Collection{ID: id, Self: client.CollectionLinkFrom(dbLink, id)}
	s.collections[dbLink] = append(s.collections[dbLink], coll)
	return &coll, nil
}

func TestEnsureDatabase_CreatesOnce(t *testing.T) {
	stub := newStub()
	cache := resource.New(stub)
	ctx := context.Background()

	db, err := cache.EnsureDatabase(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, "app", db.ID)
	assert.Equal(t, "dbs/app", db.Link())

	again, err := cache.EnsureDatabase(ctx, "app")
	require.NoError(t, err)
	assert.Same(t, db, again)

	assert.EqualValues(t, 1, stub.dbLists.Load())
	assert.EqualValues(t, 1, stub.dbCreates.Load())
	assert.EqualValues(t, 1, cache.Stats().Hits)
}

func TestEnsureDatabase_FindsExisting(t *testing.T) {
	stub := newStub()
	stub.databases = []client.Database{{ID: "other"}, {ID: "app", RID: "r1"}}
	cache := resource.New(stub)

	db, err := cache.EnsureDatabase(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "r1", db.RID)
	assert.EqualValues(t, 0, stub.dbCreates.Load())
}

func TestEnsureDatabase_Concurrent(t *testing.T) {
	stub := newStub()
	stub.gate = make(chan struct{})
	cache := resource.New(stub)

	const n = 50
	results := make([]*client.Database, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.EnsureDatabase(context.Background(), "app")
		}(i)
	}

	require.Eventually(t, func() bool { return stub.dbLists.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(stub.gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.EqualValues(t, 1, stub.dbLists.Load())
	assert.EqualValues(t, 1, stub.dbCreates.Load())

	stats := cache.Stats()
	assert.EqualValues(t, 2, stats.RoundTrips())
	assert.Positive(t, stats.Hits+stats.Shared)
}

func TestEnsureCollection_Concurrent(t *testing.T) {
	stub := newStub()
	cache := resource.New(stub)

	const n = 20
	results := make([]*client.Collection, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coll, err := cache.EnsureCollection(context.Background(), "app", "users")
			assert.NoError(t, err)
			results[i] = coll
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, "dbs/app/colls/users", results[0].Link())
	assert.EqualValues(t, 1, stub.dbLists.Load())
	assert.EqualValues(t, 1, stub.dbCreates.Load())
	assert.EqualValues(t, 1, stub.collLists.Load())
	assert.EqualValues(t, 1, stub.collCreate.Load())

	// a second collection reuses the database entry
	_, err := cache.EnsureCollection(context.Background(), "app", "posts")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stub.dbLists.Load())
	assert.EqualValues(t, 2, stub.collLists.Load())
}

func TestEnsureCollection_FillsMissingSelfLink(t *testing.T) {
	stub := newStub()
	stub.databases = []client.Database{{ID: "app"}}
	stub.collections["dbs/app"] = []client.Collection{{ID: "users"}}
	cache := resource.New(stub)

	coll, err := cache.EnsureCollection(context.Background(), "app", "users")
	require.NoError(t, err)
	assert.Equal(t, "dbs/app/colls/users", coll.Link())
	assert.EqualValues(t, 0, stub.collCreate.Load())
}

func TestFailurePolicy(t *testing.T) {
	boom := runtime.NewRemoteError("ListDatabases", "", 503, errors.New("unavailable"))

	t.Run("cache failures", func(t *testing.T) {
		stub := newStub()
		stub.listErr = boom
		stub.failOnce = true
		cache := resource.New(stub)
		assert.Equal(t, resource.CacheFailures, cache.Policy())

		_, err := cache.EnsureDatabase(context.Background(), "app")
		assert.ErrorIs(t, err, boom)

		_, err = cache.EnsureDatabase(context.Background(), "app")
		assert.ErrorIs(t, err, boom)
		assert.EqualValues(t, 1, stub.dbLists.Load())

		_, err = cache.EnsureCollection(context.Background(), "app", "users")
		assert.ErrorIs(t, err, boom)
		assert.EqualValues(t, 1, stub.dbLists.Load())
		assert.EqualValues(t, 0, stub.collLists.Load())
	})

	t.Run("retry failures", func(t *testing.T) {
		stub := newStub()
		stub.listErr = boom
		stub.failOnce = true
		cache := resource.New(stub, resource.WithFailurePolicy(resource.RetryFailures))

		_, err := cache.EnsureDatabase(context.Background(), "app")
		assert.ErrorIs(t, err, boom)

		db, err := cache.EnsureDatabase(context.Background(), "app")
		require.NoError(t, err)
		assert.Equal(t, "app", db.ID)
		assert.EqualValues(t, 2, stub.dbLists.Load())

		_, err = cache.EnsureDatabase(context.Background(), "app")
		require.NoError(t, err)
		assert.EqualValues(t, 2, stub.dbLists.Load())
	})
}

func TestEnsureDatabase_CreateConflict(t *testing.T) {
	stub := &conflictClient{stubClient: newStub()}
	cache := resource.New(stub)

	db, err := cache.EnsureDatabase(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "raced", db.RID)
}

// conflictClient reports a conflict on create after someone else created the
// database.
type conflictClient struct {
	*stubClient
}

func (c *conflictClient) CreateDatabase(ctx context.Context, id string) (*client.Database, error) {
	c.mu.Lock()
	c.databases = append(c.databases, client.Database{ID: id, RID: "raced"})
	c.mu.Unlock()
	return nil, runtime.NewRemoteError("CreateDatabase", client.DatabaseLink(id), runtime.StatusConflict, nil)
}

func TestEnsureDatabase_CallerCancellation(t *testing.T) {
	stub := newStub()
	stub.gate = make(chan struct{})
	cache := resource.New(stub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.EnsureDatabase(ctx, "app")
		done <- err
	}()

	require.Eventually(t, func() bool { return stub.dbLists.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// the lookup itself was not cancelled and settles for later callers
	close(stub.gate)
	db, err := cache.EnsureDatabase(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "app", db.ID)
	assert.EqualValues(t, 1, stub.dbLists.Load())
}
