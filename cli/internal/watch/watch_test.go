package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecallsOnWrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: 1\n"), 0644))

	var calls atomic.Int32
	w, err := NewWatcher(file, func() error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("a: 2\n"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	// other files in the directory are ignored
	n := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(file), "other"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, n, calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestRunInitialError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	boom := errors.New("boom")
	w, err := NewWatcher(file, func() error { return boom }, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Run(context.Background()), boom)
}
