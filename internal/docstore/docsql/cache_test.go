package docsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newStatementCache(2)
	a, b, d := &Statement{From: "a"}, &Statement{From: "b"}, &Statement{From: "d"}

	c.add("a", a)
	c.add("b", b)
	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)

	c.add("d", d)
	_, ok = c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)

	assert.Equal(t, CacheStats{Hits: 2, Misses: 1, Size: 2, MaxSize: 2, Evictions: 1}, c.snapshot())
}
