package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/prisma-docdb/internal/docstore"
	"github.com/satishbabariya/prisma-docdb/runtime/client"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

func TestResolve(t *testing.T) {
	a := New(docstore.New(nil), Config{
		Database:       "app",
		ReservedKeys:   []string{"include"},
		RequestOptions: &client.RequestOptions{ConsistencyLevel: "Session", Headers: map[string]string{"a": "1"}},
		FeedOptions:    &client.FeedOptions{MaxItemCount: 10},
	})

	c := a.resolve(types.Ref("BlogPost"), nil)
	assert.Equal(t, "app", c.database)
	assert.Equal(t, "blogpost", c.alias)
	assert.Equal(t, "id", c.idField)
	assert.Equal(t, []string{"include"}, c.compile.ReservedKeys)
	assert.Equal(t, "Session", c.request.ConsistencyLevel)
	assert.Equal(t, 10, c.feed.MaxItemCount)

	ref := types.CollectionRef{Name: "Post", Database: "blog", IDField: "_key"}
	c = a.resolve(ref, []Option{
		WithDatabase("archive"),
		WithReservedKeys("meta"),
		WithRequestOptions(&client.RequestOptions{PartitionKey: "p1", Headers: map[string]string{"b": "2"}}),
		WithFeedOptions(&client.FeedOptions{EnableCrossPartitionQuery: true}),
	})
	assert.Equal(t, "archive", c.database)
	assert.Equal(t, "_key", c.idField)
	assert.Equal(t, []string{"include", "meta"}, c.compile.ReservedKeys)
	assert.Equal(t, "p1", c.request.PartitionKey)
	assert.Equal(t, "Session", c.request.ConsistencyLevel)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, c.request.Headers)
	assert.True(t, c.feed.EnableCrossPartitionQuery)
	assert.Equal(t, 10, c.feed.MaxItemCount)

	c = a.resolve(types.CollectionRef{Name: "Post", Database: "blog"}, nil)
	assert.Equal(t, "blog", c.database)

	// the adapter's options are never modified by a call
	assert.Equal(t, map[string]string{"a": "1"}, a.cfg.RequestOptions.Headers)
}

func TestCompileOptionsCopy(t *testing.T) {
	a := New(docstore.New(nil), Config{Database: "app"})
	c := a.resolve(types.Ref("User"), nil)
	opts := c.compileOptions("id", "age")
	assert.Equal(t, []string{"id", "age"}, opts.Fields)
	assert.Empty(t, c.compile.Fields)
}

func TestMergeOptionsNil(t *testing.T) {
	assert.Nil(t, mergeRequestOptions(nil, nil))
	assert.Nil(t, mergeFeedOptions(nil, nil))
}
