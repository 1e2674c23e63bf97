package adapter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

func TestDeepMerge(t *testing.T) {
	dst := types.Record{
		"id":      "1",
		"name":    "Ann",
		"tags":    []interface{}{"a", "b"},
		"profile": map[string]interface{}{"city": "Oslo", "geo": map[string]interface{}{"lat": 1.0, "lng": 2.0}},
	}
	patch := types.Record{
		"name":    "Anna",
		"tags":    []interface{}{"c"},
		"profile": map[string]interface{}{"geo": map[string]interface{}{"lat": 3.0}},
		"extra":   map[string]interface{}{"x": 1},
	}

	got, err := DeepMerge(dst, patch)
	require.NoError(t, err)

	want := types.Record{
		"id":      "1",
		"name":    "Anna",
		"tags":    []interface{}{"c"},
		"profile": map[string]interface{}{"city": "Oslo", "geo": map[string]interface{}{"lat": 3.0, "lng": 2.0}},
		"extra":   map[string]interface{}{"x": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeepMerge() mismatch (-want +got):\n%s", diff)
	}

	// inputs are untouched
	assert.Equal(t, "Ann", dst["name"])
	assert.Equal(t, 1.0, dst["profile"].(map[string]interface{})["geo"].(map[string]interface{})["lat"])
	got["extra"].(map[string]interface{})["x"] = 2
	assert.Equal(t, 1, patch["extra"].(map[string]interface{})["x"])
}

func TestDeepMergeReplacesNonObjects(t *testing.T) {
	got, err := DeepMerge(types.Record{"a": map[string]interface{}{"b": 1}}, types.Record{"a": "flat"})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"a": "flat"}, got)

	got, err = DeepMerge(types.Record{"a": "flat"}, types.Record{"a": map[string]interface{}{"b": 1}})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"a": map[string]interface{}{"b": 1}}, got)

	got, err = DeepMerge(nil, types.Record{"a": nil})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"a": nil}, got)
}

func TestDeepCopy(t *testing.T) {
	src := types.Record{"list": []interface{}{map[string]interface{}{"k": "v"}}}
	cp, err := deepCopy(src)
	require.NoError(t, err)
	cp["list"].([]interface{})[0].(map[string]interface{})["k"] = "changed"
	assert.Equal(t, "v", src["list"].([]interface{})[0].(map[string]interface{})["k"])

	empty, err := deepCopy(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
