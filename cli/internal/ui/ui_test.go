package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevErr, prevColor := Out, Err, color.NoColor
	Out, Err, color.NoColor = &buf, &buf, true
	t.Cleanup(func() { Out, Err, color.NoColor = prevOut, prevErr, prevColor })
	return &buf
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "a", FormatValue("a"))
	assert.Equal(t, "3", FormatValue(3.0))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]interface{}{"a": 1}))
	assert.Equal(t, `["x"]`, FormatValue([]interface{}{"x"}))
}

func TestPrintRecords(t *testing.T) {
	buf := capture(t)
	require.NoError(t, PrintRecords([]map[string]interface{}{
		{"id": "1", "name": "Ann", "_etag": "x"},
		{"id": "2", "age": 3.0},
	}))
	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "age")
	assert.NotContains(t, out, "_etag")
}

func TestMessages(t *testing.T) {
	buf := capture(t)
	PrintSuccess("done %d", 1)
	PrintError("bad %s", "thing")
	PrintKeyValue("@id", "1")
	out := buf.String()
	assert.Contains(t, out, "done 1")
	assert.Contains(t, out, "bad thing")
	assert.Contains(t, out, "@id = 1")
}

func TestPrintJSON(t *testing.T) {
	buf := capture(t)
	require.NoError(t, PrintJSON(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}
