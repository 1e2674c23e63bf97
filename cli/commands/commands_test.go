package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
)

const usersFile = `
- {id: "1", name: Alice, age: 30, role: admin}
- {id: "2", name: Bob, age: 20, role: user}
- {id: "3", name: Carol, age: 40, role: user}
`

func init() {
	color.NoColor = true
	pterm.DisableColor()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	old := ui.Out
	ui.Out = &buf
	t.Cleanup(func() { ui.Out = old })

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)
	err := root.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// workspace runs init in a temp dir and returns the dir and config path.
func workspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "store.sqlite")

	out, err := execute(t, "init", "--dir", dir, "--backend", "sqlite", "--dsn", dsn, "--database", "app")
	require.NoError(t, err, out)
	return dir, filepath.Join(dir, ".prisma-docdb.yaml")
}

func decodeRecords(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	return records
}

func ids(records []map[string]interface{}) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["id"].(string)
	}
	return out
}

func TestInit(t *testing.T) {
	dir, cfgPath := workspace(t)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "database: app")
	assert.FileExists(t, filepath.Join(dir, "query.yaml"))

	_, err = execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--dir", dir, "--force")
	require.NoError(t, err)
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	q := writeFile(t, dir, "q.yaml", `
status: active
where:
  age: {">=": 18}
orderBy: [[name, asc]]
limit: 5
`)

	out, err := execute(t, "compile", q, "--alias", "users", "--json")
	require.NoError(t, err)

	var compiled struct {
		Query      string `json:"query"`
		Parameters []struct {
			Name  string      `json:"name"`
			Value interface{} `json:"value"`
		} `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &compiled), out)
	assert.Equal(t,
		"SELECT TOP 5 * FROM users WHERE (users.age >= @age AND users.status = @status) ORDER BY users.name",
		compiled.Query)
	require.Len(t, compiled.Parameters, 2)
	assert.Equal(t, "@age", compiled.Parameters[0].Name)
	assert.Equal(t, "@status", compiled.Parameters[1].Name)

	out, err = execute(t, "compile", q, "--alias", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "users.status = @status")
	assert.Contains(t, out, "@status = active")
}

func TestCompileRejectsUnknownOperator(t *testing.T) {
	q := writeFile(t, t.TempDir(), "q.yaml", `where: {name: {"~~": x}}`)
	_, err := execute(t, "compile", q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "~~")
}

func TestCRUD(t *testing.T) {
	dir, cfg := workspace(t)
	users := writeFile(t, dir, "users.yaml", usersFile)

	out, err := execute(t, "--config", cfg, "create", "users", users)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Created 3 document(s) in users")

	adults := writeFile(t, dir, "adults.yaml", "where: {age: {\">=\": 25}}\norderBy: age DESC\n")
	out, err = execute(t, "--config", cfg, "find", "users", adults, "--json")
	require.NoError(t, err, out)
	assert.Equal(t, []string{"3", "1"}, ids(decodeRecords(t, out)))

	out, err = execute(t, "--config", cfg, "find", "users", "--id", "2", "--json")
	require.NoError(t, err, out)
	var bob map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &bob))
	assert.Equal(t, "Bob", bob["name"])

	out, err = execute(t, "--config", cfg, "count", "users", adults, "--json")
	require.NoError(t, err, out)
	assert.JSONEq(t, `{"count": 2}`, out)

	role := writeFile(t, dir, "role.yaml", "role: user\n")
	out, err = execute(t, "--config", cfg, "sum", "users", "age", role, "--json")
	require.NoError(t, err, out)
	assert.JSONEq(t, `{"sum": 60}`, out)

	patch := writeFile(t, dir, "patch.yaml", "role: owner\n")
	out, err = execute(t, "--config", cfg, "update", "users", "1", patch, "--json")
	require.NoError(t, err, out)
	assert.Equal(t, "owner", decodeRecords(t, out)[0]["role"])

	out, err = execute(t, "--config", cfg, "update", "users", "-", patch, "--where", role)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Updated 2 document(s)")

	out, err = execute(t, "--config", cfg, "delete", "users", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted 2")

	out, err = execute(t, "--config", cfg, "delete", "users", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No document")

	owners := writeFile(t, dir, "owners.yaml", "role: owner\n")
	out, err = execute(t, "--config", cfg, "delete", "users", "--where", owners)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted 2 document(s)")

	out, err = execute(t, "--config", cfg, "count", "users", "--json")
	require.NoError(t, err, out)
	assert.JSONEq(t, `{"count": 0}`, out)
}

func TestUpdateMissingDocument(t *testing.T) {
	dir, cfg := workspace(t)
	patch := writeFile(t, dir, "patch.yaml", "role: owner\n")

	_, err := execute(t, "--config", cfg, "update", "users", "nope", patch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no users found with id "nope"`)
}

func TestDeleteNeedsIDOrWhere(t *testing.T) {
	_, cfg := workspace(t)

	_, err := execute(t, "--config", cfg, "delete", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either an id or --where")
}

func TestProvision(t *testing.T) {
	_, cfg := workspace(t)

	out, err := execute(t, "--config", cfg, "provision", "users", "orders")
	require.NoError(t, err, out)
	assert.Contains(t, out, "dbs/app/colls/users")
	assert.Contains(t, out, "dbs/app/colls/orders")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--check", "99.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "prisma-docdb version")
	assert.Contains(t, out, "A newer version is available: 99.0.0")

	_, err = execute(t, "version", "--constraint", ">= 99.0")
	require.Error(t, err)
}
