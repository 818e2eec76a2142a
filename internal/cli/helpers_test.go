package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const schemaFixture = `entity: {
	departments: {
		key: "id"
		attrs: [
			{name: "id", type: "text"},
			{name: "name", type: "text"},
		]
	}
	employees: {
		key: "id"
		attrs: [
			{name: "id", type: "int"},
			{name: "name", type: "text"},
			{name: "age", type: "int"},
			{name: "department_id", type: "text"},
		]
		rels: [
			{name: "department", to: "departments", kind: "one", foreignKey: "department_id"},
		]
	}
}
`

const queryFixture = `from: employees
where:
  - and:
      - column: age
        op: gte
        value: 21
      - column: department.name
        op: eq
        value: Engineering
order_by:
  - by: name
`

// writeSchemaDir writes the standard schema fixture into a fresh
// directory and returns the directory path.
func writeSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.cue"), []byte(schemaFixture), 0o644))
	return dir
}

// writeQueryFile writes content as a query document and returns its path.
func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
