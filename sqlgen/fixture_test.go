package sqlgen_test

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift"
	"github.com/roach88/sift/schema"
	"github.com/roach88/sift/sqlgen"
	"github.com/roach88/sift/sqlite"
)

func newTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		&schema.Entity{
			Name: "departments",
			Key:  "id",
			Attrs: []schema.Attr{
				{Name: "id", Type: schema.TypeText},
				{Name: "name", Type: schema.TypeText},
				{Name: "code", Type: schema.TypeText},
				{Name: "budget", Type: schema.TypeFloat},
				{Name: "manager_id", Type: schema.TypeInt},
			},
			Rels: []schema.Rel{
				{Name: "employees", Target: "employees", Kind: schema.ToMany, ForeignKey: "department_id"},
				{Name: "manager", Target: "employees", Kind: schema.ToOne, ForeignKey: "manager_id"},
			},
		},
		&schema.Entity{
			Name: "employees",
			Key:  "id",
			Attrs: []schema.Attr{
				{Name: "id", Type: schema.TypeInt},
				{Name: "name", Type: schema.TypeText},
				{Name: "nickname", Type: schema.TypeText},
				{Name: "age", Type: schema.TypeInt},
				{Name: "active", Type: schema.TypeBool},
				{Name: "hired_at", Type: schema.TypeTime},
				{Name: "department_id", Type: schema.TypeText},
			},
			Rels: []schema.Rel{
				{Name: "department", Target: "departments", Kind: schema.ToOne, ForeignKey: "department_id"},
				{Name: "tasks", Target: "tasks", Kind: schema.ToMany, ForeignKey: "assignee_id"},
			},
		},
		&schema.Entity{
			Name: "tasks",
			Key:  "id",
			Attrs: []schema.Attr{
				{Name: "id", Type: schema.TypeInt},
				{Name: "title", Type: schema.TypeText},
				{Name: "done", Type: schema.TypeBool},
				{Name: "assignee_id", Type: schema.TypeInt},
			},
			Rels: []schema.Rel{
				{Name: "assignee", Target: "employees", Kind: schema.ToOne, ForeignKey: "assignee_id"},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func mustSpec(t *testing.T, build func(*sift.Root)) *sift.Spec {
	t.Helper()
	spec, err := sift.New(build)
	require.NoError(t, err)
	return spec
}

// seedDB opens an in-memory database, creates the schema and loads the
// standard fixture rows. Department ids are random UUIDs; nothing in the
// tests depends on their values.
func seedDB(t *testing.T) (*sql.DB, *schema.Registry) {
	t.Helper()

	reg := newTestRegistry(t)
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range reg.DDL() {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	eng, sales, ops := uuid.NewString(), uuid.NewString(), uuid.NewString()
	for _, d := range []struct {
		id, name, code string
		budget         float64
	}{
		{eng, "Engineering", "ENG", 500000},
		{sales, "Sales", "SLS", 250000},
		{ops, "Operations", "OPS", 125000},
	} {
		_, err := db.Exec(
			"INSERT INTO departments (id, name, code, budget, manager_id) VALUES (?, ?, ?, ?, NULL)",
			d.id, d.name, d.code, d.budget)
		require.NoError(t, err)
	}

	for _, e := range []struct {
		id       int
		name     string
		nickname any
		age      any
		active   bool
		hiredAt  string
		dept     string
	}{
		{1, "John Doe", "Johnny", 30, true, "2020-01-15", eng},
		{2, "Alice Smith", "Alice Smith", 25, true, "2021-03-01", eng},
		{3, "Bob Stone", "Bobby", 40, false, "2019-07-01", sales},
		{4, "John Silver", nil, nil, true, "2022-05-10", sales},
		{5, "Carol Jones", "CJ", 50, false, "2018-02-20", ops},
		{6, "Jörg Müller", nil, 33, true, "2023-08-01", eng},
	} {
		_, err := db.Exec(
			"INSERT INTO employees (id, name, nickname, age, active, hired_at, department_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.id, e.name, e.nickname, e.age, e.active, e.hiredAt, e.dept)
		require.NoError(t, err)
	}

	// The engineering manager references an employee, so it lands after
	// the employees exist; foreign keys are enforced.
	_, err = db.Exec("UPDATE departments SET manager_id = 1 WHERE id = ?", eng)
	require.NoError(t, err)

	for _, task := range []struct {
		id       int
		title    string
		done     bool
		assignee int
	}{
		{1, "Ship release", false, 1},
		{2, "Write docs", true, 1},
		{3, "Review PR", false, 2},
	} {
		_, err := db.Exec(
			"INSERT INTO tasks (id, title, done, assignee_id) VALUES (?, ?, ?, ?)",
			task.id, task.title, task.done, task.assignee)
		require.NoError(t, err)
	}

	return db, reg
}

// runSelect compiles spec over employees, runs it and returns the result
// maps.
func runSelect(t *testing.T, db *sql.DB, reg *schema.Registry, spec *sift.Spec) []map[string]any {
	t.Helper()

	q, err := sqlgen.Select(reg, "employees", sqlgen.WithDialect(sqlite.Dialect()))
	require.NoError(t, err)
	require.NoError(t, q.Apply(spec))

	query, args, err := q.Build()
	require.NoError(t, err)

	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	result, err := sqlgen.ScanMaps(rows)
	require.NoError(t, err)
	return result
}

func names(result []map[string]any) []string {
	out := make([]string, 0, len(result))
	for _, row := range result {
		if row["t0_name"] == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, row["t0_name"].(string))
	}
	return out
}
