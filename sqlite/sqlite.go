// Package sqlite opens SQLite databases configured for sift workloads:
// a driver with a Unicode-aware ulower() SQL function, plus the pragmas
// filtered queries depend on.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/sift/sqlgen"
)

// DriverName is the database/sql driver this package registers: the
// stock sqlite3 driver extended with ulower(). SQLite's built-in lower()
// folds ASCII only, so case-insensitive matching through it would miss
// anything beyond A-Z.
const DriverName = "sqlite3_sift"

var registerOnce sync.Once

func register() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", func(s string) string {
				return cases.Lower(language.Und).String(s)
			}, true)
		},
	})
}

// Open creates or opens a SQLite database at path. The connection is
// configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
//   - case-sensitive LIKE, so the exact-case pattern operators mean what
//     they say (SQLite's default LIKE folds ASCII case)
//
// SQLite supports a single writer, so the pool is capped at one
// connection; that also makes :memory: databases safe to share within a
// process.
func Open(path string) (*sql.DB, error) {
	registerOnce.Do(register)

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA case_sensitive_like = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("sqlite: execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Dialect returns the sqlgen dialect matching this driver.
func Dialect() sqlgen.Dialect {
	return sqlgen.Dialect{Lower: "ulower"}
}
