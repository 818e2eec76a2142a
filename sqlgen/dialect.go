package sqlgen

// Dialect carries the SQL spelling choices that differ between targets.
type Dialect struct {
	// Lower names the SQL function wrapped around both sides of a
	// case-insensitive pattern match. The default is the standard
	// lower(), which in SQLite only folds ASCII; the sqlite package
	// registers a Unicode-aware ulower() and points the dialect at it.
	Lower string
}

// DefaultDialect is used when a query is built without WithDialect.
var DefaultDialect = Dialect{Lower: "lower"}
