package sift

// Operand is the right-hand side of a comparison: either a literal Go
// value or a reference to another column path. The zero Operand is a nil
// literal, which the eq and not-eq compilers treat as "not provided".
type Operand struct {
	ref Path
	lit any
}

// Lit wraps a literal value. Operator methods on Column wrap their
// argument automatically; Lit exists for code that assembles Cond nodes
// directly.
func Lit(v any) Operand {
	return Operand{lit: v}
}

// Col references another column by path, so a condition can compare two
// columns of the (possibly joined) row instead of a column and a
// constant. The path is relative to the enclosing scope and resolves
// through the same join cache as the condition's own column.
func Col(path string) Operand {
	return Operand{ref: Path(path)}
}

// IsRef reports whether the operand is a column reference.
func (o Operand) IsRef() bool {
	return o.ref != ""
}

// Ref returns the referenced path; empty unless IsRef.
func (o Operand) Ref() Path {
	return o.ref
}

// Value returns the literal value; nil for references.
func (o Operand) Value() any {
	if o.ref != "" {
		return nil
	}
	return o.lit
}

// Range is the inclusive two-ended interval a between condition carries as
// its literal. Both ends must be present; an open end is a compile error
// rather than a silent half-range.
type Range struct {
	Lo any
	Hi any
}
