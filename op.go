package sift

import "fmt"

// Operator identifies the comparison a Cond applies to its column. The set
// is closed: the compiler dispatches over a routine table keyed by
// Operator and rejects anything it does not know.
type Operator int

const (
	OpEq Operator = iota
	OpNotEq
	OpIsNull
	OpNotNull
	OpLike
	OpNotLike
	OpILike
	OpNotILike
	OpIn
	OpBetween
	OpGt
	OpGte
	OpLt
	OpLte
	OpIsEmpty
	OpNotEmpty
	OpIsTrue
	OpIsFalse
)

// operandKind is the shape of right-hand operand an operator expects.
type operandKind int

const (
	operandNone    operandKind = iota // operator is complete without an operand
	operandScalar                     // single value or column reference
	operandPattern                    // string pattern
	operandSet                        // list of values
	operandRange                      // inclusive two-ended Range
)

// opInfo fixes the name and operand shape of every operator.
var opInfo = map[Operator]struct {
	name string
	kind operandKind
}{
	OpEq:       {"eq", operandScalar},
	OpNotEq:    {"not-eq", operandScalar},
	OpIsNull:   {"is-null", operandNone},
	OpNotNull:  {"not-null", operandNone},
	OpLike:     {"like", operandPattern},
	OpNotLike:  {"not-like", operandPattern},
	OpILike:    {"ilike", operandPattern},
	OpNotILike: {"not-ilike", operandPattern},
	OpIn:       {"in", operandSet},
	OpBetween:  {"between", operandRange},
	OpGt:       {"gt", operandScalar},
	OpGte:      {"gte", operandScalar},
	OpLt:       {"lt", operandScalar},
	OpLte:      {"lte", operandScalar},
	OpIsEmpty:  {"is-empty", operandNone},
	OpNotEmpty: {"not-empty", operandNone},
	OpIsTrue:   {"is-true", operandNone},
	OpIsFalse:  {"is-false", operandNone},
}

func (op Operator) String() string {
	if info, ok := opInfo[op]; ok {
		return info.name
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}
