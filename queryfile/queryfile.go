// Package queryfile loads declarative query documents from YAML and
// assembles them into sift specifications. A document names the root
// entity and describes the filter tree, eager fetches and result shape;
// it is the file form the CLI and test fixtures use, so its structure
// mirrors the builder DSL clause for clause. Parsing is strict: unknown
// fields, unknown operators and malformed clauses are rejected with the
// position of the offending clause.
package queryfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift"
)

// Document is one query description.
type Document struct {
	// From names the root entity the query selects from.
	From string `yaml:"from"`

	// Distinct collapses duplicate result rows.
	Distinct bool `yaml:"distinct,omitempty"`

	// Where lists the top-level filter clauses, combined with AND. Only
	// and, or and join clauses may appear here; a bare column condition
	// must be wrapped in one of them.
	Where []Clause `yaml:"where,omitempty"`

	// Fetch lists relationship paths to load eagerly.
	Fetch []string `yaml:"fetch,omitempty"`

	// GroupBy lists grouping column paths, in order.
	GroupBy []string `yaml:"group_by,omitempty"`

	// OrderBy lists sort keys; earlier keys dominate.
	OrderBy []Order `yaml:"order_by,omitempty"`
}

// Clause is one node of the filter tree. Exactly one form may be used:
// the logical forms and, or and join, or a column condition.
type Clause struct {
	And  []Clause    `yaml:"and,omitempty"`
	Or   []Clause    `yaml:"or,omitempty"`
	Join *JoinClause `yaml:"join,omitempty"`

	// Column starts a condition on the column at this dotted path.
	Column string `yaml:"column,omitempty"`

	// Op names the operator: eq, not-eq, is-null, not-null, like,
	// not-like, ilike, not-ilike, in, between, gt, gte, lt, lte,
	// is-empty, not-empty, is-true, is-false.
	Op string `yaml:"op,omitempty"`

	// Value is the single operand of the scalar and pattern operators.
	Value any `yaml:"value,omitempty"`

	// Values is the operand list of in.
	Values []any `yaml:"values,omitempty"`

	// Low and High are the inclusive ends of between.
	Low  any `yaml:"low,omitempty"`
	High any `yaml:"high,omitempty"`

	// Ref compares against another column instead of a value.
	Ref string `yaml:"ref,omitempty"`
}

// JoinClause scopes its clauses to the entity reached through a
// relationship.
type JoinClause struct {
	// Rel is the relationship path, relative to the enclosing scope.
	Rel string `yaml:"rel"`

	// Where lists the clauses applied to the joined entity.
	Where []Clause `yaml:"where,omitempty"`
}

// Order is one sort key.
type Order struct {
	// By is the column path to sort on.
	By string `yaml:"by"`

	// Dir is "asc" or "desc"; empty means ascending.
	Dir string `yaml:"dir,omitempty"`
}

// operandForm is the operand shape an operator name expects.
type operandForm int

const (
	formNone operandForm = iota
	formScalar
	formPattern
	formSet
	formRange
)

var opForms = map[string]operandForm{
	"eq":        formScalar,
	"not-eq":    formScalar,
	"is-null":   formNone,
	"not-null":  formNone,
	"like":      formPattern,
	"not-like":  formPattern,
	"ilike":     formPattern,
	"not-ilike": formPattern,
	"in":        formSet,
	"between":   formRange,
	"gt":        formScalar,
	"gte":       formScalar,
	"lt":        formScalar,
	"lte":       formScalar,
	"is-empty":  formNone,
	"not-empty": formNone,
	"is-true":   formNone,
	"is-false":  formNone,
}

// Load reads and parses a query document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("queryfile: reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("queryfile: %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a query document. Unknown fields are rejected, so typos
// fail instead of silently dropping a clause.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document's structure: every clause uses exactly
// one form, operators are known and carry the operand shape they expect,
// and directions are valid. Path syntax and schema resolution are left
// to Spec and compilation.
func (d *Document) Validate() error {
	if d.From == "" {
		return fmt.Errorf("from is required")
	}
	for i := range d.Where {
		if err := d.Where[i].validate(fmt.Sprintf("where[%d]", i), true); err != nil {
			return err
		}
	}
	for i, rel := range d.Fetch {
		if rel == "" {
			return fmt.Errorf("fetch[%d]: relationship path is required", i)
		}
	}
	for i, p := range d.GroupBy {
		if p == "" {
			return fmt.Errorf("group_by[%d]: column path is required", i)
		}
	}
	for i, o := range d.OrderBy {
		if o.By == "" {
			return fmt.Errorf("order_by[%d]: by is required", i)
		}
		if o.Dir != "" && o.Dir != "asc" && o.Dir != "desc" {
			return fmt.Errorf("order_by[%d]: unknown direction %q", i, o.Dir)
		}
	}
	return nil
}

func (c *Clause) validate(at string, top bool) error {
	arms := 0
	if c.And != nil {
		arms++
	}
	if c.Or != nil {
		arms++
	}
	if c.Join != nil {
		arms++
	}
	if c.Column != "" {
		arms++
	}
	if arms == 0 {
		if c.Op != "" {
			return fmt.Errorf("%s: op %q without a column", at, c.Op)
		}
		return fmt.Errorf("%s: empty clause; use and, or, join or column", at)
	}
	if arms > 1 {
		return fmt.Errorf("%s: clause mixes forms; use exactly one of and, or, join, column", at)
	}

	switch {
	case c.And != nil:
		if err := c.noConditionFields(at); err != nil {
			return err
		}
		return validateAll(c.And, at+".and")
	case c.Or != nil:
		if err := c.noConditionFields(at); err != nil {
			return err
		}
		return validateAll(c.Or, at+".or")
	case c.Join != nil:
		if err := c.noConditionFields(at); err != nil {
			return err
		}
		if c.Join.Rel == "" {
			return fmt.Errorf("%s.join: rel is required", at)
		}
		return validateAll(c.Join.Where, at+".join.where")
	default:
		if top {
			return fmt.Errorf("%s: bare column clause at the top level; wrap it in and, or or join", at)
		}
		return c.validateCondition(at)
	}
}

func validateAll(cs []Clause, at string) error {
	for i := range cs {
		if err := cs[i].validate(fmt.Sprintf("%s[%d]", at, i), false); err != nil {
			return err
		}
	}
	return nil
}

// noConditionFields rejects condition fields on a logical clause.
func (c *Clause) noConditionFields(at string) error {
	if c.Op != "" || c.Value != nil || c.Values != nil || c.Low != nil || c.High != nil || c.Ref != "" {
		return fmt.Errorf("%s: condition fields on a logical clause", at)
	}
	return nil
}

func (c *Clause) validateCondition(at string) error {
	if c.Op == "" {
		return fmt.Errorf("%s: op is required", at)
	}
	form, ok := opForms[c.Op]
	if !ok {
		return fmt.Errorf("%s: unknown op %q", at, c.Op)
	}

	switch form {
	case formNone:
		if c.Value != nil || c.Values != nil || c.Low != nil || c.High != nil || c.Ref != "" {
			return fmt.Errorf("%s: op %q takes no operand", at, c.Op)
		}
	case formScalar:
		if c.Values != nil || c.Low != nil || c.High != nil {
			return fmt.Errorf("%s: op %q takes a single value or ref", at, c.Op)
		}
		if c.Value != nil && c.Ref != "" {
			return fmt.Errorf("%s: op %q takes value or ref, not both", at, c.Op)
		}
	case formPattern:
		if c.Values != nil || c.Low != nil || c.High != nil || c.Ref != "" {
			return fmt.Errorf("%s: op %q takes a string pattern", at, c.Op)
		}
		if c.Value != nil {
			if _, ok := c.Value.(string); !ok {
				return fmt.Errorf("%s: op %q pattern must be a string, got %T", at, c.Op, c.Value)
			}
		}
	case formSet:
		if c.Value != nil || c.Low != nil || c.High != nil || c.Ref != "" {
			return fmt.Errorf("%s: op %q takes a values list", at, c.Op)
		}
	case formRange:
		if c.Value != nil || c.Values != nil || c.Ref != "" {
			return fmt.Errorf("%s: op %q takes low and high", at, c.Op)
		}
		if c.Low == nil || c.High == nil {
			return fmt.Errorf("%s: op %q needs both low and high", at, c.Op)
		}
	}
	return nil
}

// Spec assembles the document into a specification through the builder
// DSL. The document is validated first, so a hand-constructed Document
// gets the same checks as a parsed one; path syntax errors surface from
// the builder.
func (d *Document) Spec() (*sift.Spec, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return sift.New(func(q *sift.Root) {
		if d.Distinct {
			q.Distinct()
		}
		for i := range d.Where {
			applyTop(q, &d.Where[i])
		}
		for _, rel := range d.Fetch {
			q.Fetch(rel)
		}
		if len(d.GroupBy) > 0 {
			q.GroupBy(d.GroupBy...)
		}
		for _, o := range d.OrderBy {
			dir := sift.Asc
			if o.Dir == "desc" {
				dir = sift.Desc
			}
			q.OrderBy(o.By, dir)
		}
	})
}

func applyTop(q *sift.Root, c *Clause) {
	switch {
	case c.And != nil:
		q.And(func(s *sift.Scope) { applyAll(s, c.And) })
	case c.Or != nil:
		q.Or(func(s *sift.Scope) { applyAll(s, c.Or) })
	case c.Join != nil:
		q.Join(c.Join.Rel, func(s *sift.Scope) { applyAll(s, c.Join.Where) })
	}
}

func applyAll(s *sift.Scope, cs []Clause) {
	for i := range cs {
		applyClause(s, &cs[i])
	}
}

func applyClause(s *sift.Scope, c *Clause) {
	switch {
	case c.And != nil:
		s.And(func(s *sift.Scope) { applyAll(s, c.And) })
	case c.Or != nil:
		s.Or(func(s *sift.Scope) { applyAll(s, c.Or) })
	case c.Join != nil:
		s.Join(c.Join.Rel, func(s *sift.Scope) { applyAll(s, c.Join.Where) })
	default:
		c.applyCondition(s)
	}
}

func (c *Clause) applyCondition(s *sift.Scope) {
	col := s.Column(c.Column)
	switch c.Op {
	case "eq":
		col.Eq(c.operand())
	case "not-eq":
		col.NotEq(c.operand())
	case "is-null":
		col.IsNull()
	case "not-null":
		col.NotNull()
	case "like":
		col.Like(c.pattern())
	case "not-like":
		col.NotLike(c.pattern())
	case "ilike":
		col.ILike(c.pattern())
	case "not-ilike":
		col.NotILike(c.pattern())
	case "in":
		col.In(c.Values...)
	case "between":
		col.Between(c.Low, c.High)
	case "gt":
		col.Gt(c.operand())
	case "gte":
		col.Gte(c.operand())
	case "lt":
		col.Lt(c.operand())
	case "lte":
		col.Lte(c.operand())
	case "is-empty":
		col.IsEmpty()
	case "not-empty":
		col.IsNotEmpty()
	case "is-true":
		col.IsTrue()
	case "is-false":
		col.IsFalse()
	}
}

// operand returns the scalar right-hand side: a column reference when ref
// is set, the literal value otherwise.
func (c *Clause) operand() any {
	if c.Ref != "" {
		return sift.Col(c.Ref)
	}
	return c.Value
}

// pattern returns the pattern operand; a missing value becomes the blank
// pattern, which the compiler omits.
func (c *Clause) pattern() string {
	s, _ := c.Value.(string)
	return s
}
