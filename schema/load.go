package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// LoadError is a schema-file problem with source position when one is
// known.
type LoadError struct {
	Entity  string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Entity != "" {
		msg = fmt.Sprintf("entity %s: %s", e.Entity, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

// cueError pulls position info out of CUE's own error values.
func cueError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// Load builds a registry from path, either a single .cue file or a
// directory of them. A schema file holds entities under a top-level
// entity block:
//
//	entity: employees: {
//		key: "id"
//		attrs: [
//			{name: "id", type: "int"},
//			{name: "name", type: "text"},
//		]
//		rels: [
//			{name: "department", to: "departments", kind: "one", foreignKey: "department_id"},
//		]
//	}
//
// Entities register sorted by name, so generated DDL is stable no matter
// how they are spread across files.
func Load(path string) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.cue"))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("schema: no .cue files in %s", path)
		}
		sort.Strings(files)
	}

	ctx := cuecontext.New()
	var entities []*Entity
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		parsed, err := parseFile(ctx, file, data)
		if err != nil {
			return nil, err
		}
		entities = append(entities, parsed...)
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return NewRegistry(entities...)
}

func parseFile(ctx *cue.Context, filename string, data []byte) ([]*Entity, error) {
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	entVal := v.LookupPath(cue.ParsePath("entity"))
	if !entVal.Exists() {
		return nil, &LoadError{Message: "no entity block", Pos: v.Pos()}
	}

	iter, err := entVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	var out []*Entity
	for iter.Next() {
		e, err := parseEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, &LoadError{Message: "entity block is empty", Pos: entVal.Pos()}
	}
	return out, nil
}

type rawAttr struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Type   string `json:"type"`
}

type rawRel struct {
	Name       string `json:"name"`
	To         string `json:"to"`
	Kind       string `json:"kind"`
	ForeignKey string `json:"foreignKey"`
}

type rawEntity struct {
	Table string    `json:"table"`
	Key   string    `json:"key"`
	Attrs []rawAttr `json:"attrs"`
	Rels  []rawRel  `json:"rels"`
}

func parseEntity(name string, v cue.Value) (*Entity, error) {
	var raw rawEntity
	if err := v.Decode(&raw); err != nil {
		return nil, cueError(err)
	}

	e := &Entity{Name: name, Table: raw.Table, Key: raw.Key}
	for _, a := range raw.Attrs {
		typ, err := ParseAttrType(a.Type)
		if err != nil {
			return nil, &LoadError{
				Entity:  name,
				Message: fmt.Sprintf("attribute %q: %v", a.Name, err),
				Pos:     v.Pos(),
			}
		}
		e.Attrs = append(e.Attrs, Attr{Name: a.Name, Column: a.Column, Type: typ})
	}
	for _, r := range raw.Rels {
		var kind RelKind
		switch r.Kind {
		case "one":
			kind = ToOne
		case "many":
			kind = ToMany
		default:
			return nil, &LoadError{
				Entity:  name,
				Message: fmt.Sprintf("relationship %q: unknown kind %q", r.Name, r.Kind),
				Pos:     v.Pos(),
			}
		}
		e.Rels = append(e.Rels, Rel{Name: r.Name, Target: r.To, Kind: kind, ForeignKey: r.ForeignKey})
	}
	return e, nil
}
