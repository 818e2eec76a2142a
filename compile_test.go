package sift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSpec(t *testing.T, build func(*Root)) *Spec {
	t.Helper()
	spec, err := New(build)
	require.NoError(t, err)
	return spec
}

func TestCompile_FullTree(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("age").NotNull()
			s.Or(func(s *Scope) {
				s.Column("name").Like("John%")
				s.Column("name").Like("Alice%")
			})
		})
		q.Join("department", func(s *Scope) {
			s.Column("name").Eq("Engineering")
		})
		q.Fetch("department")
		q.OrderBy("age", Desc)
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t,
		"and(and(not-null(age),or(like(name,John%),like(name,Alice%))),eq(department.name,Engineering))",
		f.where)
	assert.Equal(t, []string{"department"}, f.joins)
	assert.Equal(t, []string{"department"}, f.fetches)
	assert.Equal(t, []string{"age desc"}, f.orders)
	assert.False(t, f.distinct)
}

func TestCompile_NoFilterMatchesEverything(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.False(t, f.whereSet, "Where must not be called for an empty filter")
	assert.Empty(t, f.joins)
}

func TestCompile_OmittedConditionsVanish(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("name").Eq(nil)
			s.Column("name").NotEq(nil)
			s.Column("name").Like("")
			s.Column("name").NotLike("   ")
			s.Column("name").ILike("\t\n")
			s.Column("status").In()
			s.Column("age").Gte(18)
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	// The single survivor collapses out of its And group.
	assert.Equal(t, "gte(age,18)", f.where)
}

func TestCompile_OmissionEquivalence(t *testing.T) {
	// A spec with omitted conditions compiles identically to one that
	// never mentioned them.
	withOmitted := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("nickname").Eq(nil)
			s.Column("age").Gt(21)
			s.Column("department.name").Like(" ")
		})
	})
	without := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("age").Gt(21)
		})
	})

	a, b := &fakeQuery{}, &fakeQuery{}
	require.NoError(t, withOmitted.Compile(a.target()))
	require.NoError(t, without.Compile(b.target()))

	assert.Equal(t, b.where, a.where)
	assert.Equal(t, b.joins, a.joins)
}

func TestCompile_EmptyGroupsElide(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {})
		q.Or(func(s *Scope) {
			s.And(func(s *Scope) {})
		})
		q.Join("department", func(s *Scope) {
			s.Column("name").Eq(nil)
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.False(t, f.whereSet)
	assert.Empty(t, f.joins, "a join block with no surviving conditions must not create a join")
}

func TestCompile_SingleChildCollapses(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Or(func(s *Scope) {
			s.Column("name").Eq("x")
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, "eq(name,x)", f.where, "no or() wrapper around a single survivor")
}

func TestCompile_JoinDedup(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("department.name").Eq("Engineering")
			s.Column("department.id").NotNull()
			s.Column("department.manager.name").Like("A%")
			s.Column("department.manager.id").NotNull()
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department", "department.manager"}, f.joins,
		"each distinct path prefix resolves to exactly one join")
}

func TestCompile_JoinBlockPrefixesPaths(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Join("department", func(s *Scope) {
			s.Column("name").Eq("Engineering")
			s.Join("manager", func(s *Scope) {
				s.Column("name").Like("A%")
			})
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t,
		"and(eq(department.name,Engineering),like(department.manager.name,A%))",
		f.where)
	assert.Equal(t, []string{"department", "department.manager"}, f.joins)
}

func TestCompile_JoinBlockAndDottedPathShareJoin(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("department.name").NotNull()
		})
		q.Join("department", func(s *Scope) {
			s.Column("id").NotNull()
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department"}, f.joins)
}

func TestCompile_FetchChain(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Fetch("department.manager")
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department", "department.manager"}, f.fetches,
		"every relationship along a fetch path is eager-loaded")
	assert.Empty(t, f.where)
}

func TestCompile_FetchDedup(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Fetch("department")
		q.Fetch("department.manager")
		q.Fetch("department")
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department", "department.manager"}, f.fetches)
	assert.Equal(t, []string{"department", "department.manager"}, f.joins)
}

func TestCompile_JoinThenFetchSharesJoin(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Join("department", func(s *Scope) {
			s.Column("name").Eq("Engineering")
		})
		q.Fetch("department")
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department"}, f.joins, "fetch reuses the filter's join")
	assert.Equal(t, []string{"department"}, f.fetches)
}

func TestCompile_FetchSkippedOnScalar(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Fetch("department")
		q.And(func(s *Scope) {
			s.Column("age").Gte(18)
		})
	})

	f := &fakeQuery{scalar: true}
	require.NoError(t, spec.Compile(f.target()))

	assert.Empty(t, f.fetches, "scalar queries skip fetch directives")
	assert.Empty(t, f.joins)
	assert.Equal(t, "gte(age,18)", f.where)
}

func TestCompile_ColumnReference(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("name").Eq(Col("manager.name"))
			s.Column("manager.id").NotNull()
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, "and(eq(name,col(manager.name)),not-null(manager.id))", f.where)
	assert.Equal(t, []string{"manager"}, f.joins,
		"reference operands resolve through the same join cache")
}

func TestCompile_ColumnReferenceInJoinScope(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Join("department", func(s *Scope) {
			s.Column("name").NotEq(Col("code"))
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, "not-eq(department.name,col(department.code))", f.where,
		"reference paths are relative to the enclosing join scope")
}

func TestCompile_GroupAndOrderResolveJoins(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.GroupBy("department.id")
		q.OrderBy("department.name", Asc)
		q.OrderBy("age", Desc)
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t, []string{"department"}, f.joins)
	assert.Equal(t, []string{"department.id"}, f.groups)
	assert.Equal(t, []string{"department.name asc", "age desc"}, f.orders)
}

func TestCompile_Distinct(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.Distinct()
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))
	assert.True(t, f.distinct)
}

func TestCompile_FreshCachePerCompilation(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("department.name").Eq("Engineering")
		})
	})

	a, b := &fakeQuery{}, &fakeQuery{}
	require.NoError(t, spec.Compile(a.target()))
	require.NoError(t, spec.Compile(b.target()))

	assert.Equal(t, []string{"department"}, a.joins)
	assert.Equal(t, []string{"department"}, b.joins,
		"the second compilation resolves its own joins from scratch")
}

func TestCompile_UnknownRelationship(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("bogus.name").Eq("x")
		})
	})

	f := &fakeQuery{badRel: "bogus"}
	err := spec.Compile(f.target())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `join "bogus"`)
	assert.Contains(t, err.Error(), `eq on "bogus.name"`)
}

func TestCompile_UnknownAttribute(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("salry").Gt(100)
		})
	})

	f := &fakeQuery{badAttr: "salry"}
	err := spec.Compile(f.target())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `gt on "salry"`)
	assert.Contains(t, err.Error(), `no attribute "salry"`)
}

func TestCompile_RequiredOperandErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Root)
		want  string
	}{
		{
			name: "gt nil",
			build: func(q *Root) {
				q.And(func(s *Scope) { s.Column("age").Gt(nil) })
			},
			want: `gt on "age" requires a value`,
		},
		{
			name: "lte nil",
			build: func(q *Root) {
				q.And(func(s *Scope) { s.Column("age").Lte(nil) })
			},
			want: `lte on "age" requires a value`,
		},
		{
			name: "between open low end",
			build: func(q *Root) {
				q.And(func(s *Scope) { s.Column("age").Between(nil, 40) })
			},
			want: "both range ends are required",
		},
		{
			name: "between open high end",
			build: func(q *Root) {
				q.And(func(s *Scope) { s.Column("age").Between(25, nil) })
			},
			want: "both range ends are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := mustSpec(t, tt.build)
			err := spec.Compile((&fakeQuery{}).target())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_IncompleteTarget(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {})

	err := spec.Compile(Target{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete target")
}

func TestCompile_AllOperators(t *testing.T) {
	spec := mustSpec(t, func(q *Root) {
		q.And(func(s *Scope) {
			s.Column("a").Eq(1)
			s.Column("b").NotEq(2)
			s.Column("c").IsNull()
			s.Column("d").NotNull()
			s.Column("e").Like("x%")
			s.Column("f").NotLike("y%")
			s.Column("g").ILike("z%")
			s.Column("h").NotILike("w%")
			s.Column("i").In(1, 2)
			s.Column("j").Between(1, 9)
			s.Column("k").Gt(1)
			s.Column("l").Gte(1)
			s.Column("m").Lt(9)
			s.Column("n").Lte(9)
			s.Column("o").IsEmpty()
			s.Column("p").IsNotEmpty()
			s.Column("q").IsTrue()
			s.Column("r").IsFalse()
		})
	})

	f := &fakeQuery{}
	require.NoError(t, spec.Compile(f.target()))

	assert.Equal(t,
		"and(eq(a,1),not-eq(b,2),is-null(c),not-null(d),like(e,x%),not-like(f,y%),"+
			"ilike(g,z%),not-ilike(h,w%),in(i,[1 2]),between(j,1,9),gt(k,1),gte(l,1),"+
			"lt(m,9),lte(n,9),is-empty(o),not-empty(p),is-true(q),is-false(r))",
		f.where)
}
