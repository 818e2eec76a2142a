// Package sift builds declarative filter specifications and compiles
// them against a pluggable query backend.
//
// A specification is assembled once with New, as a tree of conditions,
// and/or groups, relationship joins and eager-fetch marks, plus the query
// shape: distinct, group-by and order-by. The result is immutable and
// holds no backend state, so one Spec can be compiled many times,
// concurrently, against independent queries.
//
//	spec, err := sift.New(func(q *sift.Root) {
//		q.And(func(s *sift.Scope) {
//			s.Column("age").NotNull()
//			s.Or(func(s *sift.Scope) {
//				s.Column("name").Like("John%")
//				s.Column("name").Like("Alice%")
//			})
//		})
//		q.Join("department", func(s *sift.Scope) {
//			s.Column("name").Eq("Engineering")
//		})
//		q.Fetch("department")
//		q.OrderBy("age", sift.Desc)
//	})
//
// Conditions are tolerant of absent input: eq and not-eq with a nil
// value, the pattern operators with a blank pattern, and in with an empty
// set all compile to nothing instead of erroring. Groups whose children
// all compile away are dropped, and a filter that vanishes entirely
// leaves the query unfiltered. That makes it safe to wire optional search
// form fields straight into a builder block.
//
// Dotted paths such as "department.manager.name" resolve relationship
// chains. Each distinct chain prefix becomes exactly one backend join per
// compilation, no matter how many conditions, group keys or sort keys
// traverse it. Joins are created lazily, on first use, so a Join block
// whose conditions are all omitted costs nothing.
//
// Compilation targets three small interfaces, Source, Criteria and
// Shape, bundled in a Target. The sqlgen package implements them over
// database/sql; other backends only need those interfaces.
package sift
