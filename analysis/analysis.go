// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package analysis provides read-only extraction passes over
// expressions and collections of expressions: which coefficients and
// arguments a form depends on, which subtrees repeat, and whether an
// expression satisfies the outbound contract of a finished integrand
// (scalar, no free indices).
package analysis

import (
	"fmt"
	"sort"

	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/sig"
)

// Source is anything that exposes a list of expressions: an Integral
// exposes its integrand, a Form the integrands of all its integrals.
type Source interface {
	Expressions() []expr.Expression
}

func expressionsOf(x interface{}) []expr.Expression {
	switch v := x.(type) {
	case expr.Expression:
		return []expr.Expression{v}
	case Source:
		return v.Expressions()
	}
	panic(fmt.Sprintf("analysis: unsupported source type %T", x))
}

// Arguments returns the distinct arguments in x, sorted by number and
// then by mixed-space part. x is an expr.Expression or a Source.
func Arguments(x interface{}) []*expr.Argument {
	seen := map[*expr.Argument]bool{}
	out := []*expr.Argument(nil)
	for _, e := range expressionsOf(x) {
		expr.Walk(e, func(n expr.Expression) {
			if a, ok := n.(*expr.Argument); ok && !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Part < out[j].Part
	})
	return out
}

// Coefficients returns the distinct coefficients in x, sorted by count.
func Coefficients(x interface{}) []*expr.Coefficient {
	seen := map[*expr.Coefficient]bool{}
	out := []*expr.Coefficient(nil)
	for _, e := range expressionsOf(x) {
		expr.Walk(e, func(n expr.Expression) {
			if c, ok := n.(*expr.Coefficient); ok && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count < out[j].Count })
	return out
}

// Terminals returns the distinct terminal nodes in x, in first-visit
// post-order.
func Terminals(x interface{}) []expr.Expression {
	seen := map[expr.Expression]bool{}
	out := []expr.Expression(nil)
	for _, e := range expressionsOf(x) {
		expr.Walk(e, func(n expr.Expression) {
			if expr.IsTerminal(n) && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		})
	}
	return out
}

// Duplications returns one representative per expression structure that
// occurs more than once in x, in first-visit order. Structures are
// compared by signature, so separately constructed equal subtrees
// count as duplicates.
func Duplications(x interface{}) []expr.Expression {
	counts := map[sig.Signature]int{}
	first := map[sig.Signature]expr.Expression{}
	order := []sig.Signature(nil)
	for _, e := range expressionsOf(x) {
		expr.Walk(e, func(n expr.Expression) {
			s := sig.Of(n)
			counts[s]++
			if counts[s] == 1 {
				first[s] = n
				order = append(order, s)
			}
		})
	}
	out := []expr.Expression(nil)
	for _, s := range order {
		if counts[s] > 1 {
			out = append(out, first[s])
		}
	}
	return out
}

// ContainsCoefficient reports whether c occurs in e, compared by count.
func ContainsCoefficient(e expr.Expression, c *expr.Coefficient) bool {
	found := false
	expr.Walk(e, func(n expr.Expression) {
		if o, ok := n.(*expr.Coefficient); ok && o.Count == c.Count {
			found = true
		}
	})
	return found
}

// Validate checks the outbound contract for finished integrands: the
// expression must be scalar-valued and carry no unresolved free
// indices. x is an expr.Expression or a Source.
func Validate(x interface{}) err.Error {
	for _, e := range expressionsOf(x) {
		if e.Shape().Rank() != 0 {
			return err.ShapeMismatchError{
				Kind:   expr.Kind(e),
				Shapes: [][]int{e.Shape()},
				Detail: "a finished integrand must be scalar-valued",
			}
		}
		if free := e.FreeIndices(); len(free) > 0 {
			return err.UnresolvedIndexError{
				Kind:    expr.Kind(e),
				Indices: free,
				Detail:  "free indices remain in a finished integrand",
			}
		}
	}
	return nil
}
