// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package simplify rewrites expressions to a normal form using
// algebraic identities: identity and annihilator elimination, constant
// folding, collection of repeated terms, and recovery of compact
// tensor-algebra operators from index notation. One bottom-up pass
// suffices because operands are normalized before their parents.
//
// Simplification never changes the shape or the free-index set of the
// expression it is applied to.
package simplify

import (
	"math"

	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/sig"
)

// Apply returns the normal form of e.
func Apply(e expr.Expression) (expr.Expression, err.Error) {
	return expr.Transform(e, rewrite)
}

func rewrite(e expr.Expression) (expr.Expression, err.Error) {
	switch x := e.(type) {

	case *expr.Sum:
		return rewriteSum(x)
	case *expr.Product:
		return rewriteProduct(x)
	case *expr.Division:
		return rewriteDivision(x)
	case *expr.Power:
		return rewritePower(x)
	case *expr.Sqrt:
		if expr.IsZero(x.A) {
			return expr.NewScalarValue(0), nil
		}
		if v, ok := scalar(x.A); ok && v >= 0 {
			return expr.NewScalarValue(math.Sqrt(v)), nil
		}
		return e, nil
	case *expr.Abs:
		if v, ok := scalar(x.A); ok {
			return expr.NewScalarValue(math.Abs(v)), nil
		}
		if inner, ok := x.A.(*expr.Abs); ok {
			return inner, nil
		}
		return e, nil

	case *expr.Inner:
		if expr.IsZero(x.A) || expr.IsZero(x.B) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Outer:
		if expr.IsZero(x.A) || expr.IsZero(x.B) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Dot:
		if expr.IsZero(x.A) || expr.IsZero(x.B) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Cross:
		if expr.IsZero(x.A) || expr.IsZero(x.B) {
			return expr.ZeroLike(e), nil
		}
		return e, nil

	case *expr.Transposed:
		if expr.IsZero(x.A) {
			return expr.ZeroLike(e), nil
		}
		if inner, ok := x.A.(*expr.Transposed); ok {
			return inner.A, nil
		}
		if id, ok := x.A.(*expr.Identity); ok {
			return id, nil
		}
		return e, nil
	case *expr.Trace:
		if expr.IsZero(x.A) {
			return expr.ZeroLike(e), nil
		}
		if id, ok := x.A.(*expr.Identity); ok {
			return expr.NewScalarValue(float64(id.Dim)), nil
		}
		return e, nil
	case *expr.Determinant:
		if expr.IsZero(x.A) {
			return expr.NewScalarValue(0), nil
		}
		if _, ok := x.A.(*expr.Identity); ok {
			return expr.NewScalarValue(1), nil
		}
		return e, nil

	case *expr.Indexed:
		return rewriteIndexed(x)
	case *expr.IndexSum:
		return rewriteIndexSum(x)
	case *expr.ComponentTensor:
		return rewriteComponentTensor(x)

	case *expr.Grad:
		if constantTerminal(x.A) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Div:
		if constantTerminal(x.A) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Curl:
		if constantTerminal(x.A) {
			return expr.ZeroLike(e), nil
		}
		return e, nil

	case *expr.Restricted:
		if constantTerminal(x.A) {
			return x.A, nil
		}
		return e, nil
	case *expr.Jump:
		if constantTerminal(x.A) {
			return expr.ZeroLike(e), nil
		}
		return e, nil
	case *expr.Avg:
		if constantTerminal(x.A) {
			return x.A, nil
		}
		return e, nil

	case *expr.Conditional:
		return rewriteConditional(x)
	}
	return e, nil
}

// constantTerminal reports whether e is a literal constant terminal,
// for which restriction is redundant and spatial derivatives vanish.
func constantTerminal(e expr.Expression) bool {
	switch e.(type) {
	case *expr.ScalarValue, *expr.Zero, *expr.Identity:
		return true
	}
	return false
}

func scalar(e expr.Expression) (float64, bool) {
	if s, ok := e.(*expr.ScalarValue); ok {
		return s.Value, true
	}
	return 0, false
}

func rewriteSum(x *expr.Sum) (expr.Expression, err.Error) {
	ops := x.Operands()
	constant := 0.0
	hasConstant := false
	terms := []expr.Expression(nil)
	for _, op := range ops {
		if v, ok := scalar(op); ok {
			constant += v
			hasConstant = true
			continue
		}
		if expr.IsZero(op) {
			continue
		}
		terms = append(terms, op)
	}
	// Collect structurally equal terms into scalar multiples. Tensor
	// terms stay as repeated summands: the scalar product kind cannot
	// scale them.
	if x.Shape().Rank() == 0 {
		type group struct {
			term  expr.Expression
			count int
		}
		order := []sig.Signature(nil)
		groups := map[sig.Signature]*group{}
		for _, t := range terms {
			s := sig.Of(t)
			if g, ok := groups[s]; ok {
				g.count++
				continue
			}
			groups[s] = &group{t, 1}
			order = append(order, s)
		}
		collected := make([]expr.Expression, 0, len(order))
		for _, s := range order {
			g := groups[s]
			if g.count == 1 {
				collected = append(collected, g.term)
				continue
			}
			p, er := expr.NewProduct(expr.NewScalarValue(float64(g.count)), g.term)
			if er != nil {
				return nil, er
			}
			collected = append(collected, p)
		}
		terms = collected
	}
	if hasConstant && constant != 0 {
		terms = append([]expr.Expression{expr.NewScalarValue(constant)}, terms...)
	}
	switch len(terms) {
	case 0:
		return expr.ZeroLike(x), nil
	case 1:
		return terms[0], nil
	}
	return expr.NewSum(terms...)
}

func rewriteProduct(x *expr.Product) (expr.Expression, err.Error) {
	constant := 1.0
	factors := []expr.Expression(nil)
	for _, op := range x.Operands() {
		if expr.IsZero(op) {
			return expr.ZeroLike(x), nil
		}
		if v, ok := scalar(op); ok {
			constant *= v
			continue
		}
		factors = append(factors, op)
	}
	if constant == 0 {
		return expr.ZeroLike(x), nil
	}
	if len(factors) == 0 {
		return expr.NewScalarValue(constant), nil
	}
	if constant != 1 {
		factors = append([]expr.Expression{expr.NewScalarValue(constant)}, factors...)
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	if len(factors) == len(x.Operands()) {
		return x, nil
	}
	// Rebuild in place: contracted labels keep their enclosing binders.
	return expr.Reconstruct(x, factors)
}

func rewriteDivision(x *expr.Division) (expr.Expression, err.Error) {
	if expr.IsZero(x.A) {
		return expr.ZeroLike(x), nil
	}
	if expr.IsScalarValue(x.B, 1) {
		return x.A, nil
	}
	if a, ok := scalar(x.A); ok {
		if b, ok := scalar(x.B); ok && b != 0 {
			return expr.NewScalarValue(a / b), nil
		}
	}
	return x, nil
}

func rewritePower(x *expr.Power) (expr.Expression, err.Error) {
	if expr.IsScalarValue(x.Exponent, 0) {
		return expr.NewScalarValue(1), nil
	}
	if expr.IsScalarValue(x.Exponent, 1) {
		return x.Base, nil
	}
	if k, ok := scalar(x.Exponent); ok {
		if expr.IsZero(x.Base) && k > 0 {
			return expr.NewScalarValue(0), nil
		}
		if b, ok := scalar(x.Base); ok {
			return expr.NewScalarValue(math.Pow(b, k)), nil
		}
	}
	return x, nil
}

func rewriteIndexed(x *expr.Indexed) (expr.Expression, err.Error) {
	if expr.IsZero(x.A) {
		return expr.ZeroLike(x), nil
	}
	ct, ok := x.A.(*expr.ComponentTensor)
	if !ok {
		return x, nil
	}
	// as_tensor(e, (i,j))[k,l] cancels to e with i,j relabeled to k,l.
	mapping := map[int]expr.IndexEntry{}
	identity := true
	for k, ix := range ct.Indices {
		entry := x.Indices[k]
		mapping[ix.Label] = entry
		if j, ok := entry.(expr.Index); !ok || j.Label != ix.Label {
			identity = false
		}
	}
	if identity {
		return ct.A, nil
	}
	for _, entry := range x.Indices {
		if j, ok := entry.(expr.Index); ok && labelOccurs(ct.A, j.Label) {
			// Relabeling would capture an index already used inside
			// the base; leave the pair alone.
			return x, nil
		}
	}
	return relabel(ct.A, mapping)
}

func rewriteIndexSum(x *expr.IndexSum) (expr.Expression, err.Error) {
	if expr.IsZero(x.Summand) {
		return expr.ZeroLike(x), nil
	}
	// Recover dot products from contracted index notation:
	// sum_i a[i]*b[i] over rank-1 index-free bases.
	p, ok := x.Summand.(*expr.Product)
	if !ok || len(p.Operands()) != 2 {
		return x, nil
	}
	lhs, lok := p.Operands()[0].(*expr.Indexed)
	rhs, rok := p.Operands()[1].(*expr.Indexed)
	if !lok || !rok {
		return x, nil
	}
	if !singleIndexOn(lhs, x.Index.Label) || !singleIndexOn(rhs, x.Index.Label) {
		return x, nil
	}
	if len(x.FreeIndices()) != 0 {
		return x, nil
	}
	return expr.NewDot(lhs.A, rhs.A)
}

func singleIndexOn(ix *expr.Indexed, label int) bool {
	if ix.A.Shape().Rank() != 1 || len(ix.A.FreeIndices()) != 0 {
		return false
	}
	if len(ix.Indices) != 1 {
		return false
	}
	j, ok := ix.Indices[0].(expr.Index)
	return ok && j.Label == label
}

func rewriteComponentTensor(x *expr.ComponentTensor) (expr.Expression, err.Error) {
	if expr.IsZero(x.A) {
		return expr.ZeroLike(x), nil
	}
	ix, ok := x.A.(*expr.Indexed)
	if !ok || len(ix.Indices) != len(x.Indices) {
		return x, nil
	}
	// as_tensor(A[i,j], (i,j)) cancels to A.
	for k, entry := range ix.Indices {
		j, ok := entry.(expr.Index)
		if !ok || j.Label != x.Indices[k].Label {
			return x, nil
		}
	}
	if !ix.A.Shape().Equals(x.Shape()) {
		return x, nil
	}
	return ix.A, nil
}

func rewriteConditional(x *expr.Conditional) (expr.Expression, err.Error) {
	if sig.Equal(x.True, x.False) {
		return x.True, nil
	}
	cmp, ok := x.Cond.(*expr.Comparison)
	if !ok {
		return x, nil
	}
	a, aok := scalar(cmp.A)
	b, bok := scalar(cmp.B)
	if !aok || !bok {
		return x, nil
	}
	hold := false
	switch cmp.Op {
	case expr.EQ:
		hold = a == b
	case expr.NE:
		hold = a != b
	case expr.LT:
		hold = a < b
	case expr.LE:
		hold = a <= b
	case expr.GT:
		hold = a > b
	case expr.GE:
		hold = a >= b
	}
	if hold {
		return x.True, nil
	}
	return x.False, nil
}

// labelOccurs reports whether an index label appears anywhere in e,
// free or bound.
func labelOccurs(e expr.Expression, label int) bool {
	found := false
	expr.Walk(e, func(n expr.Expression) {
		switch x := n.(type) {
		case *expr.Indexed:
			for _, entry := range x.Indices {
				if j, ok := entry.(expr.Index); ok && j.Label == label {
					found = true
				}
			}
		case *expr.IndexSum:
			if x.Index.Label == label {
				found = true
			}
		case *expr.ComponentTensor:
			for _, j := range x.Indices {
				if j.Label == label {
					found = true
				}
			}
		case *expr.Zero:
			for _, l := range x.FreeIndices() {
				if l == label {
					found = true
				}
			}
		}
	})
	return found
}

// relabel substitutes free index labels in e according to mapping.
// Bound labels are untouched; Zero nodes rebuild their free-index
// sets, Indexed nodes their entry lists.
func relabel(e expr.Expression, mapping map[int]expr.IndexEntry) (expr.Expression, err.Error) {
	return expr.Transform(e, func(n expr.Expression) (expr.Expression, err.Error) {
		switch x := n.(type) {
		case *expr.Indexed:
			changed := false
			mi := make(expr.MultiIndex, len(x.Indices), len(x.Indices))
			for k, entry := range x.Indices {
				mi[k] = entry
				if j, ok := entry.(expr.Index); ok {
					if to, ok := mapping[j.Label]; ok {
						mi[k] = to
						changed = true
					}
				}
			}
			if !changed {
				return n, nil
			}
			return expr.NewIndexed(x.A, mi)
		case *expr.Zero:
			free, dims := x.FreeIndices(), x.IndexDimensions()
			changed := false
			nf := make([]int, 0, len(free))
			nd := make([]int, 0, len(free))
			for k, label := range free {
				if to, ok := mapping[label]; ok {
					changed = true
					if j, ok := to.(expr.Index); ok {
						nf = append(nf, j.Label)
						nd = append(nd, dims[k])
					}
					// A fixed target drops the label entirely.
					continue
				}
				nf = append(nf, label)
				nd = append(nd, dims[k])
			}
			if !changed {
				return n, nil
			}
			z, er := expr.NewZero(x.Shape(), nf, nd)
			if er != nil {
				return nil, er
			}
			return z, nil
		}
		return n, nil
	})
}
