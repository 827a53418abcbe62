// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package deriv

import (
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
)

// ExpandDerivatives resolves pending coefficient derivatives by applying
// the Gâteaux rules, and pushes gradient operators down through the
// algebra until they rest on terminals. Gradients of compound tensor
// operators (inner, dot, determinant, ...) are left in place; run
// compound expansion first to eliminate those.
func ExpandDerivatives(e expr.Expression) (expr.Expression, err.Error) {
	return expr.Transform(e, func(n expr.Expression) (expr.Expression, err.Error) {
		switch x := n.(type) {
		case *expr.CoefficientDerivative:
			return Apply(x.Base, x.Coefficient, x.Direction)
		case *expr.Grad:
			return expandGrad(x)
		}
		return n, nil
	})
}

// gradOf builds the gradient of a over proto's domain dimension and
// expands it recursively. proto supplies the dimension when a no longer
// carries a domain, e.g. after operands were rewritten to constants.
func gradOf(a expr.Expression, proto *expr.Grad) (expr.Expression, err.Error) {
	r, er := expr.Reconstruct(proto, []expr.Expression{a})
	if er != nil {
		return nil, er
	}
	if g, ok := r.(*expr.Grad); ok {
		return expandGrad(g)
	}
	return r, nil
}

// expandGrad rewrites a single gradient node. Its operand has already
// been expanded by the enclosing bottom-up pass.
func expandGrad(g *expr.Grad) (expr.Expression, err.Error) {
	switch x := g.A.(type) {

	case *expr.ScalarValue, *expr.Zero, *expr.Identity, *expr.CellVolume:
		return expr.ZeroLike(g), nil

	case *expr.Argument, *expr.Coefficient, *expr.SpatialCoordinate,
		*expr.FacetNormal, *expr.Grad:
		// Terminals keep their gradient, as do iterated gradients.
		return g, nil

	case *expr.Sum:
		ops := x.Operands()
		terms := make([]expr.Expression, len(ops), len(ops))
		for i, op := range ops {
			t, er := gradOf(op, g)
			if er != nil {
				return nil, er
			}
			terms[i] = t
		}
		return expr.NewSum(terms...)

	case *expr.Product:
		return gradProduct(g, x)

	case *expr.Division:
		return gradDivision(g, x)

	case *expr.Indexed:
		j := expr.NewIndex()
		ga, er := gradOf(x.A, g)
		if er != nil {
			return nil, er
		}
		mi := make(expr.MultiIndex, len(x.Indices), len(x.Indices)+1)
		copy(mi, x.Indices)
		mi = append(mi, j)
		comp, er := expr.NewIndexed(ga, mi)
		if er != nil {
			return nil, er
		}
		return expr.NewComponentTensor(comp, j)

	case *expr.IndexSum:
		j := expr.NewIndex()
		gs, er := gradOf(x.Summand, g)
		if er != nil {
			return nil, er
		}
		comp, er := expr.NewIndexed(gs, expr.MultiIndex{j})
		if er != nil {
			return nil, er
		}
		inner, er := expr.NewIndexSum(comp, x.Index)
		if er != nil {
			return nil, er
		}
		return expr.NewComponentTensor(inner, j)

	case *expr.ComponentTensor:
		j := expr.NewIndex()
		gb, er := gradOf(x.A, g)
		if er != nil {
			return nil, er
		}
		comp, er := expr.NewIndexed(gb, expr.MultiIndex{j})
		if er != nil {
			return nil, er
		}
		is := make([]expr.Index, len(x.Indices), len(x.Indices)+1)
		copy(is, x.Indices)
		is = append(is, j)
		return expr.NewComponentTensor(comp, is...)

	case *expr.ListTensor:
		ops := x.Operands()
		entries := make([]expr.Expression, len(ops), len(ops))
		for i, op := range ops {
			t, er := gradOf(op, g)
			if er != nil {
				return nil, er
			}
			entries[i] = t
		}
		return expr.NewListTensor(entries...)

	case *expr.Restricted:
		ga, er := gradOf(x.A, g)
		if er != nil {
			return nil, er
		}
		return expr.NewRestricted(ga, x.Side)

	case *expr.Jump:
		// The jump of f is f|+ minus f|-, so its gradient is the jump of
		// the gradient, written out as restrictions.
		ga, er := gradOf(x.A, g)
		if er != nil {
			return nil, er
		}
		pos, er := expr.NewRestricted(ga, expr.PositiveSide)
		if er != nil {
			return nil, er
		}
		neg, er := expr.NewRestricted(ga, expr.NegativeSide)
		if er != nil {
			return nil, er
		}
		negated, er := scaleTensor(neg, -1)
		if er != nil {
			return nil, er
		}
		return expr.NewSum(pos, negated)

	case *expr.Avg:
		ga, er := gradOf(x.A, g)
		if er != nil {
			return nil, er
		}
		pos, er := expr.NewRestricted(ga, expr.PositiveSide)
		if er != nil {
			return nil, er
		}
		neg, er := expr.NewRestricted(ga, expr.NegativeSide)
		if er != nil {
			return nil, er
		}
		sum, er := expr.NewSum(pos, neg)
		if er != nil {
			return nil, er
		}
		return scaleTensor(sum, 0.5)

	case *expr.Conditional:
		gt, er := gradOf(x.True, g)
		if er != nil {
			return nil, er
		}
		gf, er := gradOf(x.False, g)
		if er != nil {
			return nil, er
		}
		return expr.NewConditional(x.Cond, gt, gf)
	}

	// Compound tensor operators and anything else stay under the
	// gradient until lowered.
	return g, nil
}

// gradProduct applies the Leibniz rule in component notation: the
// product kind is scalar-valued, its gradient a vector, so each term
// takes one factor's gradient component and is recollected over the new
// axis.
func gradProduct(g *expr.Grad, p *expr.Product) (expr.Expression, err.Error) {
	j := expr.NewIndex()
	ops := p.Operands()
	terms := make([]expr.Expression, len(ops), len(ops))
	for k := range ops {
		gk, er := gradOf(ops[k], g)
		if er != nil {
			return nil, er
		}
		comp, er := expr.NewIndexed(gk, expr.MultiIndex{j})
		if er != nil {
			return nil, er
		}
		newOps := make([]expr.Expression, len(ops), len(ops))
		copy(newOps, ops)
		newOps[k] = comp
		t, er := expr.Reconstruct(p, newOps)
		if er != nil {
			return nil, er
		}
		terms[k] = t
	}
	sum, er := expr.NewSum(terms...)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(sum, j)
}

// gradDivision: (a/b)'_j = a'_j/b - a b'_j/b^2, with b scalar and
// index-free by the division contract.
func gradDivision(g *expr.Grad, d *expr.Division) (expr.Expression, err.Error) {
	j := expr.NewIndex()
	ga, er := gradOf(d.A, g)
	if er != nil {
		return nil, er
	}
	gb, er := gradOf(d.B, g)
	if er != nil {
		return nil, er
	}
	gaj, er := expr.NewIndexed(ga, expr.MultiIndex{j})
	if er != nil {
		return nil, er
	}
	gbj, er := expr.NewIndexed(gb, expr.MultiIndex{j})
	if er != nil {
		return nil, er
	}
	left, er := expr.NewDivision(gaj, d.B)
	if er != nil {
		return nil, er
	}
	num, er := expr.NewProduct(expr.NewScalarValue(-1), d.A, gbj)
	if er != nil {
		return nil, er
	}
	den, er := expr.NewProduct(d.B, d.B)
	if er != nil {
		return nil, er
	}
	right, er := expr.NewDivision(num, den)
	if er != nil {
		return nil, er
	}
	sum, er := expr.NewSum(left, right)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(sum, j)
}
