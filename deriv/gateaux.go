// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package deriv computes symbolic derivatives: the Gâteaux derivative
// of an expression with respect to a coefficient in a perturbation
// direction, and the expansion of spatial derivative operators down to
// terminals. Both produce unsimplified trees; callers run
// simplify.Apply on the result.
package deriv

import (
	"github.com/conpierce8/ufl/analysis"
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
)

// Apply returns the Gâteaux derivative of e with respect to coefficient
// c in the given direction. The direction must have c's shape.
func Apply(e expr.Expression, c *expr.Coefficient, direction expr.Expression) (expr.Expression, err.Error) {
	if !c.Shape().Equals(direction.Shape()) {
		return nil, err.ShapeMismatchError{
			Kind:   "coefficientDerivative",
			Shapes: [][]int{c.Shape(), direction.Shape()},
			Detail: "perturbation direction must have the coefficient's shape",
		}
	}
	g := &gateaux{c, direction, map[expr.Expression]expr.Expression{}}
	return g.d(e)
}

type gateaux struct {
	coeff     *expr.Coefficient
	direction expr.Expression
	memo      map[expr.Expression]expr.Expression
}

func (g *gateaux) d(e expr.Expression) (expr.Expression, err.Error) {
	if r, ok := g.memo[e]; ok {
		return r, nil
	}
	r, er := g.rule(e)
	if er != nil {
		return nil, er
	}
	g.memo[e] = r
	return r, nil
}

func (g *gateaux) rule(e expr.Expression) (expr.Expression, err.Error) {

	// Subtrees independent of the coefficient have the typed zero of
	// their own shape and indices as derivative.
	if !analysis.ContainsCoefficient(e, g.coeff) {
		return expr.ZeroLike(e), nil
	}

	switch x := e.(type) {

	case *expr.Coefficient:
		// Reached only when x is the target, by the guard above.
		return g.direction, nil

	case *expr.Sum:
		return g.linearN(x)

	case *expr.Product:
		return g.leibniz(x)

	case *expr.Division:
		return g.quotient(x)

	case *expr.Power:
		return g.power(x)

	case *expr.Sqrt:
		da, er := g.d(x.A)
		if er != nil {
			return nil, er
		}
		twoRoot, er := expr.NewProduct(expr.NewScalarValue(2), e)
		if er != nil {
			return nil, er
		}
		return expr.NewDivision(da, twoRoot)

	case *expr.Inner:
		return g.bilinear(x, x.A, x.B)
	case *expr.Outer:
		return g.bilinear(x, x.A, x.B)
	case *expr.Dot:
		return g.bilinear(x, x.A, x.B)
	case *expr.Cross:
		return g.bilinear(x, x.A, x.B)

	case *expr.Transposed:
		return g.linear1(x, x.A)
	case *expr.Trace:
		return g.linear1(x, x.A)
	case *expr.Deviatoric:
		return g.linear1(x, x.A)
	case *expr.Skew:
		return g.linear1(x, x.A)
	case *expr.Sym:
		return g.linear1(x, x.A)

	case *expr.Determinant:
		return g.determinant(x)
	case *expr.Inverse:
		return g.inverse(x)
	case *expr.Cofactor:
		return nil, err.DifferentiationError{
			Kind:   "cofactor",
			Detail: "no direct rule for cofactor, expand compound operators first",
		}
	case *expr.Abs:
		return nil, err.DifferentiationError{
			Kind:   "abs",
			Detail: "abs is not differentiable where its operand vanishes",
		}

	case *expr.Indexed:
		return g.linear1(x, x.A)
	case *expr.IndexSum:
		return g.linear1(x, x.Summand)
	case *expr.ComponentTensor:
		return g.linear1(x, x.A)
	case *expr.ListTensor:
		return g.linearN(x)

	case *expr.Grad:
		return g.linear1(x, x.A)
	case *expr.Div:
		return g.linear1(x, x.A)
	case *expr.Curl:
		return g.linear1(x, x.A)

	case *expr.Restricted:
		return g.linear1(x, x.A)
	case *expr.Jump:
		return g.linear1(x, x.A)
	case *expr.Avg:
		return g.linear1(x, x.A)

	case *expr.Conditional:
		return g.conditional(x)
	case *expr.Comparison:
		return nil, err.DifferentiationError{
			Kind:   "comparison",
			Detail: "a comparison depending on the differentiation target has no derivative",
		}

	case *expr.CoefficientDerivative:
		return nil, err.DifferentiationError{
			Kind:   "coefficientDerivative",
			Detail: "nested coefficient derivatives must be expanded first",
		}
	}

	return nil, err.DifferentiationError{
		Kind:   expr.Kind(e),
		Detail: "no differentiation rule for this kind",
	}
}

// linear1 rebuilds a one-operand linear operator over the operand's
// derivative.
func (g *gateaux) linear1(e expr.Expression, a expr.Expression) (expr.Expression, err.Error) {
	da, er := g.d(a)
	if er != nil {
		return nil, er
	}
	ops := e.Operands()
	newOps := make([]expr.Expression, len(ops), len(ops))
	copy(newOps, ops)
	newOps[0] = da
	return expr.Reconstruct(e, newOps)
}

// linearN distributes the derivative over every operand of a fully
// linear n-ary operator.
func (g *gateaux) linearN(e expr.Expression) (expr.Expression, err.Error) {
	ops := e.Operands()
	newOps := make([]expr.Expression, len(ops), len(ops))
	for i, op := range ops {
		da, er := g.d(op)
		if er != nil {
			return nil, er
		}
		newOps[i] = da
	}
	return expr.Reconstruct(e, newOps)
}

// leibniz applies the product rule over an n-ary product, rebuilding
// each term in place so contracted labels keep their binders.
func (g *gateaux) leibniz(p *expr.Product) (expr.Expression, err.Error) {
	ops := p.Operands()
	terms := make([]expr.Expression, len(ops), len(ops))
	for k := range ops {
		dk, er := g.d(ops[k])
		if er != nil {
			return nil, er
		}
		newOps := make([]expr.Expression, len(ops), len(ops))
		copy(newOps, ops)
		newOps[k] = dk
		t, er := expr.Reconstruct(p, newOps)
		if er != nil {
			return nil, er
		}
		terms[k] = t
	}
	return expr.NewSum(terms...)
}

// bilinear applies the product rule to a two-operand bilinear operator.
func (g *gateaux) bilinear(e expr.Expression, a, b expr.Expression) (expr.Expression, err.Error) {
	da, er := g.d(a)
	if er != nil {
		return nil, er
	}
	db, er := g.d(b)
	if er != nil {
		return nil, er
	}
	left, er := expr.Reconstruct(e, []expr.Expression{da, b})
	if er != nil {
		return nil, er
	}
	right, er := expr.Reconstruct(e, []expr.Expression{a, db})
	if er != nil {
		return nil, er
	}
	return expr.NewSum(left, right)
}

// quotient: (a/b)' = a'/b - a b'/b^2.
func (g *gateaux) quotient(x *expr.Division) (expr.Expression, err.Error) {
	da, er := g.d(x.A)
	if er != nil {
		return nil, er
	}
	db, er := g.d(x.B)
	if er != nil {
		return nil, er
	}
	left, er := expr.NewDivision(da, x.B)
	if er != nil {
		return nil, er
	}
	num, er := expr.NewProduct(expr.NewScalarValue(-1), x.A, db)
	if er != nil {
		return nil, er
	}
	den, er := expr.NewProduct(x.B, x.B)
	if er != nil {
		return nil, er
	}
	right, er := expr.NewDivision(num, den)
	if er != nil {
		return nil, er
	}
	return expr.NewSum(left, right)
}

// power: (f^g)' = g f^(g-1) f', defined only while the exponent does
// not depend on the differentiation target.
func (g *gateaux) power(x *expr.Power) (expr.Expression, err.Error) {
	if analysis.ContainsCoefficient(x.Exponent, g.coeff) {
		return nil, err.DifferentiationError{
			Kind:   "power",
			Detail: "exponent depends on the differentiation target",
		}
	}
	df, er := g.d(x.Base)
	if er != nil {
		return nil, er
	}
	gm1, er := expr.NewSum(x.Exponent, expr.NewScalarValue(-1))
	if er != nil {
		return nil, er
	}
	fp, er := expr.NewPower(x.Base, gm1)
	if er != nil {
		return nil, er
	}
	return expr.NewProduct(x.Exponent, fp, df)
}

// determinant: det(A)' = det(A) tr(A^-1 dA), for square A.
func (g *gateaux) determinant(x *expr.Determinant) (expr.Expression, err.Error) {
	sh := x.A.Shape()
	if sh[0] != sh[1] {
		return nil, err.DifferentiationError{
			Kind:   "determinant",
			Detail: "no rule for the pseudo-determinant of a non-square matrix",
		}
	}
	da, er := g.d(x.A)
	if er != nil {
		return nil, er
	}
	inv, er := expr.NewInverse(x.A)
	if er != nil {
		return nil, er
	}
	prod, er := expr.NewDot(inv, da)
	if er != nil {
		return nil, er
	}
	tr, er := expr.NewTrace(prod)
	if er != nil {
		return nil, er
	}
	return expr.NewProduct(x, tr)
}

// inverse: (A^-1)' = -A^-1 dA A^-1, for square A.
func (g *gateaux) inverse(x *expr.Inverse) (expr.Expression, err.Error) {
	sh := x.A.Shape()
	if sh[0] != sh[1] {
		return nil, err.DifferentiationError{
			Kind:   "inverse",
			Detail: "no rule for the pseudo-inverse of a non-square matrix",
		}
	}
	da, er := g.d(x.A)
	if er != nil {
		return nil, er
	}
	left, er := expr.NewDot(x, da)
	if er != nil {
		return nil, er
	}
	chain, er := expr.NewDot(left, x)
	if er != nil {
		return nil, er
	}
	return scaleTensor(chain, -1)
}

func (g *gateaux) conditional(x *expr.Conditional) (expr.Expression, err.Error) {
	if analysis.ContainsCoefficient(x.Cond, g.coeff) {
		return nil, err.DifferentiationError{
			Kind:   "conditional",
			Detail: "condition depends on the differentiation target",
		}
	}
	dt, er := g.d(x.True)
	if er != nil {
		return nil, er
	}
	df, er := g.d(x.False)
	if er != nil {
		return nil, er
	}
	return expr.NewConditional(x.Cond, dt, df)
}

// scaleTensor multiplies an index-free expression by a scalar constant,
// routing tensors through component notation since the product kind is
// scalar-only.
func scaleTensor(t expr.Expression, k float64) (expr.Expression, err.Error) {
	if t.Shape().Rank() == 0 {
		return expr.NewProduct(expr.NewScalarValue(k), t)
	}
	is := expr.Indices(t.Shape().Rank())
	mi := make(expr.MultiIndex, len(is), len(is))
	for j, ix := range is {
		mi[j] = ix
	}
	comp, er := expr.NewIndexed(t, mi)
	if er != nil {
		return nil, er
	}
	scaled, er := expr.NewProduct(expr.NewScalarValue(k), comp)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(scaled, is...)
}
