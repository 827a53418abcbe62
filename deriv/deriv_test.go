// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package deriv

import (
	"testing"

	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/sig"
	"github.com/conpierce8/ufl/simplify"
	"github.com/conpierce8/ufl/space"
)

func testSpace(valueShape ...int) *space.Space {
	mesh := space.NewMesh(space.VectorElement("Lagrange", space.Triangle, 1), 0)
	el := space.NewElement("Lagrange", space.Triangle, 1, valueShape...)
	return space.NewSpace(mesh, el)
}

func derived(t *testing.T, e expr.Expression, c *expr.Coefficient, w expr.Expression) expr.Expression {
	d, er := Apply(e, c, w)
	if er != nil {
		t.Fatal(er)
	}
	if !d.Shape().Equals(e.Shape()) {
		t.Fatalf("derivative changed shape %v to %v", e.Shape(), d.Shape())
	}
	r, er := simplify.Apply(d)
	if er != nil {
		t.Fatal(er)
	}
	return r
}

func TestSelfDerivative(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	if r := derived(t, c, c, w); r != expr.Expression(w) {
		t.Fatalf("dc/dc is %T, not the direction", r)
	}
}

func TestUnrelatedDerivative(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	other := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	{
		if r := derived(t, other, c, w); !expr.IsZero(r) {
			t.Fatalf("case 1: derivative of unrelated coefficient is %T", r)
		}
	}
	{
		// Shape and free indices carry over to the zero.
		v := expr.NewCoefficient(testSpace(3))
		i := expr.NewIndex()
		vi, er := expr.NewIndexed(v, expr.MultiIndex{i})
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		d, er := Apply(vi, c, w)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if !expr.IsZero(d) {
			t.Fatalf("case 2: have %T", d)
		}
		if free := d.FreeIndices(); len(free) != 1 || free[0] != i.Label {
			t.Fatalf("case 2: zero lost free indices, have %v", free)
		}
	}
}

func TestLinearity(t *testing.T) {
	sp := testSpace()
	c1 := expr.NewCoefficient(sp)
	c2 := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	{
		s, er := expr.NewSum(c1, c2)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if r := derived(t, s, c1, w); r != expr.Expression(w) {
			t.Fatalf("case 1: d(c1+c2)/dc1 is %T", r)
		}
	}
	{
		// d(k*c)/dc = k*w for a literal k.
		p, er := expr.NewProduct(expr.NewScalarValue(3), c1)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		r := derived(t, p, c1, w)
		want, er := expr.NewProduct(expr.NewScalarValue(3), w)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if !sig.Equal(r, want) {
			t.Fatal("case 2: scalar multiple did not pass through")
		}
	}
}

func TestProductRule(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	// d(c*c) in direction w collects to 2*c*w.
	p, er := expr.NewProduct(c, c)
	if er != nil {
		t.Fatal(er)
	}
	r := derived(t, p, c, w)
	want, er := expr.NewProduct(expr.NewScalarValue(2), c, w)
	if er != nil {
		t.Fatal(er)
	}
	if !sig.Equal(r, want) {
		t.Fatal("d(c*c) did not collect to 2*c*w")
	}
}

func TestQuotientRule(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	b := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	// d(c/b)/dc = w/b when b is independent of c.
	q, er := expr.NewDivision(c, b)
	if er != nil {
		t.Fatal(er)
	}
	r := derived(t, q, c, w)
	want, er := expr.NewDivision(w, b)
	if er != nil {
		t.Fatal(er)
	}
	if !sig.Equal(r, want) {
		t.Fatal("d(c/b)/dc did not reduce to w/b")
	}
}

func TestGradientChain(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	v := expr.TestFunction(sp)
	// d inner(grad c, grad v) in direction w is inner(grad w, grad v).
	gc, er := expr.NewGrad(c)
	if er != nil {
		t.Fatal(er)
	}
	gv, er := expr.NewGrad(v)
	if er != nil {
		t.Fatal(er)
	}
	e, er := expr.NewInner(gc, gv)
	if er != nil {
		t.Fatal(er)
	}
	r := derived(t, e, c, w)
	gw, er := expr.NewGrad(w)
	if er != nil {
		t.Fatal(er)
	}
	want, er := expr.NewInner(gw, gv)
	if er != nil {
		t.Fatal(er)
	}
	if !sig.Equal(r, want) {
		t.Fatal("linearization of the stiffness integrand is wrong")
	}
}

func TestPowerRule(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	{
		// d(c^2)/dc = 2*c^1*w, simplified to 2*c*w.
		p, er := expr.NewPower(c, expr.NewScalarValue(2))
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		r := derived(t, p, c, w)
		want, er := expr.NewProduct(expr.NewScalarValue(2), c, w)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if !sig.Equal(r, want) {
			t.Fatal("case 1: power rule failed")
		}
	}
	{
		// An exponent depending on the target has no rule.
		p, er := expr.NewPower(expr.NewScalarValue(2), c)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if _, er := Apply(p, c, w); er == nil {
			t.Fatal("case 2: expected differentiation error")
		} else if _, ok := er.(err.DifferentiationError); !ok {
			t.Fatalf("case 2: expected differentiation error, have %T", er)
		}
	}
}

func TestDirectionShapeCheck(t *testing.T) {
	c := expr.NewCoefficient(testSpace())
	w := expr.NewCoefficient(testSpace(2))
	if _, er := Apply(c, c, w); er == nil {
		t.Fatal("expected shape mismatch between coefficient and direction")
	} else if _, ok := er.(err.ShapeMismatchError); !ok {
		t.Fatalf("expected shape mismatch, have %T", er)
	}
}

func TestExpandCoefficientDerivative(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	w := expr.NewCoefficient(sp)
	p, er := expr.NewProduct(c, c)
	if er != nil {
		t.Fatal(er)
	}
	pending, er := expr.NewCoefficientDerivative(p, c, w)
	if er != nil {
		t.Fatal(er)
	}
	e, er := ExpandDerivatives(pending)
	if er != nil {
		t.Fatal(er)
	}
	r, er := simplify.Apply(e)
	if er != nil {
		t.Fatal(er)
	}
	want, er := expr.NewProduct(expr.NewScalarValue(2), c, w)
	if er != nil {
		t.Fatal(er)
	}
	if !sig.Equal(r, want) {
		t.Fatal("pending derivative did not expand to 2*c*w")
	}
}

func TestExpandGradSum(t *testing.T) {
	sp := testSpace()
	c1 := expr.NewCoefficient(sp)
	c2 := expr.NewCoefficient(sp)
	s, er := expr.NewSum(c1, c2)
	if er != nil {
		t.Fatal(er)
	}
	g, er := expr.NewGrad(s)
	if er != nil {
		t.Fatal(er)
	}
	e, er := ExpandDerivatives(g)
	if er != nil {
		t.Fatal(er)
	}
	g1, _ := expr.NewGrad(c1)
	g2, _ := expr.NewGrad(c2)
	want, er := expr.NewSum(g1, g2)
	if er != nil {
		t.Fatal(er)
	}
	if !sig.Equal(e, want) {
		t.Fatal("gradient did not distribute over the sum")
	}
}

func TestExpandGradProduct(t *testing.T) {
	sp := testSpace()
	c1 := expr.NewCoefficient(sp)
	c2 := expr.NewCoefficient(sp)
	p, er := expr.NewProduct(c1, c2)
	if er != nil {
		t.Fatal(er)
	}
	g, er := expr.NewGrad(p)
	if er != nil {
		t.Fatal(er)
	}
	e, er := ExpandDerivatives(g)
	if er != nil {
		t.Fatal(er)
	}
	if !e.Shape().Equals(g.Shape()) {
		t.Fatalf("expansion changed shape %v to %v", g.Shape(), e.Shape())
	}
	if _, ok := e.(*expr.Grad); ok {
		t.Fatal("gradient of a product was not pushed down")
	}
	// No gradient of a non-terminal remains.
	expr.Walk(e, func(n expr.Expression) {
		if gn, ok := n.(*expr.Grad); ok {
			if !expr.IsTerminal(gn.A) {
				t.Fatalf("gradient still rests on %T", gn.A)
			}
		}
	})
}

func TestExpandGradRestriction(t *testing.T) {
	sp := testSpace()
	c := expr.NewCoefficient(sp)
	{
		r, er := expr.NewRestricted(c, expr.PositiveSide)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		g, er := expr.NewGrad(r)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		e, er := ExpandDerivatives(g)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		// Restriction moves outside the gradient.
		res, ok := e.(*expr.Restricted)
		if !ok {
			t.Fatalf("case 1: have %T", e)
		}
		if _, ok := res.A.(*expr.Grad); !ok {
			t.Fatalf("case 1: restricted operand is %T", res.A)
		}
	}
	{
		j, er := expr.NewJump(c)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		g, er := expr.NewGrad(j)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		e, er := ExpandDerivatives(g)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if !e.Shape().Equals(g.Shape()) {
			t.Fatalf("case 2: expansion changed shape to %v", e.Shape())
		}
		if _, ok := e.(*expr.Sum); !ok {
			t.Fatalf("case 2: jump gradient is %T, not a two-sided sum", e)
		}
	}
}

func TestInverseRule(t *testing.T) {
	m := expr.NewCoefficient(testSpace(2, 2))
	w := expr.NewCoefficient(testSpace(2, 2))
	inv, er := expr.NewInverse(m)
	if er != nil {
		t.Fatal(er)
	}
	d, er := Apply(inv, coefficientOf(t, m), w)
	if er != nil {
		t.Fatal(er)
	}
	if !d.Shape().Equals(expr.Shape{2, 2}) {
		t.Fatalf("inverse derivative has shape %v", d.Shape())
	}
}

func coefficientOf(t *testing.T, e expr.Expression) *expr.Coefficient {
	c, ok := e.(*expr.Coefficient)
	if !ok {
		t.Fatalf("not a coefficient: %T", e)
	}
	return c
}
