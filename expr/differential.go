// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/space"
)

// GeometricDimension determines the geometric dimension of the domain
// an expression lives on by inspecting its terminals. All terminals
// carrying a mesh must agree.
func GeometricDimension(e Expression) (int, err.Error) {
	dim := -1
	var er err.Error
	Walk(e, func(n Expression) {
		var m *space.Mesh
		switch t := n.(type) {
		case *Argument:
			m = t.Space.Mesh
		case *Coefficient:
			m = t.Space.Mesh
		case *SpatialCoordinate:
			m = t.Mesh
		case *FacetNormal:
			m = t.Mesh
		case *CellVolume:
			m = t.Mesh
		default:
			return
		}
		d := m.GeometricDimension()
		if dim >= 0 && dim != d && er == nil {
			er = err.ShapeMismatchError{
				Kind:   Kind(e),
				Detail: "terminals live on domains of different geometric dimension",
			}
		}
		dim = d
	})
	if er != nil {
		return 0, er
	}
	if dim < 0 {
		return 0, err.ShapeMismatchError{
			Kind:   Kind(e),
			Detail: "cannot determine geometric dimension: no domain-carrying terminal",
		}
	}
	return dim, nil
}

// Grad appends one axis of the geometric dimension to its operand's
// shape, holding the spatial derivative of every component.
type Grad struct {
	attrs
	A   Expression
	Dim int
}

func NewGrad(a Expression) (Expression, err.Error) {
	dim, er := GeometricDimension(a)
	if er != nil {
		return nil, er
	}
	sh := append(a.Shape().copy(), dim)
	return &Grad{attrs{sh, copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}, a, dim}, nil
}

func (x *Grad) Operands() []Expression {
	return []Expression{x.A}
}

// Div contracts the last axis of its operand against the spatial
// derivative axis.
type Div struct {
	attrs
	A Expression
}

func NewDiv(a Expression) (Expression, err.Error) {
	sh := a.Shape()
	if sh.Rank() == 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "div",
			Shapes: [][]int{sh},
			Detail: "divergence requires a tensor of rank 1 or higher",
		}
	}
	rs := sh[:sh.Rank()-1].copy()
	if len(rs) == 0 {
		rs = nil
	}
	return &Div{attrs{rs, copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}, a}, nil
}

func (x *Div) Operands() []Expression {
	return []Expression{x.A}
}

// Curl of a vector field: a 3-vector in three dimensions, a scalar in
// two.
type Curl struct {
	attrs
	A   Expression
	Dim int
}

func NewCurl(a Expression) (Expression, err.Error) {
	dim, er := GeometricDimension(a)
	if er != nil {
		return nil, er
	}
	if !a.Shape().Equals(Shape{dim}) || (dim != 2 && dim != 3) {
		return nil, err.ShapeMismatchError{
			Kind:   "curl",
			Shapes: [][]int{a.Shape()},
			Detail: "curl requires a vector field of the geometric dimension (2 or 3)",
		}
	}
	var sh Shape
	if dim == 3 {
		sh = Shape{3}
	}
	return &Curl{attrs{sh, copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}, a, dim}, nil
}

func (x *Curl) Operands() []Expression {
	return []Expression{x.A}
}

// CoefficientDerivative marks a pending Gâteaux derivative of Base with
// respect to Coefficient in the given Direction. It is resolved by
// package deriv; no other algorithm needs a rule for it.
type CoefficientDerivative struct {
	attrs
	Base        Expression
	Coefficient *Coefficient
	Direction   Expression
}

func NewCoefficientDerivative(base Expression, c *Coefficient, direction Expression) (Expression, err.Error) {
	if !c.Shape().Equals(direction.Shape()) {
		return nil, err.ShapeMismatchError{
			Kind:   "coefficientDerivative",
			Shapes: [][]int{c.Shape(), direction.Shape()},
			Detail: "perturbation direction must have the coefficient's shape",
		}
	}
	a := attrs{base.Shape().copy(), copyInts(base.FreeIndices()), copyInts(base.IndexDimensions())}
	return &CoefficientDerivative{a, base, c, direction}, nil
}

func (x *CoefficientDerivative) Operands() []Expression {
	return []Expression{x.Base, x.Direction}
}
