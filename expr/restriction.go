// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// Side selects one of the two cells adjacent to an interior facet.
type Side string

const (
	PositiveSide Side = "+"
	NegativeSide Side = "-"
)

// Restricted evaluates its operand on one side of an interior facet.
type Restricted struct {
	attrs
	A    Expression
	Side Side
}

func NewRestricted(a Expression, side Side) (Expression, err.Error) {
	if side != PositiveSide && side != NegativeSide {
		return nil, err.ShapeMismatchError{Kind: "restricted", Detail: "unknown restriction side"}
	}
	if _, ok := a.(*Restricted); ok {
		return nil, err.ShapeMismatchError{
			Kind:   "restricted",
			Detail: "operand is already restricted",
		}
	}
	ax := attrs{a.Shape().copy(), copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}
	return &Restricted{ax, a, side}, nil
}

func (x *Restricted) Operands() []Expression {
	return []Expression{x.A}
}

// Jump is the discontinuity of its operand across an interior facet:
// jump(v) = v(+) - v(-).
type Jump struct {
	attrs
	A Expression
}

func NewJump(a Expression) (Expression, err.Error) {
	if _, ok := a.(*Restricted); ok {
		return nil, err.ShapeMismatchError{
			Kind:   "jump",
			Detail: "operand is already restricted",
		}
	}
	ax := attrs{a.Shape().copy(), copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}
	return &Jump{ax, a}, nil
}

func (x *Jump) Operands() []Expression {
	return []Expression{x.A}
}

// Avg is the facet average of its operand: avg(v) = (v(+) + v(-))/2.
type Avg struct {
	attrs
	A Expression
}

func NewAvg(a Expression) (Expression, err.Error) {
	if _, ok := a.(*Restricted); ok {
		return nil, err.ShapeMismatchError{
			Kind:   "avg",
			Detail: "operand is already restricted",
		}
	}
	ax := attrs{a.Shape().copy(), copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}
	return &Avg{ax, a}, nil
}

func (x *Avg) Operands() []Expression {
	return []Expression{x.A}
}
