// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// CompareOp identifies a comparison operator. The tag participates in
// structural signatures.
type CompareOp string

const (
	EQ CompareOp = "=="
	NE CompareOp = "!="
	LT CompareOp = "<"
	LE CompareOp = "<="
	GT CompareOp = ">"
	GE CompareOp = ">="
)

// Comparison compares two scalar, index-free expressions. Its value is
// boolean and may only appear as the condition of a Conditional.
type Comparison struct {
	attrs
	Op   CompareOp
	A, B Expression
}

func NewComparison(op CompareOp, a, b Expression) (Expression, err.Error) {
	switch op {
	case EQ, NE, LT, LE, GT, GE:
	default:
		return nil, err.ShapeMismatchError{Kind: "comparison", Detail: "unknown comparison operator"}
	}
	if a.Shape().Rank() != 0 || b.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "comparison",
			Shapes: [][]int{a.Shape(), b.Shape()},
			Detail: "comparison operands must be scalar",
		}
	}
	if e := requireIndexFree("comparison", a, b); e != nil {
		return nil, e
	}
	return &Comparison{scalarAttrs(), op, a, b}, nil
}

func (x *Comparison) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Conditional selects between two equally-shaped branches.
type Conditional struct {
	attrs
	Cond        Expression
	True, False Expression
}

func NewConditional(cond, t, f Expression) (Expression, err.Error) {
	if _, ok := cond.(*Comparison); !ok {
		return nil, err.ShapeMismatchError{
			Kind:   "conditional",
			Detail: "condition must be a comparison",
		}
	}
	if !t.Shape().Equals(f.Shape()) {
		return nil, err.ShapeMismatchError{
			Kind:   "conditional",
			Shapes: [][]int{t.Shape(), f.Shape()},
			Detail: "conditional branches must have identical shapes",
		}
	}
	if !sameFreeIndices(t, f) {
		return nil, err.ShapeMismatchError{
			Kind:   "conditional",
			Detail: "conditional branches must have identical free indices",
		}
	}
	a := attrs{t.Shape().copy(), copyInts(t.FreeIndices()), copyInts(t.IndexDimensions())}
	return &Conditional{a, cond, t, f}, nil
}

func (x *Conditional) Operands() []Expression {
	return []Expression{x.Cond, x.True, x.False}
}
