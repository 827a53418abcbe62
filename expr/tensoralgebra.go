// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// The compound tensor-algebra kinds operate on index-free operands;
// expressions carrying free indices use the explicit index notation of
// indexing.go instead. Package compound lowers all of these kinds to
// that notation.

func requireIndexFree(kind string, ops ...Expression) err.Error {
	for _, op := range ops {
		if len(op.FreeIndices()) > 0 {
			return err.UnresolvedIndexError{
				Kind:    kind,
				Indices: op.FreeIndices(),
				Detail:  "tensor-algebra operands may not carry free indices",
			}
		}
	}
	return nil
}

// Inner is the full contraction of two equally-shaped tensors.
type Inner struct {
	attrs
	A, B Expression
}

func NewInner(a, b Expression) (Expression, err.Error) {
	if a.Shape().Rank() == 0 || !a.Shape().Equals(b.Shape()) {
		return nil, err.ShapeMismatchError{
			Kind:   "inner",
			Shapes: [][]int{a.Shape(), b.Shape()},
			Detail: "inner requires two tensors of identical nonscalar shape",
		}
	}
	if e := requireIndexFree("inner", a, b); e != nil {
		return nil, e
	}
	return &Inner{scalarAttrs(), a, b}, nil
}

func (x *Inner) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Outer is the tensor product, concatenating shapes.
type Outer struct {
	attrs
	A, B Expression
}

func NewOuter(a, b Expression) (Expression, err.Error) {
	if a.Shape().Rank() == 0 || b.Shape().Rank() == 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "outer",
			Shapes: [][]int{a.Shape(), b.Shape()},
			Detail: "outer requires nonscalar operands, use product for scalars",
		}
	}
	if e := requireIndexFree("outer", a, b); e != nil {
		return nil, e
	}
	sh := append(a.Shape().copy(), b.Shape()...)
	return &Outer{attrs{sh, nil, nil}, a, b}, nil
}

func (x *Outer) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Dot contracts the last axis of A against the first axis of B.
type Dot struct {
	attrs
	A, B Expression
}

func NewDot(a, b Expression) (Expression, err.Error) {
	as, bs := a.Shape(), b.Shape()
	if as.Rank() == 0 || bs.Rank() == 0 || as[as.Rank()-1] != bs[0] {
		return nil, err.ShapeMismatchError{
			Kind:   "dot",
			Shapes: [][]int{as, bs},
			Detail: "dot contracts the last axis of A against the first axis of B",
		}
	}
	if e := requireIndexFree("dot", a, b); e != nil {
		return nil, e
	}
	sh := append(as[:as.Rank()-1].copy(), bs[1:]...)
	if len(sh) == 0 {
		sh = nil
	}
	return &Dot{attrs{sh, nil, nil}, a, b}, nil
}

func (x *Dot) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Cross is the vector cross product in three dimensions.
type Cross struct {
	attrs
	A, B Expression
}

func NewCross(a, b Expression) (Expression, err.Error) {
	want := Shape{3}
	if !a.Shape().Equals(want) || !b.Shape().Equals(want) {
		return nil, err.ShapeMismatchError{
			Kind:   "cross",
			Shapes: [][]int{a.Shape(), b.Shape()},
			Detail: "cross requires two 3-vectors",
		}
	}
	if e := requireIndexFree("cross", a, b); e != nil {
		return nil, e
	}
	return &Cross{attrs{Shape{3}, nil, nil}, a, b}, nil
}

func (x *Cross) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Transposed swaps the axes of a matrix.
type Transposed struct {
	attrs
	A Expression
}

func NewTransposed(a Expression) (Expression, err.Error) {
	sh := a.Shape()
	if sh.Rank() != 2 {
		return nil, err.ShapeMismatchError{
			Kind:   "transposed",
			Shapes: [][]int{sh},
			Detail: "transpose requires a rank-2 tensor",
		}
	}
	if e := requireIndexFree("transposed", a); e != nil {
		return nil, e
	}
	return &Transposed{attrs{Shape{sh[1], sh[0]}, nil, nil}, a}, nil
}

func (x *Transposed) Operands() []Expression {
	return []Expression{x.A}
}

// Trace sums the diagonal of a square matrix.
type Trace struct {
	attrs
	A Expression
}

func NewTrace(a Expression) (Expression, err.Error) {
	if e := requireSquare("trace", a); e != nil {
		return nil, e
	}
	return &Trace{scalarAttrs(), a}, nil
}

func (x *Trace) Operands() []Expression {
	return []Expression{x.A}
}

// Determinant of a matrix. Non-square matrices denote the
// pseudo-determinant sqrt(det(A^T A)).
type Determinant struct {
	attrs
	A Expression
}

func NewDeterminant(a Expression) (Expression, err.Error) {
	if a.Shape().Rank() != 2 {
		return nil, err.ShapeMismatchError{
			Kind:   "determinant",
			Shapes: [][]int{a.Shape()},
			Detail: "determinant requires a rank-2 tensor",
		}
	}
	if e := requireIndexFree("determinant", a); e != nil {
		return nil, e
	}
	return &Determinant{scalarAttrs(), a}, nil
}

func (x *Determinant) Operands() []Expression {
	return []Expression{x.A}
}

// Inverse of a matrix. Non-square matrices denote the Penrose-Moore
// pseudo-inverse, whose shape is the transpose of the operand's.
type Inverse struct {
	attrs
	A Expression
}

func NewInverse(a Expression) (Expression, err.Error) {
	sh := a.Shape()
	if sh.Rank() != 2 {
		return nil, err.ShapeMismatchError{
			Kind:   "inverse",
			Shapes: [][]int{sh},
			Detail: "inverse requires a rank-2 tensor",
		}
	}
	if e := requireIndexFree("inverse", a); e != nil {
		return nil, e
	}
	return &Inverse{attrs{Shape{sh[1], sh[0]}, nil, nil}, a}, nil
}

func (x *Inverse) Operands() []Expression {
	return []Expression{x.A}
}

// Cofactor of a square matrix.
type Cofactor struct {
	attrs
	A Expression
}

func NewCofactor(a Expression) (Expression, err.Error) {
	if e := requireSquare("cofactor", a); e != nil {
		return nil, e
	}
	return &Cofactor{attrs{a.Shape().copy(), nil, nil}, a}, nil
}

func (x *Cofactor) Operands() []Expression {
	return []Expression{x.A}
}

// Deviatoric part of a square matrix: A - tr(A)/n I.
type Deviatoric struct {
	attrs
	A Expression
}

func NewDeviatoric(a Expression) (Expression, err.Error) {
	if e := requireSquare("deviatoric", a); e != nil {
		return nil, e
	}
	return &Deviatoric{attrs{a.Shape().copy(), nil, nil}, a}, nil
}

func (x *Deviatoric) Operands() []Expression {
	return []Expression{x.A}
}

// Skew-symmetric part of a square matrix: (A - A^T)/2.
type Skew struct {
	attrs
	A Expression
}

func NewSkew(a Expression) (Expression, err.Error) {
	if e := requireSquare("skew", a); e != nil {
		return nil, e
	}
	return &Skew{attrs{a.Shape().copy(), nil, nil}, a}, nil
}

func (x *Skew) Operands() []Expression {
	return []Expression{x.A}
}

// Sym is the symmetric part of a square matrix: (A + A^T)/2.
type Sym struct {
	attrs
	A Expression
}

func NewSym(a Expression) (Expression, err.Error) {
	if e := requireSquare("sym", a); e != nil {
		return nil, e
	}
	return &Sym{attrs{a.Shape().copy(), nil, nil}, a}, nil
}

func (x *Sym) Operands() []Expression {
	return []Expression{x.A}
}

func requireSquare(kind string, a Expression) err.Error {
	sh := a.Shape()
	if sh.Rank() != 2 || sh[0] != sh[1] {
		return err.ShapeMismatchError{
			Kind:   kind,
			Shapes: [][]int{sh},
			Detail: kind + " requires a square rank-2 tensor",
		}
	}
	return requireIndexFree(kind, a)
}
