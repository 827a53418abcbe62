// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// Sum is an n-ary sum. Construction flattens nested sums, so a Sum
// operand is never itself a Sum. Operand order is preserved as given;
// commutativity is handled by package sig, not here.
type Sum struct {
	attrs
	ops []Expression
}

func NewSum(ops ...Expression) (Expression, err.Error) {
	if len(ops) < 2 {
		return nil, err.ArityError{Kind: "sum", Want: "at least 2", Have: len(ops)}
	}
	flat := make([]Expression, 0, len(ops))
	for _, op := range ops {
		if s, ok := op.(*Sum); ok {
			flat = append(flat, s.ops...)
			continue
		}
		flat = append(flat, op)
	}
	first := flat[0]
	for _, op := range flat[1:] {
		if !first.Shape().Equals(op.Shape()) {
			return nil, err.ShapeMismatchError{
				Kind:   "sum",
				Shapes: shapesOf(flat),
				Detail: "sum operands must have identical shapes",
			}
		}
		if !sameFreeIndices(first, op) {
			return nil, err.ShapeMismatchError{
				Kind:   "sum",
				Detail: "sum operands must have identical free indices",
			}
		}
	}
	a := attrs{first.Shape(), copyInts(first.FreeIndices()), copyInts(first.IndexDimensions())}
	return &Sum{a, flat}, nil
}

func (x *Sum) Operands() []Expression {
	return x.ops
}

// Product is an n-ary product of scalar operands. An index label free in
// exactly two operands is contracted: the constructor wraps the product
// in one IndexSum per such label, so the returned expression may not be
// a *Product. Tensor-valued factors use the tensor-algebra kinds.
type Product struct {
	attrs
	ops []Expression
}

func NewProduct(ops ...Expression) (Expression, err.Error) {
	if len(ops) < 2 {
		return nil, err.ArityError{Kind: "product", Want: "at least 2", Have: len(ops)}
	}
	flat := make([]Expression, 0, len(ops))
	for _, op := range ops {
		if p, ok := op.(*Product); ok {
			flat = append(flat, p.ops...)
			continue
		}
		flat = append(flat, op)
	}
	for _, op := range flat {
		if op.Shape().Rank() != 0 {
			return nil, err.ShapeMismatchError{
				Kind:   "product",
				Shapes: shapesOf(flat),
				Detail: "product operands must be scalar, use inner/outer/dot for tensors",
			}
		}
	}
	free, freeDims, bound, boundDims, e := mergeFreeIndices("product", flat)
	if e != nil {
		return nil, e
	}
	// The raw product keeps contracted labels in its free set so the
	// enclosing IndexSum nodes can bind them one by one.
	all := &indexPairs{append(copyInts(free), bound...), append(copyInts(freeDims), boundDims...)}
	all.sort()
	var out Expression = &Product{attrs{nil, all.labels, all.dims}, flat}
	for i, label := range bound {
		rf, rd := removeLabel(out.FreeIndices(), out.IndexDimensions(), label)
		out = &IndexSum{attrs{nil, rf, rd}, out, Index{label}, boundDims[i]}
	}
	return out, nil
}

func (x *Product) Operands() []Expression {
	return x.ops
}

// Division is a quotient of scalars. The divisor may not carry free
// indices.
type Division struct {
	attrs
	A, B Expression
}

func NewDivision(a, b Expression) (Expression, err.Error) {
	if a.Shape().Rank() != 0 || b.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "division",
			Shapes: [][]int{a.Shape(), b.Shape()},
			Detail: "division operands must be scalar",
		}
	}
	if len(b.FreeIndices()) > 0 {
		return nil, err.UnresolvedIndexError{
			Kind:    "division",
			Indices: b.FreeIndices(),
			Detail:  "divisor may not have free indices",
		}
	}
	return &Division{attrs{nil, copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}, a, b}, nil
}

func (x *Division) Operands() []Expression {
	return []Expression{x.A, x.B}
}

// Power raises a scalar base to a scalar exponent. Neither operand may
// carry free indices.
type Power struct {
	attrs
	Base, Exponent Expression
}

func NewPower(base, exponent Expression) (Expression, err.Error) {
	if base.Shape().Rank() != 0 || exponent.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "power",
			Shapes: [][]int{base.Shape(), exponent.Shape()},
			Detail: "power operands must be scalar",
		}
	}
	if len(base.FreeIndices()) > 0 || len(exponent.FreeIndices()) > 0 {
		return nil, err.UnresolvedIndexError{
			Kind:   "power",
			Detail: "power operands may not have free indices",
		}
	}
	return &Power{scalarAttrs(), base, exponent}, nil
}

func (x *Power) Operands() []Expression {
	return []Expression{x.Base, x.Exponent}
}

// Sqrt is the square root of a scalar without free indices.
type Sqrt struct {
	attrs
	A Expression
}

func NewSqrt(a Expression) (Expression, err.Error) {
	if a.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "sqrt",
			Shapes: [][]int{a.Shape()},
			Detail: "sqrt operand must be scalar",
		}
	}
	if len(a.FreeIndices()) > 0 {
		return nil, err.UnresolvedIndexError{
			Kind:   "sqrt",
			Detail: "sqrt operand may not have free indices",
		}
	}
	return &Sqrt{scalarAttrs(), a}, nil
}

func (x *Sqrt) Operands() []Expression {
	return []Expression{x.A}
}

// Abs is the absolute value of a scalar.
type Abs struct {
	attrs
	A Expression
}

func NewAbs(a Expression) (Expression, err.Error) {
	if a.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "abs",
			Shapes: [][]int{a.Shape()},
			Detail: "abs operand must be scalar",
		}
	}
	return &Abs{attrs{nil, copyInts(a.FreeIndices()), copyInts(a.IndexDimensions())}, a}, nil
}

func (x *Abs) Operands() []Expression {
	return []Expression{x.A}
}
