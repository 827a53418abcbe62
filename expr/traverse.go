// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"fmt"

	"github.com/conpierce8/ufl/err"
)

// Walk visits every node of e in post-order, operands before parents.
// A subtree shared by pointer identity is visited once.
func Walk(e Expression, visit func(Expression)) {
	seen := map[Expression]bool{}
	var rec func(Expression)
	rec = func(n Expression) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, op := range n.Operands() {
			rec(op)
		}
		visit(n)
	}
	rec(e)
}

// TransformFunc rewrites a single node whose operands have already been
// rewritten. Returning the node unchanged is the identity.
type TransformFunc func(Expression) (Expression, err.Error)

// Transform rewrites e bottom-up: operands are transformed first, the
// node is reconstructed through its validated constructor if any operand
// changed, then f is applied to the result. Results are memoized per
// node identity, so shared subtrees are rewritten once and sharing is
// preserved in the output.
func Transform(e Expression, f TransformFunc) (Expression, err.Error) {
	memo := map[Expression]Expression{}
	var rec func(Expression) (Expression, err.Error)
	rec = func(n Expression) (Expression, err.Error) {
		if r, ok := memo[n]; ok {
			return r, nil
		}
		ops := n.Operands()
		newOps := make([]Expression, len(ops), len(ops))
		changed := false
		for i, op := range ops {
			r, er := rec(op)
			if er != nil {
				return nil, er
			}
			newOps[i] = r
			if r != op {
				changed = true
			}
		}
		m := n
		if changed {
			r, er := Reconstruct(n, newOps)
			if er != nil {
				return nil, er
			}
			m = r
		}
		r, er := f(m)
		if er != nil {
			return nil, er
		}
		memo[n] = r
		return r, nil
	}
	return rec(e)
}

// Reconstruct rebuilds a node of e's kind over new operands, revalidating
// through the kind's constructor and preserving non-operand metadata
// (multi-indices, operator tags, restriction sides).
func Reconstruct(e Expression, ops []Expression) (Expression, err.Error) {
	switch x := e.(type) {

	case *Argument, *Coefficient, *SpatialCoordinate, *FacetNormal,
		*CellVolume, *ScalarValue, *Zero, *Identity:
		return e, nil

	case *Sum:
		return NewSum(ops...)
	case *Product:
		// In-place rebuild: the node may sit under IndexSum binders
		// for its contracted labels, so contraction must not re-wrap.
		return rawProduct(ops)
	case *Division:
		return NewDivision(ops[0], ops[1])
	case *Power:
		return NewPower(ops[0], ops[1])
	case *Sqrt:
		return NewSqrt(ops[0])
	case *Abs:
		return NewAbs(ops[0])

	case *Inner:
		return NewInner(ops[0], ops[1])
	case *Outer:
		return NewOuter(ops[0], ops[1])
	case *Dot:
		return NewDot(ops[0], ops[1])
	case *Cross:
		return NewCross(ops[0], ops[1])
	case *Transposed:
		return NewTransposed(ops[0])
	case *Trace:
		return NewTrace(ops[0])
	case *Determinant:
		return NewDeterminant(ops[0])
	case *Inverse:
		return NewInverse(ops[0])
	case *Cofactor:
		return NewCofactor(ops[0])
	case *Deviatoric:
		return NewDeviatoric(ops[0])
	case *Skew:
		return NewSkew(ops[0])
	case *Sym:
		return NewSym(ops[0])

	case *Indexed:
		return rawIndexed(ops[0], x.Indices)
	case *IndexSum:
		return NewIndexSum(ops[0], x.Index)
	case *ComponentTensor:
		return NewComponentTensor(ops[0], x.Indices...)
	case *ListTensor:
		return NewListTensor(ops...)

	case *Grad:
		// A rewrite may have erased every domain-carrying terminal
		// from the operand (e.g. replaced it by a typed zero); the
		// original node still knows its dimension.
		if g, er := NewGrad(ops[0]); er == nil {
			return g, nil
		}
		sh := append(ops[0].Shape().copy(), x.Dim)
		a := attrs{sh, copyInts(ops[0].FreeIndices()), copyInts(ops[0].IndexDimensions())}
		return &Grad{a, ops[0], x.Dim}, nil
	case *Div:
		return NewDiv(ops[0])
	case *Curl:
		if c, er := NewCurl(ops[0]); er == nil {
			return c, nil
		}
		var sh Shape
		if x.Dim == 3 {
			sh = Shape{3}
		}
		a := attrs{sh, copyInts(ops[0].FreeIndices()), copyInts(ops[0].IndexDimensions())}
		return &Curl{a, ops[0], x.Dim}, nil
	case *CoefficientDerivative:
		return NewCoefficientDerivative(ops[0], x.Coefficient, ops[1])

	case *Comparison:
		return NewComparison(x.Op, ops[0], ops[1])
	case *Conditional:
		return NewConditional(ops[0], ops[1], ops[2])

	case *Restricted:
		return NewRestricted(ops[0], x.Side)
	case *Jump:
		return NewJump(ops[0])
	case *Avg:
		return NewAvg(ops[0])
	}
	panic(fmt.Sprintf("unhandled expression type: %T", e))
}

// IsCellwiseConstant reports whether a subtree is constant within each
// cell of its domain.
func IsCellwiseConstant(e Expression) bool {
	switch x := e.(type) {
	case *ScalarValue, *Zero, *Identity, *CellVolume:
		return true
	case *SpatialCoordinate, *FacetNormal:
		return false
	case *Argument:
		return x.Space.Element.Degree == 0
	case *Coefficient:
		return x.Space.Element.Degree == 0
	case *Grad:
		return IsCellwiseConstant(x.A)
	case *Div:
		return IsCellwiseConstant(x.A)
	case *Curl:
		return IsCellwiseConstant(x.A)
	}
	for _, op := range e.Operands() {
		if !IsCellwiseConstant(op) {
			return false
		}
	}
	return true
}
