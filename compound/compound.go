// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package compound lowers compound tensor operators into plain index
// notation: sums, products, indexed access, index sums and component
// tensors. After lowering, no inner, outer, dot, cross, trace,
// transpose, determinant, inverse, cofactor, deviatoric, skew or sym
// nodes remain.
package compound

import (
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
)

// Expand lowers every compound tensor operator in e.
func Expand(e expr.Expression) (expr.Expression, err.Error) {
	return expr.Transform(e, lower)
}

func lower(e expr.Expression) (expr.Expression, err.Error) {
	switch x := e.(type) {
	case *expr.Transposed:
		return lowerTransposed(x.A)
	case *expr.Trace:
		return lowerTrace(x.A)
	case *expr.Inner:
		return lowerInner(x.A, x.B)
	case *expr.Outer:
		return lowerOuter(x.A, x.B)
	case *expr.Dot:
		return lowerDot(x.A, x.B)
	case *expr.Cross:
		return lowerCross(x.A, x.B)
	case *expr.Sym:
		return lowerSymmetric(x.A, 1)
	case *expr.Skew:
		return lowerSymmetric(x.A, -1)
	case *expr.Deviatoric:
		return lowerDeviatoric(x.A)
	case *expr.Determinant:
		return lowerDeterminant(x.A)
	case *expr.Inverse:
		return lowerInverse(x.A)
	case *expr.Cofactor:
		return lowerCofactor(x.A)
	}
	return e, nil
}

// entry indexes a rank-2 expression at fixed positions.
func entry(a expr.Expression, i, j int) (expr.Expression, err.Error) {
	return expr.NewIndexed(a, expr.MultiIndex{expr.FixedIndex(i), expr.FixedIndex(j)})
}

func freeMulti(is []expr.Index) expr.MultiIndex {
	mi := make(expr.MultiIndex, len(is), len(is))
	for k, ix := range is {
		mi[k] = ix
	}
	return mi
}

// lowerTransposed: A^T[i,j] = A[j,i].
func lowerTransposed(a expr.Expression) (expr.Expression, err.Error) {
	i, j := expr.NewIndex(), expr.NewIndex()
	comp, er := expr.NewIndexed(a, expr.MultiIndex{j, i})
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(comp, i, j)
}

// lowerTrace: tr(A) = A[i,i]. The repeated label contracts at
// construction.
func lowerTrace(a expr.Expression) (expr.Expression, err.Error) {
	i := expr.NewIndex()
	return expr.NewIndexed(a, expr.MultiIndex{i, i})
}

// lowerInner: full contraction of two equally shaped tensors.
func lowerInner(a, b expr.Expression) (expr.Expression, err.Error) {
	is := expr.Indices(a.Shape().Rank())
	ca, er := expr.NewIndexed(a, freeMulti(is))
	if er != nil {
		return nil, er
	}
	cb, er := expr.NewIndexed(b, freeMulti(is))
	if er != nil {
		return nil, er
	}
	return expr.NewProduct(ca, cb)
}

// lowerOuter: (A x B)[i...,j...] = A[i...] B[j...].
func lowerOuter(a, b expr.Expression) (expr.Expression, err.Error) {
	is := expr.Indices(a.Shape().Rank())
	js := expr.Indices(b.Shape().Rank())
	ca, er := expr.NewIndexed(a, freeMulti(is))
	if er != nil {
		return nil, er
	}
	cb, er := expr.NewIndexed(b, freeMulti(js))
	if er != nil {
		return nil, er
	}
	p, er := expr.NewProduct(ca, cb)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(p, append(append([]expr.Index(nil), is...), js...)...)
}

// lowerDot: contraction of a's last axis against b's first axis.
func lowerDot(a, b expr.Expression) (expr.Expression, err.Error) {
	s := expr.NewIndex()
	is := expr.Indices(a.Shape().Rank() - 1)
	js := expr.Indices(b.Shape().Rank() - 1)
	ca, er := expr.NewIndexed(a, append(freeMulti(is), s))
	if er != nil {
		return nil, er
	}
	cb, er := expr.NewIndexed(b, append(expr.MultiIndex{s}, freeMulti(js)...))
	if er != nil {
		return nil, er
	}
	p, er := expr.NewProduct(ca, cb)
	if er != nil {
		return nil, er
	}
	outer := append(append([]expr.Index(nil), is...), js...)
	if len(outer) == 0 {
		return p, nil
	}
	return expr.NewComponentTensor(p, outer...)
}

// lowerCross: the classic component formula for 3-vectors.
func lowerCross(a, b expr.Expression) (expr.Expression, err.Error) {
	c := func(i, j int) (expr.Expression, err.Error) {
		ai, er := expr.NewIndexed(a, expr.MultiIndex{expr.FixedIndex(i)})
		if er != nil {
			return nil, er
		}
		bj, er := expr.NewIndexed(b, expr.MultiIndex{expr.FixedIndex(j)})
		if er != nil {
			return nil, er
		}
		aj, er := expr.NewIndexed(a, expr.MultiIndex{expr.FixedIndex(j)})
		if er != nil {
			return nil, er
		}
		bi, er := expr.NewIndexed(b, expr.MultiIndex{expr.FixedIndex(i)})
		if er != nil {
			return nil, er
		}
		pos, er := expr.NewProduct(ai, bj)
		if er != nil {
			return nil, er
		}
		neg, er := expr.NewProduct(expr.NewScalarValue(-1), aj, bi)
		if er != nil {
			return nil, er
		}
		return expr.NewSum(pos, neg)
	}
	c0, er := c(1, 2)
	if er != nil {
		return nil, er
	}
	c1, er := c(2, 0)
	if er != nil {
		return nil, er
	}
	c2, er := c(0, 1)
	if er != nil {
		return nil, er
	}
	return expr.NewListTensor(c0, c1, c2)
}

// lowerSymmetric builds (A + s A^T)/2 componentwise, with s = 1 for the
// symmetric part and s = -1 for the skew part.
func lowerSymmetric(a expr.Expression, s float64) (expr.Expression, err.Error) {
	i, j := expr.NewIndex(), expr.NewIndex()
	aij, er := expr.NewIndexed(a, expr.MultiIndex{i, j})
	if er != nil {
		return nil, er
	}
	aji, er := expr.NewIndexed(a, expr.MultiIndex{j, i})
	if er != nil {
		return nil, er
	}
	mirror := aji
	if s < 0 {
		mirror, er = expr.NewProduct(expr.NewScalarValue(s), aji)
		if er != nil {
			return nil, er
		}
	}
	sum, er := expr.NewSum(aij, mirror)
	if er != nil {
		return nil, er
	}
	half, er := expr.NewProduct(expr.NewScalarValue(0.5), sum)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(half, i, j)
}

// lowerDeviatoric: dev(A)[i,j] = A[i,j] - tr(A)/n d[i,j], with d the
// identity of A's dimension.
func lowerDeviatoric(a expr.Expression) (expr.Expression, err.Error) {
	n := a.Shape()[0]
	i, j := expr.NewIndex(), expr.NewIndex()
	aij, er := expr.NewIndexed(a, expr.MultiIndex{i, j})
	if er != nil {
		return nil, er
	}
	tr, er := lowerTrace(a)
	if er != nil {
		return nil, er
	}
	dij, er := expr.NewIndexed(expr.NewIdentity(n), expr.MultiIndex{i, j})
	if er != nil {
		return nil, er
	}
	sub, er := expr.NewProduct(expr.NewScalarValue(-1/float64(n)), tr, dij)
	if er != nil {
		return nil, er
	}
	sum, er := expr.NewSum(aij, sub)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(sum, i, j)
}

// minorDet expands the determinant of the submatrix of a selected by
// rows and cols, recursively along the first remaining row.
func minorDet(a expr.Expression, rows, cols []int) (expr.Expression, err.Error) {
	if len(rows) == 1 {
		return entry(a, rows[0], cols[0])
	}
	terms := []expr.Expression(nil)
	for k, col := range cols {
		pivot, er := entry(a, rows[0], col)
		if er != nil {
			return nil, er
		}
		rest := make([]int, 0, len(cols)-1)
		rest = append(rest, cols[:k]...)
		rest = append(rest, cols[k+1:]...)
		minor, er := minorDet(a, rows[1:], rest)
		if er != nil {
			return nil, er
		}
		sign := 1.0
		if k%2 == 1 {
			sign = -1.0
		}
		t, er := expr.NewProduct(expr.NewScalarValue(sign), pivot, minor)
		if er != nil {
			return nil, er
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return expr.NewSum(terms...)
}

func axis(n int) []int {
	out := make([]int, n, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func without(xs []int, k int) []int {
	out := make([]int, 0, len(xs)-1)
	for _, x := range xs {
		if x != k {
			out = append(out, x)
		}
	}
	return out
}

// squareDet expands the determinant of a square rank-2 expression.
func squareDet(a expr.Expression, n int) (expr.Expression, err.Error) {
	if n == 1 {
		return entry(a, 0, 0)
	}
	return minorDet(a, axis(n), axis(n))
}

// gram builds A^T A componentwise, the square matrix underlying the
// pseudo-determinant and pseudo-inverse of a non-square A.
func gram(a expr.Expression) (expr.Expression, err.Error) {
	i, j, k := expr.NewIndex(), expr.NewIndex(), expr.NewIndex()
	aki, er := expr.NewIndexed(a, expr.MultiIndex{k, i})
	if er != nil {
		return nil, er
	}
	akj, er := expr.NewIndexed(a, expr.MultiIndex{k, j})
	if er != nil {
		return nil, er
	}
	p, er := expr.NewProduct(aki, akj)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(p, i, j)
}

// lowerDeterminant expands det(A) for square A by cofactors, and the
// pseudo-determinant sqrt(det(A^T A)) otherwise.
func lowerDeterminant(a expr.Expression) (expr.Expression, err.Error) {
	sh := a.Shape()
	if sh[0] == sh[1] {
		return squareDet(a, sh[0])
	}
	g, er := gram(a)
	if er != nil {
		return nil, er
	}
	d, er := squareDet(g, sh[1])
	if er != nil {
		return nil, er
	}
	return expr.NewSqrt(d)
}

// cofactorEntry: (-1)^(i+j) times the minor obtained by deleting row i
// and column j.
func cofactorEntry(a expr.Expression, n, i, j int) (expr.Expression, err.Error) {
	if n == 1 {
		return expr.NewScalarValue(1), nil
	}
	minor, er := minorDet(a, without(axis(n), i), without(axis(n), j))
	if er != nil {
		return nil, er
	}
	if (i+j)%2 == 0 {
		return minor, nil
	}
	return expr.NewProduct(expr.NewScalarValue(-1), minor)
}

// squareInverse: inv(A)[i,j] = cof(A)[j,i] / det(A).
func squareInverse(a expr.Expression, n int) (expr.Expression, err.Error) {
	det, er := squareDet(a, n)
	if er != nil {
		return nil, er
	}
	rows := make([]expr.Expression, n, n)
	for i := 0; i < n; i++ {
		cells := make([]expr.Expression, n, n)
		for j := 0; j < n; j++ {
			cof, er := cofactorEntry(a, n, j, i)
			if er != nil {
				return nil, er
			}
			cell, er := expr.NewDivision(cof, det)
			if er != nil {
				return nil, er
			}
			cells[j] = cell
		}
		row, er := expr.NewListTensor(cells...)
		if er != nil {
			return nil, er
		}
		rows[i] = row
	}
	return expr.NewListTensor(rows...)
}

// lowerInverse expands inv(A) for square A, and the left pseudo-inverse
// (A^T A)^-1 A^T otherwise.
func lowerInverse(a expr.Expression) (expr.Expression, err.Error) {
	sh := a.Shape()
	if sh[0] == sh[1] {
		return squareInverse(a, sh[0])
	}
	g, er := gram(a)
	if er != nil {
		return nil, er
	}
	ginv, er := squareInverse(g, sh[1])
	if er != nil {
		return nil, er
	}
	// (G^-1 A^T)[i,j] = G^-1[i,k] A[j,k].
	i, j, k := expr.NewIndex(), expr.NewIndex(), expr.NewIndex()
	gik, er := expr.NewIndexed(ginv, expr.MultiIndex{i, k})
	if er != nil {
		return nil, er
	}
	ajk, er := expr.NewIndexed(a, expr.MultiIndex{j, k})
	if er != nil {
		return nil, er
	}
	p, er := expr.NewProduct(gik, ajk)
	if er != nil {
		return nil, er
	}
	return expr.NewComponentTensor(p, i, j)
}

// lowerCofactor: cof(A)[i,j] componentwise by minors.
func lowerCofactor(a expr.Expression) (expr.Expression, err.Error) {
	n := a.Shape()[0]
	rows := make([]expr.Expression, n, n)
	for i := 0; i < n; i++ {
		cells := make([]expr.Expression, n, n)
		for j := 0; j < n; j++ {
			cof, er := cofactorEntry(a, n, i, j)
			if er != nil {
				return nil, er
			}
			cells[j] = cof
		}
		row, er := expr.NewListTensor(cells...)
		if er != nil {
			return nil, er
		}
		rows[i] = row
	}
	return expr.NewListTensor(rows...)
}
