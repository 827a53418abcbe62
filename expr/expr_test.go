// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"testing"

	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/space"
)

func testMesh() *space.Mesh {
	return space.NewMesh(space.VectorElement("Lagrange", space.Triangle, 1), 0)
}

func testSpace(valueShape ...int) *space.Space {
	el := space.NewElement("Lagrange", space.Triangle, 1, valueShape...)
	return space.NewSpace(testMesh(), el)
}

func TestTerminalShapes(t *testing.T) {
	{
		u := TestFunction(testSpace())
		if u.Shape().Rank() != 0 {
			t.Fatalf("case 1: scalar argument has shape %v", u.Shape())
		}
	}
	{
		u := TrialFunction(testSpace(2))
		if !u.Shape().Equals(Shape{2}) {
			t.Fatalf("case 2: vector argument has shape %v", u.Shape())
		}
		if u.Number != 1 {
			t.Fatalf("case 2: trial function numbered %d", u.Number)
		}
	}
	{
		x := NewSpatialCoordinate(testMesh())
		if !x.Shape().Equals(Shape{2}) {
			t.Fatalf("case 3: coordinate has shape %v", x.Shape())
		}
	}
	{
		c1 := NewCoefficient(testSpace())
		c2 := NewCoefficient(testSpace())
		if c1.Count == c2.Count {
			t.Fatal("case 4: coefficient counts must be distinct")
		}
	}
	{
		id := NewIdentity(3)
		if !id.Shape().Equals(Shape{3, 3}) {
			t.Fatalf("case 5: identity has shape %v", id.Shape())
		}
	}
}

func TestSumErrors(t *testing.T) {
	{
		c := NewCoefficient(testSpace())
		if _, er := NewSum(c); er == nil {
			t.Fatal("case 1: expected arity error")
		} else if _, ok := er.(err.ArityError); !ok {
			t.Fatalf("case 1: expected arity error, have %T", er)
		}
	}
	{
		a := NewCoefficient(testSpace(2, 3))
		b := NewCoefficient(testSpace(3, 2))
		if _, er := NewSum(a, b); er == nil {
			t.Fatal("case 2: expected shape mismatch")
		} else if _, ok := er.(err.ShapeMismatchError); !ok {
			t.Fatalf("case 2: expected shape mismatch, have %T", er)
		}
	}
	{
		// Transposing one operand makes the shapes agree.
		a := NewCoefficient(testSpace(2, 3))
		b := NewCoefficient(testSpace(3, 2))
		bt, er := NewTransposed(b)
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		s, er := NewSum(a, bt)
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if !s.Shape().Equals(Shape{2, 3}) {
			t.Fatalf("case 3: sum has shape %v", s.Shape())
		}
	}
	{
		// Nested sums flatten.
		a, b, c := NewScalarValue(1), NewScalarValue(2), NewScalarValue(3)
		inner, er := NewSum(a, b)
		if er != nil {
			t.Fatalf("case 4: %v", er)
		}
		outer, er := NewSum(inner, c)
		if er != nil {
			t.Fatalf("case 4: %v", er)
		}
		if n := len(outer.Operands()); n != 3 {
			t.Fatalf("case 4: expected 3 flattened operands, have %d", n)
		}
	}
}

func TestImplicitSummation(t *testing.T) {
	v := NewCoefficient(testSpace(3))
	{
		// v[i]*v[i] contracts over i: scalar, no free indices.
		i := NewIndex()
		a, er := NewIndexed(v, MultiIndex{i})
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		b, er := NewIndexed(v, MultiIndex{i})
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		p, er := NewProduct(a, b)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if _, ok := p.(*IndexSum); !ok {
			t.Fatalf("case 1: expected implicit index sum, have %T", p)
		}
		if p.Shape().Rank() != 0 || len(p.FreeIndices()) != 0 {
			t.Fatalf("case 1: contraction left shape %v free %v", p.Shape(), p.FreeIndices())
		}
	}
	{
		// A third occurrence is an error.
		i := NewIndex()
		a, _ := NewIndexed(v, MultiIndex{i})
		b, _ := NewIndexed(v, MultiIndex{i})
		c, _ := NewIndexed(v, MultiIndex{i})
		if _, er := NewProduct(a, b, c); er == nil {
			t.Fatal("case 2: expected index repetition error")
		} else if _, ok := er.(err.IndexRepetitionError); !ok {
			t.Fatalf("case 2: expected index repetition error, have %T", er)
		}
	}
	{
		// A[i,i] contracts at indexing time.
		m := NewCoefficient(testSpace(3, 3))
		i := NewIndex()
		tr, er := NewIndexed(m, MultiIndex{i, i})
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if _, ok := tr.(*IndexSum); !ok {
			t.Fatalf("case 3: expected implicit index sum, have %T", tr)
		}
	}
	{
		// A single occurrence stays free with its range recorded.
		i := NewIndex()
		a, er := NewIndexed(v, MultiIndex{i})
		if er != nil {
			t.Fatalf("case 4: %v", er)
		}
		if free := a.FreeIndices(); len(free) != 1 || free[0] != i.Label {
			t.Fatalf("case 4: free indices %v", free)
		}
		if dims := a.IndexDimensions(); len(dims) != 1 || dims[0] != 3 {
			t.Fatalf("case 4: index ranges %v", dims)
		}
	}
}

func TestIndexRanges(t *testing.T) {
	// m[i,j]*v[j] leaves i free and binds j; both labels report range 3.
	m := NewCoefficient(testSpace(3, 3))
	v := NewCoefficient(testSpace(3))
	i, j := NewIndex(), NewIndex()
	a, er := NewIndexed(m, MultiIndex{i, j})
	if er != nil {
		t.Fatal(er)
	}
	b, er := NewIndexed(v, MultiIndex{j})
	if er != nil {
		t.Fatal(er)
	}
	p, er := NewProduct(a, b)
	if er != nil {
		t.Fatal(er)
	}
	ranges := IndexRanges(p)
	if len(ranges) != 2 || ranges[i.Label] != 3 || ranges[j.Label] != 3 {
		t.Fatalf("index ranges %v", ranges)
	}
}

func TestIndexingErrors(t *testing.T) {
	v := NewCoefficient(testSpace(3))
	{
		if _, er := NewIndexed(v, MultiIndex{FixedIndex(3)}); er == nil {
			t.Fatal("case 1: expected out-of-range error")
		}
	}
	{
		i := NewIndex()
		if _, er := NewIndexed(v, MultiIndex{i, i}); er == nil {
			t.Fatal("case 2: expected rank mismatch")
		}
	}
	{
		// Summing over a label that is not free.
		i := NewIndex()
		if _, er := NewIndexSum(NewScalarValue(1), i); er == nil {
			t.Fatal("case 3: expected unresolved index error")
		} else if _, ok := er.(err.UnresolvedIndexError); !ok {
			t.Fatalf("case 3: expected unresolved index error, have %T", er)
		}
	}
	{
		// A division by an expression with free indices is rejected.
		i := NewIndex()
		vi, _ := NewIndexed(v, MultiIndex{i})
		if _, er := NewDivision(NewScalarValue(1), vi); er == nil {
			t.Fatal("case 4: expected unresolved index error")
		} else if _, ok := er.(err.UnresolvedIndexError); !ok {
			t.Fatalf("case 4: expected unresolved index error, have %T", er)
		}
	}
}

func TestComponentTensor(t *testing.T) {
	m := NewCoefficient(testSpace(2, 3))
	{
		// Rolling A[i,j] up over (j,i) transposes the shape.
		i, j := NewIndex(), NewIndex()
		aij, er := NewIndexed(m, MultiIndex{i, j})
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		ct, er := NewComponentTensor(aij, j, i)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if !ct.Shape().Equals(Shape{3, 2}) {
			t.Fatalf("case 1: component tensor has shape %v", ct.Shape())
		}
		if len(ct.FreeIndices()) != 0 {
			t.Fatalf("case 1: free indices %v remain", ct.FreeIndices())
		}
	}
	{
		// Rolling up an index that is not free fails.
		i, j := NewIndex(), NewIndex()
		aij, _ := NewIndexed(m, MultiIndex{i, j})
		k := NewIndex()
		if _, er := NewComponentTensor(aij, i, k); er == nil {
			t.Fatal("case 2: expected unresolved index error")
		}
	}
	{
		v := NewCoefficient(testSpace())
		lt, er := NewListTensor(v, NewScalarValue(1))
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if !lt.Shape().Equals(Shape{2}) {
			t.Fatalf("case 3: list tensor has shape %v", lt.Shape())
		}
	}
}

func TestTensorAlgebraShapes(t *testing.T) {
	a := NewCoefficient(testSpace(2, 3))
	b := NewCoefficient(testSpace(3, 4))
	v := NewCoefficient(testSpace(3))
	{
		d, er := NewDot(a, b)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if !d.Shape().Equals(Shape{2, 4}) {
			t.Fatalf("case 1: dot has shape %v", d.Shape())
		}
	}
	{
		if _, er := NewDot(b, a); er == nil {
			t.Fatal("case 2: expected shape mismatch")
		}
	}
	{
		o, er := NewOuter(v, v)
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if !o.Shape().Equals(Shape{3, 3}) {
			t.Fatalf("case 3: outer has shape %v", o.Shape())
		}
	}
	{
		in, er := NewInner(a, a)
		if er != nil {
			t.Fatalf("case 4: %v", er)
		}
		if in.Shape().Rank() != 0 {
			t.Fatalf("case 4: inner has shape %v", in.Shape())
		}
	}
	{
		if _, er := NewInner(NewScalarValue(1), NewScalarValue(2)); er == nil {
			t.Fatal("case 5: inner of scalars is rejected")
		}
	}
	{
		c, er := NewCross(v, v)
		if er != nil {
			t.Fatalf("case 6: %v", er)
		}
		if !c.Shape().Equals(Shape{3}) {
			t.Fatalf("case 6: cross has shape %v", c.Shape())
		}
	}
	{
		if _, er := NewDeterminant(v); er == nil {
			t.Fatal("case 7: determinant of a vector is rejected")
		}
	}
	{
		m := NewCoefficient(testSpace(2, 2))
		for _, build := range []func(Expression) (Expression, err.Error){
			NewTrace, NewDeterminant, NewCofactor, NewDeviatoric, NewSkew, NewSym,
		} {
			if _, er := build(m); er != nil {
				t.Fatalf("case 8: %v", er)
			}
		}
	}
}

func TestDifferentialShapes(t *testing.T) {
	{
		u := NewCoefficient(testSpace())
		g, er := NewGrad(u)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if !g.Shape().Equals(Shape{2}) {
			t.Fatalf("case 1: gradient has shape %v", g.Shape())
		}
	}
	{
		u := NewCoefficient(testSpace(2))
		g, er := NewGrad(u)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if !g.Shape().Equals(Shape{2, 2}) {
			t.Fatalf("case 2: gradient has shape %v", g.Shape())
		}
		d, er := NewDiv(u)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if d.Shape().Rank() != 0 {
			t.Fatalf("case 2: divergence has shape %v", d.Shape())
		}
	}
	{
		// Curl in 2d is scalar-valued.
		u := NewCoefficient(testSpace(2))
		c, er := NewCurl(u)
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if c.Shape().Rank() != 0 {
			t.Fatalf("case 3: 2d curl has shape %v", c.Shape())
		}
	}
	{
		// A pure constant has no domain to differentiate over.
		if _, er := NewGrad(NewScalarValue(1)); er == nil {
			t.Fatal("case 4: expected error for domainless gradient")
		}
	}
	{
		if _, er := NewDiv(NewCoefficient(testSpace())); er == nil {
			t.Fatal("case 5: divergence of a scalar is rejected")
		}
	}
}

func TestRestriction(t *testing.T) {
	u := NewCoefficient(testSpace())
	{
		r, er := NewRestricted(u, PositiveSide)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if _, er := NewRestricted(r, NegativeSide); er == nil {
			t.Fatal("case 1: nested restriction is rejected")
		}
	}
	{
		j, er := NewJump(u)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if j.Shape().Rank() != 0 {
			t.Fatalf("case 2: jump has shape %v", j.Shape())
		}
	}
}

func TestConditional(t *testing.T) {
	u := NewCoefficient(testSpace())
	{
		cmp, er := NewComparison(LT, u, NewScalarValue(0))
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		c, er := NewConditional(cmp, NewScalarValue(1), NewScalarValue(2))
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if c.Shape().Rank() != 0 {
			t.Fatalf("case 1: conditional has shape %v", c.Shape())
		}
	}
	{
		cmp, _ := NewComparison(LT, u, NewScalarValue(0))
		v := NewCoefficient(testSpace(2))
		if _, er := NewConditional(cmp, v, NewScalarValue(1)); er == nil {
			t.Fatal("case 2: expected shape mismatch between branches")
		}
	}
	{
		if _, er := NewConditional(u, NewScalarValue(1), NewScalarValue(2)); er == nil {
			t.Fatal("case 3: condition must be a comparison")
		}
	}
}

func TestZero(t *testing.T) {
	{
		v := NewCoefficient(testSpace(3))
		i := NewIndex()
		vi, _ := NewIndexed(v, MultiIndex{i})
		z := ZeroLike(vi)
		if !z.Shape().Equals(vi.Shape()) {
			t.Fatalf("case 1: zero has shape %v", z.Shape())
		}
		if free := z.FreeIndices(); len(free) != 1 || free[0] != i.Label {
			t.Fatalf("case 1: zero has free indices %v", free)
		}
	}
	{
		if !IsZero(ZeroScalar()) || !IsZero(NewScalarValue(0)) || IsZero(NewScalarValue(1)) {
			t.Fatal("case 2: zero detection")
		}
	}
}

func TestWalkAndTransform(t *testing.T) {
	u := NewCoefficient(testSpace())
	{
		// A pointer-shared subtree is visited once.
		p, er := NewProduct(u, u)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		visits := 0
		Walk(p, func(n Expression) {
			if n == Expression(u) {
				visits++
			}
		})
		if visits != 1 {
			t.Fatalf("case 1: shared terminal visited %d times", visits)
		}
	}
	{
		// Identity transform returns the same node.
		s, er := NewSum(u, NewScalarValue(1))
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		r, er := Transform(s, func(n Expression) (Expression, err.Error) { return n, nil })
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if r != s {
			t.Fatal("case 2: identity transform rebuilt the tree")
		}
	}
	{
		// Replacing a terminal rebuilds ancestors with shapes intact.
		v := NewCoefficient(testSpace())
		s, _ := NewSum(u, NewScalarValue(1))
		r, er := Transform(s, func(n Expression) (Expression, err.Error) {
			if n == Expression(u) {
				return v, nil
			}
			return n, nil
		})
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if r == s {
			t.Fatal("case 3: transform did not rebuild")
		}
		if !r.Shape().Equals(s.Shape()) {
			t.Fatalf("case 3: rebuild changed shape to %v", r.Shape())
		}
	}
}

func TestIsCellwiseConstant(t *testing.T) {
	{
		if !IsCellwiseConstant(NewScalarValue(3)) {
			t.Fatal("case 1")
		}
	}
	{
		if IsCellwiseConstant(NewSpatialCoordinate(testMesh())) {
			t.Fatal("case 2")
		}
	}
	{
		dg0 := space.NewSpace(testMesh(), space.NewElement("Discontinuous Lagrange", space.Triangle, 0))
		if !IsCellwiseConstant(NewCoefficient(dg0)) {
			t.Fatal("case 3")
		}
	}
}
