// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package form

import (
	"testing"

	"github.com/conpierce8/ufl/analysis"
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/space"
)

func testMesh(id int) *space.Mesh {
	return space.NewMesh(space.VectorElement("Lagrange", space.Triangle, 1), id)
}

func testSpace(mesh *space.Mesh, valueShape ...int) *space.Space {
	el := space.NewElement("Lagrange", space.Triangle, 1, valueShape...)
	return space.NewSpace(mesh, el)
}

// stiffness builds the integrand inner(grad u, grad v) on sp.
func stiffness(t *testing.T, sp *space.Space) expr.Expression {
	u := expr.TrialFunction(sp)
	v := expr.TestFunction(sp)
	gu, er := expr.NewGrad(u)
	if er != nil {
		t.Fatal(er)
	}
	gv, er := expr.NewGrad(v)
	if er != nil {
		t.Fatal(er)
	}
	e, er := expr.NewInner(gu, gv)
	if er != nil {
		t.Fatal(er)
	}
	return e
}

func TestIntegralValidation(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	{
		if _, er := NewIntegral(CellIntegral, stiffness(t, sp), mesh, Everywhere, nil); er != nil {
			t.Fatalf("case 1: %v", er)
		}
	}
	{
		// Vector-valued integrands are rejected.
		v := expr.NewCoefficient(testSpace(mesh, 2))
		if _, er := NewIntegral(CellIntegral, v, mesh, Everywhere, nil); er == nil {
			t.Fatal("case 2: expected shape mismatch")
		} else if _, ok := er.(err.ShapeMismatchError); !ok {
			t.Fatalf("case 2: expected shape mismatch, have %T", er)
		}
	}
	{
		// Integrands with free indices are rejected.
		v := expr.NewCoefficient(testSpace(mesh, 2))
		i := expr.NewIndex()
		vi, er := expr.NewIndexed(v, expr.MultiIndex{i})
		if er != nil {
			t.Fatalf("case 3: %v", er)
		}
		if _, er := NewIntegral(CellIntegral, vi, mesh, Everywhere, nil); er == nil {
			t.Fatal("case 3: expected unresolved index error")
		} else if _, ok := er.(err.UnresolvedIndexError); !ok {
			t.Fatalf("case 3: expected unresolved index error, have %T", er)
		}
	}
	{
		if _, er := NewIntegral(IntegralType("vertex"), stiffness(t, sp), mesh, Everywhere, nil); er == nil {
			t.Fatal("case 4: expected unknown integral type error")
		}
	}
	{
		if _, er := NewIntegral(CellIntegral, stiffness(t, sp), mesh, -7, nil); er == nil {
			t.Fatal("case 5: expected invalid subdomain error")
		}
	}
	{
		if _, er := NewIntegral(CustomIntegral, stiffness(t, sp), mesh, Everywhere, nil); er != nil {
			t.Fatalf("case 6: custom integrals are valid, have %v", er)
		}
	}
}

func TestFormGrouping(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	e := stiffness(t, sp)
	cell0, er := NewIntegral(CellIntegral, e, mesh, 0, nil)
	if er != nil {
		t.Fatal(er)
	}
	cell1, er := NewIntegral(CellIntegral, e, mesh, 1, nil)
	if er != nil {
		t.Fatal(er)
	}
	cell1b, er := NewIntegral(CellIntegral, e, mesh, 1, nil)
	if er != nil {
		t.Fatal(er)
	}
	facet, er := NewIntegral(ExteriorFacetIntegral, e, mesh, Everywhere, nil)
	if er != nil {
		t.Fatal(er)
	}
	f, er := NewForm(cell0, cell1, cell1b, facet)
	if er != nil {
		t.Fatal(er)
	}
	{
		if n := len(f.ByType(CellIntegral)); n != 3 {
			t.Fatalf("case 1: %d cell integrals", n)
		}
		if n := len(f.BySubdomain(1)); n != 2 {
			t.Fatalf("case 1: %d integrals on subdomain 1", n)
		}
		if n := len(f.ByKey(Key{CellIntegral, 1})); n != 2 {
			t.Fatalf("case 1: %d cell integrals on subdomain 1", n)
		}
	}
	{
		keys, groups := f.GroupByKey()
		if len(keys) != 3 {
			t.Fatalf("case 2: %d buckets", len(keys))
		}
		if len(groups[Key{CellIntegral, 1}]) != 2 {
			t.Fatal("case 2: bucket for cell subdomain 1 incomplete")
		}
	}
	{
		if f.Arity() != 2 {
			t.Fatalf("case 3: arity %d", f.Arity())
		}
		if f.Domain() != mesh {
			t.Fatal("case 3: wrong domain")
		}
	}
}

func TestFormAdd(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	e := stiffness(t, sp)
	a, er := NewIntegral(CellIntegral, e, mesh, Everywhere, nil)
	if er != nil {
		t.Fatal(er)
	}
	b, er := NewIntegral(ExteriorFacetIntegral, e, mesh, Everywhere, nil)
	if er != nil {
		t.Fatal(er)
	}
	fa, er := NewForm(a)
	if er != nil {
		t.Fatal(er)
	}
	fb, er := NewForm(b)
	if er != nil {
		t.Fatal(er)
	}
	sum, er := fa.Add(fb)
	if er != nil {
		t.Fatal(er)
	}
	if len(sum.Integrals()) != 2 {
		t.Fatalf("combined form has %d integrals", len(sum.Integrals()))
	}
	{
		// Forms over distinct meshes concatenate too.
		other := testMesh(1)
		c, er := NewIntegral(CellIntegral, stiffness(t, testSpace(other)), other, Everywhere, nil)
		if er != nil {
			t.Fatal(er)
		}
		fc, er := NewForm(c)
		if er != nil {
			t.Fatal(er)
		}
		multi, er := fa.Add(fc)
		if er != nil {
			t.Fatalf("multi-domain add: %v", er)
		}
		if len(multi.Integrals()) != 2 {
			t.Fatalf("multi-domain add has %d integrals", len(multi.Integrals()))
		}
		if len(multi.Domains()) != 2 {
			t.Fatalf("multi-domain add spans %d domains", len(multi.Domains()))
		}
	}
}

func TestFormArgumentNumbering(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	// A lone argument numbered 1 leaves a gap at 0.
	u := expr.TrialFunction(sp)
	c := expr.NewCoefficient(sp)
	e, er := expr.NewProduct(u, c)
	if er != nil {
		t.Fatal(er)
	}
	it, er := NewIntegral(CellIntegral, e, mesh, Everywhere, nil)
	if er != nil {
		t.Fatal(er)
	}
	f, er := NewForm(it)
	if er != nil {
		t.Fatal(er)
	}
	if er := f.Validate(); er == nil {
		t.Fatal("expected arity error for non-contiguous argument numbers")
	} else if _, ok := er.(err.ArityError); !ok {
		t.Fatalf("expected arity error, have %T", er)
	}
}

func TestFormValidateSpaces(t *testing.T) {
	mesh := testMesh(0)
	{
		// Two structurally equal spaces built separately are one space.
		a := expr.TestFunction(testSpace(testMesh(0)))
		b := expr.TestFunction(testSpace(testMesh(0)))
		p, er := expr.NewSum(a, b)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		it, er := NewIntegral(CellIntegral, p, mesh, Everywhere, nil)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		f, er := NewForm(it)
		if er != nil {
			t.Fatalf("case 1: %v", er)
		}
		if er := f.Validate(); er != nil {
			t.Fatalf("case 1: structurally equal spaces rejected: %v", er)
		}
	}
	{
		// The same number on two different spaces is rejected.
		a := expr.TestFunction(testSpace(mesh))
		other := space.NewSpace(mesh, space.NewElement("Lagrange", space.Triangle, 2))
		b := expr.TestFunction(other)
		p, er := expr.NewSum(a, b)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		it, er := NewIntegral(CellIntegral, p, mesh, Everywhere, nil)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		f, er := NewForm(it)
		if er != nil {
			t.Fatalf("case 2: %v", er)
		}
		if er := f.Validate(); er == nil {
			t.Fatal("case 2: expected one space per argument number and part")
		} else if _, ok := er.(err.ArityError); !ok {
			t.Fatalf("case 2: expected arity error, have %T", er)
		}
	}
}

func TestFormSignature(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	build := func(subdomain int, metadata map[string]string) *Form {
		it, er := NewIntegral(CellIntegral, stiffness(t, sp), mesh, subdomain, metadata)
		if er != nil {
			t.Fatal(er)
		}
		f, er := NewForm(it)
		if er != nil {
			t.Fatal(er)
		}
		return f
	}
	{
		// Equivalent forms built twice digest identically.
		if build(Everywhere, nil).Signature() != build(Everywhere, nil).Signature() {
			t.Fatal("case 1: signature is not canonical")
		}
	}
	{
		if build(Everywhere, nil).Signature() == build(3, nil).Signature() {
			t.Fatal("case 2: subdomain ignored by signature")
		}
	}
	{
		a := build(Everywhere, map[string]string{"quadrature_degree": "2"})
		b := build(Everywhere, map[string]string{"quadrature_degree": "4"})
		if a.Signature() == b.Signature() {
			t.Fatal("case 3: metadata ignored by signature")
		}
	}
}

func TestFormAnalysis(t *testing.T) {
	mesh := testMesh(0)
	sp := testSpace(mesh)
	c := expr.NewCoefficient(sp)
	v := expr.TestFunction(sp)
	e, er := expr.NewProduct(c, v)
	if er != nil {
		t.Fatal(er)
	}
	it, er := NewIntegral(CellIntegral, e, mesh, Everywhere, nil)
	if er != nil {
		t.Fatal(er)
	}
	f, er := NewForm(it)
	if er != nil {
		t.Fatal(er)
	}
	if n := len(analysis.Coefficients(f)); n != 1 {
		t.Fatalf("form exposes %d coefficients", n)
	}
	if n := len(analysis.Arguments(f)); n != 1 {
		t.Fatalf("form exposes %d arguments", n)
	}
}
