// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"sync/atomic"

	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/space"
)

var noOperands = []Expression(nil)

// Argument is an unknown function in a form: number 0 is the test
// function, number 1 the trial function, higher numbers appear in
// higher-order linearizations. Part is the subspace index for
// arguments over a mixed space, -1 otherwise.
type Argument struct {
	attrs
	Space  *space.Space
	Number int
	Part   int
}

func NewArgument(sp *space.Space, number int) *Argument {
	if number < 0 {
		panic("argument number must be nonnegative")
	}
	return &Argument{attrs{sp.ValueShape(), nil, nil}, sp, number, -1}
}

// NewPartArgument returns an argument bound to one subspace of a mixed
// space: same number as its siblings, distinguished by part.
func NewPartArgument(sp *space.Space, number, part int) *Argument {
	if number < 0 || part < 0 {
		panic("argument number and part must be nonnegative")
	}
	return &Argument{attrs{sp.ValueShape(), nil, nil}, sp, number, part}
}

func (x *Argument) Operands() []Expression {
	return noOperands
}

// TestFunction returns the argument numbered 0 on sp.
func TestFunction(sp *space.Space) *Argument {
	return NewArgument(sp, 0)
}

// TrialFunction returns the argument numbered 1 on sp.
func TrialFunction(sp *space.Space) *Argument {
	return NewArgument(sp, 1)
}

// TestFunctions returns one test function per subspace of ms, in
// subspace order. All share argument number 0.
func TestFunctions(ms *space.MixedSpace) []*Argument {
	return partArguments(ms, 0)
}

// TrialFunctions returns one trial function per subspace of ms, in
// subspace order. All share argument number 1.
func TrialFunctions(ms *space.MixedSpace) []*Argument {
	return partArguments(ms, 1)
}

func partArguments(ms *space.MixedSpace, number int) []*Argument {
	out := make([]*Argument, ms.NumSubspaces(), ms.NumSubspaces())
	for i := range out {
		out[i] = NewPartArgument(ms.Subspace(i), number, i)
	}
	return out
}

var coefficientCounter int64 = -1

// Coefficient is a known function in a form, distinguished by a
// process-unique count.
type Coefficient struct {
	attrs
	Space *space.Space
	Count int
}

func NewCoefficient(sp *space.Space) *Coefficient {
	count := int(atomic.AddInt64(&coefficientCounter, 1))
	return &Coefficient{attrs{sp.ValueShape(), nil, nil}, sp, count}
}

func (x *Coefficient) Operands() []Expression {
	return noOperands
}

// SpatialCoordinate is the coordinate field of a mesh, a vector of the
// geometric dimension.
type SpatialCoordinate struct {
	attrs
	Mesh *space.Mesh
}

func NewSpatialCoordinate(m *space.Mesh) *SpatialCoordinate {
	return &SpatialCoordinate{attrs{Shape{m.GeometricDimension()}, nil, nil}, m}
}

func (x *SpatialCoordinate) Operands() []Expression {
	return noOperands
}

// FacetNormal is the outward unit normal on a facet of a mesh.
type FacetNormal struct {
	attrs
	Mesh *space.Mesh
}

func NewFacetNormal(m *space.Mesh) *FacetNormal {
	return &FacetNormal{attrs{Shape{m.GeometricDimension()}, nil, nil}, m}
}

func (x *FacetNormal) Operands() []Expression {
	return noOperands
}

// CellVolume is the volume of the current cell, a scalar geometric
// quantity that is constant within each cell.
type CellVolume struct {
	attrs
	Mesh *space.Mesh
}

func NewCellVolume(m *space.Mesh) *CellVolume {
	return &CellVolume{scalarAttrs(), m}
}

func (x *CellVolume) Operands() []Expression {
	return noOperands
}

// ScalarValue is a literal scalar constant.
type ScalarValue struct {
	attrs
	Value float64
}

func NewScalarValue(v float64) *ScalarValue {
	return &ScalarValue{scalarAttrs(), v}
}

func (x *ScalarValue) Operands() []Expression {
	return noOperands
}

// Zero is the typed zero of a given shape and free-index set. It is the
// result of differentiating unrelated terminals and of annihilator
// rewrites, and must carry shape and indices so those rewrites preserve
// the invariants of the tree around them.
type Zero struct {
	attrs
}

func NewZero(shape Shape, freeIndices, indexDimensions []int) (*Zero, err.Error) {
	if len(freeIndices) != len(indexDimensions) {
		return nil, err.ShapeMismatchError{
			Kind:   "zero",
			Detail: "free index labels and ranges differ in length",
		}
	}
	p := &indexPairs{copyInts(freeIndices), copyInts(indexDimensions)}
	p.sort()
	return &Zero{attrs{shape.copy(), p.labels, p.dims}}, nil
}

// ZeroScalar returns the scalar zero.
func ZeroScalar() *Zero {
	return &Zero{scalarAttrs()}
}

// ZeroLike returns the zero with e's shape and free indices.
func ZeroLike(e Expression) *Zero {
	z, _ := NewZero(e.Shape(), e.FreeIndices(), e.IndexDimensions())
	return z
}

func (x *Zero) Operands() []Expression {
	return noOperands
}

// Identity is the rank-2 identity tensor of a given dimension.
type Identity struct {
	attrs
	Dim int
}

func NewIdentity(dim int) *Identity {
	return &Identity{attrs{Shape{dim, dim}, nil, nil}, dim}
}

func (x *Identity) Operands() []Expression {
	return noOperands
}

// IsZero reports whether e is a typed zero or a literal scalar zero.
func IsZero(e Expression) bool {
	switch v := e.(type) {
	case *Zero:
		return true
	case *ScalarValue:
		return v.Value == 0
	}
	return false
}

// IsScalarValue reports whether e is the literal scalar v.
func IsScalarValue(e Expression, v float64) bool {
	s, ok := e.(*ScalarValue)
	return ok && s.Value == v
}
