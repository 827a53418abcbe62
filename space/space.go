// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package space defines the immutable function-space descriptors carried
// by terminal expression nodes: reference cells, finite elements, meshes
// and function spaces. None of these are geometric computations, they are
// metadata only: the engine needs them for shapes, dimensions and identity.
package space

import (
	"fmt"
	"strings"
)

// Cell is a reference cell. Cells are compared by value.
type Cell struct {
	Name                 string
	TopologicalDimension int
	GeometricDimension   int
}

var (
	Interval      = Cell{"interval", 1, 1}
	Triangle      = Cell{"triangle", 2, 2}
	Tetrahedron   = Cell{"tetrahedron", 3, 3}
	Quadrilateral = Cell{"quadrilateral", 2, 2}
	Hexahedron    = Cell{"hexahedron", 3, 3}
)

func (c Cell) String() string {
	return c.Name
}

// Element describes a finite element: a family name, a reference cell,
// a polynomial degree and the value shape of its functions. The empty
// value shape denotes a scalar element.
type Element struct {
	Family     string
	Cell       Cell
	Degree     int
	valueShape []int
}

func NewElement(family string, cell Cell, degree int, valueShape ...int) Element {
	vs := make([]int, len(valueShape), len(valueShape))
	copy(vs, valueShape)
	return Element{family, cell, degree, vs}
}

// VectorElement is shorthand for an element whose value shape is the
// geometric dimension of its cell.
func VectorElement(family string, cell Cell, degree int) Element {
	return NewElement(family, cell, degree, cell.GeometricDimension)
}

// TensorElement is shorthand for an element with a square matrix value shape.
func TensorElement(family string, cell Cell, degree int) Element {
	d := cell.GeometricDimension
	return NewElement(family, cell, degree, d, d)
}

// ValueShape returns a copy of the element's value shape.
func (e Element) ValueShape() []int {
	vs := make([]int, len(e.valueShape), len(e.valueShape))
	copy(vs, e.valueShape)
	return vs
}

func (e Element) Equals(o Element) bool {
	if e.Family != o.Family || e.Cell != o.Cell || e.Degree != o.Degree {
		return false
	}
	if len(e.valueShape) != len(o.valueShape) {
		return false
	}
	for i, d := range e.valueShape {
		if o.valueShape[i] != d {
			return false
		}
	}
	return true
}

func (e Element) String() string {
	ss := make([]string, len(e.valueShape), len(e.valueShape))
	for i, d := range e.valueShape {
		ss[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("<%s degree %d on %s, shape (%s)>", e.Family, e.Degree, e.Cell, strings.Join(ss, ","))
}

// Mesh identifies a geometric domain by its coordinate element and a
// user-chosen id. Two meshes with equal coordinate elements and equal
// ids describe the same domain.
type Mesh struct {
	Coordinates Element
	Id          int
}

func NewMesh(coordinates Element, id int) *Mesh {
	return &Mesh{coordinates, id}
}

func (m *Mesh) GeometricDimension() int {
	return m.Coordinates.Cell.GeometricDimension
}

func (m *Mesh) TopologicalDimension() int {
	return m.Coordinates.Cell.TopologicalDimension
}

func (m *Mesh) Equals(o *Mesh) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	return m.Id == o.Id && m.Coordinates.Equals(o.Coordinates)
}

func (m *Mesh) String() string {
	return fmt.Sprintf("<mesh %d over %s>", m.Id, m.Coordinates.Cell)
}

// Space pairs a mesh with an element. Arguments and Coefficients are
// defined on a Space; their value shape is the element's value shape.
type Space struct {
	Mesh    *Mesh
	Element Element
}

func NewSpace(mesh *Mesh, element Element) *Space {
	return &Space{mesh, element}
}

func (s *Space) ValueShape() []int {
	return s.Element.ValueShape()
}

func (s *Space) Equals(o *Space) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.Mesh.Equals(o.Mesh) && s.Element.Equals(o.Element)
}

// MixedSpace is an ordered product of function spaces. The subspaces
// may live on distinct meshes; arguments over a mixed space record the
// index of the subspace they belong to.
type MixedSpace struct {
	subspaces []*Space
}

func NewMixedSpace(subspaces ...*Space) *MixedSpace {
	ss := make([]*Space, len(subspaces), len(subspaces))
	copy(ss, subspaces)
	return &MixedSpace{ss}
}

func (m *MixedSpace) NumSubspaces() int {
	return len(m.subspaces)
}

func (m *MixedSpace) Subspace(i int) *Space {
	return m.subspaces[i]
}

// Subspaces returns a copy of the subspace list in declaration order.
func (m *MixedSpace) Subspaces() []*Space {
	ss := make([]*Space, len(m.subspaces), len(m.subspaces))
	copy(ss, m.subspaces)
	return ss
}

func (m *MixedSpace) Equals(o *MixedSpace) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil || len(m.subspaces) != len(o.subspaces) {
		return false
	}
	for i, s := range m.subspaces {
		if !s.Equals(o.subspaces[i]) {
			return false
		}
	}
	return true
}
