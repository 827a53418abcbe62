// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package expr defines the expression node types of the form language,
// their validated constructors and the traversal framework. Nodes are
// immutable once constructed; all algorithms produce new trees. Node
// identity is pointer identity, used to memoize traversals over shared
// subtrees. Structural equality is the business of package sig.
package expr

import (
	"fmt"
	"sync/atomic"
)

// Expression is the interface implemented by every node kind.
// Shape and free-index information is computed and validated at
// construction and cached on the node.
type Expression interface {

	// Operands returns the ordered child expressions. Empty for terminals.
	Operands() []Expression

	// Shape returns the tensor value shape. Nil means scalar.
	Shape() Shape

	// FreeIndices returns the sorted labels of the node's free indices.
	FreeIndices() []int

	// IndexDimensions returns the ranges of the free indices, aligned
	// with FreeIndices.
	IndexDimensions() []int
}

// Shape is an ordered sequence of tensor dimensions. The nil (empty)
// shape denotes a scalar.
type Shape []int

func (s Shape) Rank() int {
	return len(s)
}

func (s Shape) Equals(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i, d := range s {
		if o[i] != d {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	out := "("
	for i, d := range s {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", d)
	}
	return out + ")"
}

func (s Shape) copy() Shape {
	if s == nil {
		return nil
	}
	c := make(Shape, len(s), len(s))
	copy(c, s)
	return c
}

var indexCounter int64 = -1

// Index is a free index label. Labels are process-unique; their ranges
// live in the nodes that bind them, not in the label itself.
type Index struct {
	Label int
}

// NewIndex returns a fresh index with a process-unique label.
func NewIndex() Index {
	return Index{int(atomic.AddInt64(&indexCounter, 1))}
}

// Indices returns n fresh indices.
func Indices(n int) []Index {
	is := make([]Index, n, n)
	for i := range is {
		is[i] = NewIndex()
	}
	return is
}

func (i Index) String() string {
	return fmt.Sprintf("i%d", i.Label)
}

// FixedIndex is a literal component position.
type FixedIndex int

// IndexEntry is either an Index or a FixedIndex.
type IndexEntry interface {
	indexEntry()
}

func (Index) indexEntry()      {}
func (FixedIndex) indexEntry() {}

// MultiIndex is an ordered sequence of index entries attached to
// Indexed and ComponentTensor nodes. It is node metadata, not an
// expression of its own.
type MultiIndex []IndexEntry

func (m MultiIndex) copy() MultiIndex {
	c := make(MultiIndex, len(m), len(m))
	copy(c, m)
	return c
}

// attrs carries the per-node attributes every kind caches at
// construction time.
type attrs struct {
	shape Shape
	free  []int // sorted free index labels
	dims  []int // ranges, aligned with free
}

func (a attrs) Shape() Shape {
	return a.shape
}
func (a attrs) FreeIndices() []int {
	return a.free
}
func (a attrs) IndexDimensions() []int {
	return a.dims
}

func scalarAttrs() attrs {
	return attrs{nil, nil, nil}
}

// Kind returns the stable kind tag of a node. The tags double as hash
// domain separators in package sig.
func Kind(e Expression) string {
	switch e.(type) {
	case *Argument:
		return "argument"
	case *Coefficient:
		return "coefficient"
	case *SpatialCoordinate:
		return "spatialCoordinate"
	case *FacetNormal:
		return "facetNormal"
	case *CellVolume:
		return "cellVolume"
	case *ScalarValue:
		return "scalarValue"
	case *Zero:
		return "zero"
	case *Identity:
		return "identity"
	case *Sum:
		return "sum"
	case *Product:
		return "product"
	case *Division:
		return "division"
	case *Power:
		return "power"
	case *Sqrt:
		return "sqrt"
	case *Abs:
		return "abs"
	case *Inner:
		return "inner"
	case *Outer:
		return "outer"
	case *Dot:
		return "dot"
	case *Cross:
		return "cross"
	case *Transposed:
		return "transposed"
	case *Trace:
		return "trace"
	case *Determinant:
		return "determinant"
	case *Inverse:
		return "inverse"
	case *Cofactor:
		return "cofactor"
	case *Deviatoric:
		return "deviatoric"
	case *Skew:
		return "skew"
	case *Sym:
		return "sym"
	case *Indexed:
		return "indexed"
	case *IndexSum:
		return "indexSum"
	case *ComponentTensor:
		return "componentTensor"
	case *ListTensor:
		return "listTensor"
	case *Grad:
		return "grad"
	case *Div:
		return "div"
	case *Curl:
		return "curl"
	case *CoefficientDerivative:
		return "coefficientDerivative"
	case *Comparison:
		return "comparison"
	case *Conditional:
		return "conditional"
	case *Restricted:
		return "restricted"
	case *Jump:
		return "jump"
	case *Avg:
		return "avg"
	}
	panic(fmt.Sprintf("unhandled expression type: %T", e))
}

// IsTerminal reports whether e is a leaf node.
func IsTerminal(e Expression) bool {
	return len(e.Operands()) == 0
}
