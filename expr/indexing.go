// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// Indexed accesses components of a tensor expression. The multi-index
// length must match the tensor rank. A label occurring twice (counting
// an occurrence as free index of the base) is contracted: the
// constructor wraps the access in IndexSum nodes, mirroring the
// summation convention of NewProduct.
type Indexed struct {
	attrs
	A       Expression
	Indices MultiIndex
}

func NewIndexed(a Expression, mi MultiIndex) (Expression, err.Error) {
	sh := a.Shape()
	if len(mi) != sh.Rank() {
		return nil, err.ShapeMismatchError{
			Kind:   "indexed",
			Shapes: [][]int{sh},
			Detail: "multi-index length must equal tensor rank",
		}
	}
	counts := map[int]int{}
	ranges := map[int]int{}
	for k, label := range a.FreeIndices() {
		counts[label]++
		ranges[label] = a.IndexDimensions()[k]
	}
	for pos, entry := range mi {
		dim := sh[pos]
		switch ix := entry.(type) {
		case FixedIndex:
			if int(ix) < 0 || int(ix) >= dim {
				return nil, err.ShapeMismatchError{
					Kind:   "indexed",
					Shapes: [][]int{sh},
					Detail: "fixed index out of range",
				}
			}
		case Index:
			counts[ix.Label]++
			if r, ok := ranges[ix.Label]; ok && r != dim {
				return nil, err.ShapeMismatchError{
					Kind:   "indexed",
					Shapes: [][]int{sh},
					Detail: "conflicting ranges for repeated index label",
				}
			}
			ranges[ix.Label] = dim
		}
	}
	fp, bp := &indexPairs{}, &indexPairs{}
	for label, n := range counts {
		switch n {
		case 1:
			fp.add(label, ranges[label])
		case 2:
			bp.add(label, ranges[label])
		default:
			return nil, err.IndexRepetitionError{Kind: "indexed", Index: label, Count: n}
		}
	}
	fp.sort()
	bp.sort()
	all := &indexPairs{append(copyInts(fp.labels), bp.labels...), append(copyInts(fp.dims), bp.dims...)}
	all.sort()
	var out Expression = &Indexed{attrs{nil, all.labels, all.dims}, a, mi.copy()}
	for i, label := range bp.labels {
		rf, rd := removeLabel(out.FreeIndices(), out.IndexDimensions(), label)
		out = &IndexSum{attrs{nil, rf, rd}, out, Index{label}, bp.dims[i]}
	}
	return out, nil
}

func (x *Indexed) Operands() []Expression {
	return []Expression{x.A}
}

// IndexSum binds one free index of a scalar summand, summing the
// summand over the index's range.
type IndexSum struct {
	attrs
	Summand Expression
	Index   Index
	Dim     int
}

func NewIndexSum(summand Expression, index Index) (Expression, err.Error) {
	if summand.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "indexSum",
			Shapes: [][]int{summand.Shape()},
			Detail: "index sum requires a scalar summand",
		}
	}
	dim, ok := lookupRange(summand.FreeIndices(), summand.IndexDimensions(), index.Label)
	if !ok {
		return nil, err.UnresolvedIndexError{
			Kind:    "indexSum",
			Indices: []int{index.Label},
			Detail:  "summation index is not free in the summand",
		}
	}
	rf, rd := removeLabel(summand.FreeIndices(), summand.IndexDimensions(), index.Label)
	return &IndexSum{attrs{nil, rf, rd}, summand, index, dim}, nil
}

func (x *IndexSum) Operands() []Expression {
	return []Expression{x.Summand}
}

// ComponentTensor rolls free indices of a scalar expression back up
// into tensor axes: as_tensor(e[i,j], (i,j)).
type ComponentTensor struct {
	attrs
	A       Expression
	Indices []Index
}

func NewComponentTensor(a Expression, indices ...Index) (Expression, err.Error) {
	if len(indices) == 0 {
		return nil, err.ArityError{Kind: "componentTensor", Want: "at least 1 index", Have: 0}
	}
	if a.Shape().Rank() != 0 {
		return nil, err.ShapeMismatchError{
			Kind:   "componentTensor",
			Shapes: [][]int{a.Shape()},
			Detail: "component tensor requires a scalar base expression",
		}
	}
	seen := map[int]bool{}
	sh := make(Shape, len(indices), len(indices))
	free, dims := a.FreeIndices(), a.IndexDimensions()
	for k, ix := range indices {
		if seen[ix.Label] {
			return nil, err.IndexRepetitionError{Kind: "componentTensor", Index: ix.Label, Count: 2}
		}
		seen[ix.Label] = true
		dim, ok := lookupRange(free, dims, ix.Label)
		if !ok {
			return nil, err.UnresolvedIndexError{
				Kind:    "componentTensor",
				Indices: []int{ix.Label},
				Detail:  "component index is not free in the base expression",
			}
		}
		sh[k] = dim
	}
	rf, rd := copyInts(free), copyInts(dims)
	for _, ix := range indices {
		rf, rd = removeLabel(rf, rd, ix.Label)
	}
	is := make([]Index, len(indices), len(indices))
	copy(is, indices)
	return &ComponentTensor{attrs{sh, rf, rd}, a, is}, nil
}

func (x *ComponentTensor) Operands() []Expression {
	return []Expression{x.A}
}

// ListTensor builds a tensor from explicit component rows, adding one
// leading axis: a vector from scalars, a matrix from vectors.
type ListTensor struct {
	attrs
	ops []Expression
}

func NewListTensor(ops ...Expression) (Expression, err.Error) {
	if len(ops) == 0 {
		return nil, err.ArityError{Kind: "listTensor", Want: "at least 1", Have: 0}
	}
	first := ops[0]
	for _, op := range ops[1:] {
		if !first.Shape().Equals(op.Shape()) {
			return nil, err.ShapeMismatchError{
				Kind:   "listTensor",
				Shapes: shapesOf(ops),
				Detail: "list tensor rows must have identical shapes",
			}
		}
		if !sameFreeIndices(first, op) {
			return nil, err.ShapeMismatchError{
				Kind:   "listTensor",
				Detail: "list tensor rows must have identical free indices",
			}
		}
	}
	sh := append(Shape{len(ops)}, first.Shape()...)
	rows := make([]Expression, len(ops), len(ops))
	copy(rows, ops)
	a := attrs{sh, copyInts(first.FreeIndices()), copyInts(first.IndexDimensions())}
	return &ListTensor{a, rows}, nil
}

func (x *ListTensor) Operands() []Expression {
	return x.ops
}

// AsVector is shorthand for a ListTensor of scalars.
func AsVector(ops ...Expression) (Expression, err.Error) {
	return NewListTensor(ops...)
}

// AsMatrix builds a matrix from rows of scalars.
func AsMatrix(rows ...[]Expression) (Expression, err.Error) {
	vs := make([]Expression, len(rows), len(rows))
	for i, row := range rows {
		v, e := NewListTensor(row...)
		if e != nil {
			return nil, e
		}
		vs[i] = v
	}
	return NewListTensor(vs...)
}
