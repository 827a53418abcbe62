// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"github.com/conpierce8/ufl/err"
)

// rawProduct rebuilds a product node in place, inside whatever IndexSum
// binders already enclose it. Unlike NewProduct it does not wrap
// contractions: a label occurring twice stays in the node's free set so
// the existing binder remains valid. Used by Reconstruct only.
func rawProduct(ops []Expression) (Expression, err.Error) {
	if len(ops) < 2 {
		return nil, err.ArityError{Kind: "product", Want: "at least 2", Have: len(ops)}
	}
	for _, op := range ops {
		if op.Shape().Rank() != 0 {
			return nil, err.ShapeMismatchError{
				Kind:   "product",
				Shapes: shapesOf(ops),
				Detail: "product operands must be scalar",
			}
		}
	}
	counts := map[int]int{}
	ranges := map[int]int{}
	for _, op := range ops {
		labels, dims := op.FreeIndices(), op.IndexDimensions()
		for k, label := range labels {
			counts[label]++
			if r, ok := ranges[label]; ok && r != dims[k] {
				return nil, err.ShapeMismatchError{
					Kind:   "product",
					Detail: "conflicting ranges for repeated index label",
				}
			}
			ranges[label] = dims[k]
		}
	}
	p := &indexPairs{}
	for label, n := range counts {
		if n > 2 {
			return nil, err.IndexRepetitionError{Kind: "product", Index: label, Count: n}
		}
		p.add(label, ranges[label])
	}
	p.sort()
	cp := make([]Expression, len(ops), len(ops))
	copy(cp, ops)
	return &Product{attrs{nil, p.labels, p.dims}, cp}, nil
}

// rawIndexed rebuilds an indexed node in place without re-wrapping
// contractions, mirroring rawProduct.
func rawIndexed(a Expression, mi MultiIndex) (Expression, err.Error) {
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
	p := &indexPairs{}
	for label, n := range counts {
		if n > 2 {
			return nil, err.IndexRepetitionError{Kind: "indexed", Index: label, Count: n}
		}
		p.add(label, ranges[label])
	}
	p.sort()
	return &Indexed{attrs{nil, p.labels, p.dims}, a, mi.copy()}, nil
}
