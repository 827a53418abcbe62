// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package expr

import (
	"sort"

	"github.com/conpierce8/ufl/err"
)

// indexPairs is a sortable list of (label, range) pairs.
type indexPairs struct {
	labels []int
	dims   []int
}

func (p *indexPairs) add(label, dim int) {
	p.labels = append(p.labels, label)
	p.dims = append(p.dims, dim)
}

func (p *indexPairs) sort() {
	sort.Sort(byLabel{p})
}

type byLabel struct{ *indexPairs }

func (b byLabel) Len() int {
	return len(b.labels)
}
func (b byLabel) Less(i, j int) bool {
	return b.labels[i] < b.labels[j]
}
func (b byLabel) Swap(i, j int) {
	b.labels[i], b.labels[j] = b.labels[j], b.labels[i]
	b.dims[i], b.dims[j] = b.dims[j], b.dims[i]
}

// mergeFreeIndices combines the free-index sets of product-like operands
// under the summation convention: a label occurring in exactly one place
// stays free, a label occurring in exactly two places is contracted and
// returned separately, any higher count is an IndexRepetitionError.
// Occurrences are counted per operand; within one operand a label is
// already deduplicated by construction.
func mergeFreeIndices(kind string, ops []Expression) (free, freeDims, bound, boundDims []int, e err.Error) {
	counts := map[int]int{}
	ranges := map[int]int{}
	for _, op := range ops {
		labels, dims := op.FreeIndices(), op.IndexDimensions()
		for k, label := range labels {
			counts[label]++
			if r, ok := ranges[label]; ok && r != dims[k] {
				return nil, nil, nil, nil, err.ShapeMismatchError{
					Kind:   kind,
					Detail: "conflicting ranges for repeated index label",
				}
			}
			ranges[label] = dims[k]
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
			return nil, nil, nil, nil, err.IndexRepetitionError{Kind: kind, Index: label, Count: n}
		}
	}
	fp.sort()
	bp.sort()
	return fp.labels, fp.dims, bp.labels, bp.dims, nil
}

// sameFreeIndices reports whether two nodes have identical free-index
// sets with identical ranges.
func sameFreeIndices(a, b Expression) bool {
	af, bf := a.FreeIndices(), b.FreeIndices()
	if len(af) != len(bf) {
		return false
	}
	ad, bd := a.IndexDimensions(), b.IndexDimensions()
	for i := range af {
		if af[i] != bf[i] || ad[i] != bd[i] {
			return false
		}
	}
	return true
}

// copyInts returns a defensive copy of s.
func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	c := make([]int, len(s), len(s))
	copy(c, s)
	return c
}

// removeLabel returns (free, dims) with one label removed.
func removeLabel(free, dims []int, label int) (rf, rd []int) {
	for i, l := range free {
		if l == label {
			continue
		}
		rf = append(rf, l)
		rd = append(rd, dims[i])
	}
	return rf, rd
}

// lookupRange returns the range of label in (free, dims).
func lookupRange(free, dims []int, label int) (int, bool) {
	for i, l := range free {
		if l == label {
			return dims[i], true
		}
	}
	return 0, false
}

// IndexRanges collects the range of every index label appearing in e,
// free or bound. Conflicting ranges for one label cannot occur in a
// constructed tree; the constructors reject them.
func IndexRanges(e Expression) map[int]int {
	out := map[int]int{}
	Walk(e, func(n Expression) {
		free, dims := n.FreeIndices(), n.IndexDimensions()
		for i, label := range free {
			out[label] = dims[i]
		}
		if s, ok := n.(*IndexSum); ok {
			out[s.Index.Label] = s.Dim
		}
	})
	return out
}

func shapesOf(ops []Expression) [][]int {
	ss := make([][]int, len(ops), len(ops))
	for i, op := range ops {
		ss[i] = op.Shape()
	}
	return ss
}
