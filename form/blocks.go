// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package form

import (
	"github.com/conpierce8/ufl/analysis"
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
)

// ExtractBlocks splits a form over mixed-space arguments into its
// blocks: entry [i][j] collects the terms containing the part-i test
// function and the part-j trial function. Top-level sums in an
// integrand are split so that every term lands in exactly one block.
// Forms without trial functions produce a single column; blocks
// without any term are nil.
func ExtractBlocks(f *Form) ([][]*Form, err.Error) {
	rows, cols := 1, 1
	for _, a := range analysis.Arguments(f) {
		if a.Part < 0 || a.Number > 1 {
			continue
		}
		if a.Number == 0 && a.Part+1 > rows {
			rows = a.Part + 1
		}
		if a.Number == 1 && a.Part+1 > cols {
			cols = a.Part + 1
		}
	}
	buckets := make([][][]Integral, rows, rows)
	for r := range buckets {
		buckets[r] = make([][]Integral, cols, cols)
	}
	for _, it := range f.integrals {
		for _, term := range summandsOf(it.Integrand) {
			r, c, er := blockOf(term)
			if er != nil {
				return nil, er
			}
			buckets[r][c] = append(buckets[r][c], Integral{term, it.Type, it.Domain, it.Subdomain, it.Metadata})
		}
	}
	out := make([][]*Form, rows, rows)
	for r := range buckets {
		out[r] = make([]*Form, cols, cols)
		for c := range buckets[r] {
			if len(buckets[r][c]) == 0 {
				continue
			}
			g, er := NewForm(buckets[r][c]...)
			if er != nil {
				return nil, er
			}
			out[r][c] = g
		}
	}
	return out, nil
}

func summandsOf(e expr.Expression) []expr.Expression {
	if s, ok := e.(*expr.Sum); ok {
		return s.Operands()
	}
	return []expr.Expression{e}
}

// blockOf locates the block of a single term by the parts of its test
// and trial functions. Arguments without a part count as part 0. A
// term mixing two parts for one argument number belongs to no block.
func blockOf(term expr.Expression) (int, int, err.Error) {
	parts := [2]int{-1, -1}
	for _, a := range analysis.Arguments(term) {
		if a.Number > 1 {
			continue
		}
		p := a.Part
		if p < 0 {
			p = 0
		}
		if prev := parts[a.Number]; prev >= 0 && prev != p {
			return 0, 0, err.ArityError{
				Kind: "form",
				Want: "one mixed-space part per argument number in each term",
				Have: p,
			}
		}
		parts[a.Number] = p
	}
	r, c := parts[0], parts[1]
	if r < 0 {
		r = 0
	}
	if c < 0 {
		c = 0
	}
	return r, c, nil
}
