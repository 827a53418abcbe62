// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package sig computes deterministic structural signatures of
// expressions. Two expressions have equal signatures exactly when they
// are structurally identical up to commutative operand reordering and
// renaming of bound indices. Signatures are stable across processes:
// nothing address- or iteration-order-derived enters the digest.
package sig

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/space"
	"golang.org/x/crypto/blake2b"
)

// Signature is a 256-bit structural digest.
type Signature [blake2b.Size256]byte

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// Less orders signatures bytewise; any deterministic total order works,
// this one is the convention used for commutative operand sorting.
func (s Signature) Less(o Signature) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Of returns the structural signature of e.
func Of(e expr.Expression) Signature {
	h := hasher{memo: map[expr.Expression]Signature{}}
	return h.hash(e, nil, 0)
}

type hasher struct {
	// memo holds signatures of nodes without free indices; those are
	// the nodes whose digest cannot depend on the binding environment.
	memo map[expr.Expression]Signature
}

// env maps a free index label to the De Bruijn level of its binder.
type env map[int]int

func (h *hasher) hash(e expr.Expression, bound env, level int) Signature {
	closed := len(e.FreeIndices()) == 0
	if closed {
		if s, ok := h.memo[e]; ok {
			return s
		}
		// A node without free indices cannot reference outer binders,
		// so its digest is computed in a fresh environment. This keeps
		// De Bruijn levels canonical and makes the memo sound.
		bound, level = nil, 0
	}
	d, _ := blake2b.New256(nil)
	d.Write([]byte(expr.Kind(e)))

	switch x := e.(type) {

	case *expr.Argument:
		writeInt(d, x.Number)
		writeInt(d, x.Part)
		writeSpace(d, x.Space)

	case *expr.Coefficient:
		writeInt(d, x.Count)
		writeSpace(d, x.Space)

	case *expr.SpatialCoordinate:
		writeMesh(d, x.Mesh)
	case *expr.FacetNormal:
		writeMesh(d, x.Mesh)
	case *expr.CellVolume:
		writeMesh(d, x.Mesh)

	case *expr.ScalarValue:
		writeFloat(d, x.Value)

	case *expr.Zero:
		writeInts(d, x.Shape())
		for i, label := range x.FreeIndices() {
			writeIndexRef(d, label, bound)
			writeInt(d, x.IndexDimensions()[i])
		}

	case *expr.Identity:
		writeInt(d, x.Dim)

	case *expr.Sum:
		writeSortedChildren(d, h, x.Operands(), bound, level)

	case *expr.Product:
		writeSortedChildren(d, h, x.Operands(), bound, level)

	case *expr.Indexed:
		s := h.hash(x.A, bound, level)
		d.Write(s[:])
		for _, entry := range x.Indices {
			switch ix := entry.(type) {
			case expr.FixedIndex:
				d.Write([]byte{'f'})
				writeInt(d, int(ix))
			case expr.Index:
				writeIndexRef(d, ix.Label, bound)
			}
		}

	case *expr.IndexSum:
		inner := extend(bound, level)
		inner[x.Index.Label] = level
		writeInt(d, x.Dim)
		s := h.hash(x.Summand, inner, level+1)
		d.Write(s[:])

	case *expr.ComponentTensor:
		inner := extend(bound, level)
		for k, ix := range x.Indices {
			inner[ix.Label] = level + k
		}
		writeInts(d, x.Shape())
		s := h.hash(x.A, inner, level+len(x.Indices))
		d.Write(s[:])

	case *expr.Comparison:
		d.Write([]byte(x.Op))
		writeChildren(d, h, e.Operands(), bound, level)

	case *expr.Restricted:
		d.Write([]byte(x.Side))
		writeChildren(d, h, e.Operands(), bound, level)

	case *expr.CoefficientDerivative:
		writeInt(d, x.Coefficient.Count)
		writeChildren(d, h, e.Operands(), bound, level)

	default:
		writeChildren(d, h, e.Operands(), bound, level)
	}

	var s Signature
	d.Sum(s[:0])
	if closed {
		h.memo[e] = s
	}
	return s
}

// writeIndexRef writes a bound index as its binder's De Bruijn level
// and a free index as its raw label. Free labels only appear in
// incomplete expressions, which never need cross-process stability.
func writeIndexRef(d writer, label int, bound env) {
	if lvl, ok := bound[label]; ok {
		d.Write([]byte{'b'})
		writeInt(d, lvl)
		return
	}
	d.Write([]byte{'i'})
	writeInt(d, label)
}

func writeSortedChildren(d writer, h *hasher, ops []expr.Expression, bound env, level int) {
	ss := make([]Signature, len(ops), len(ops))
	for i, op := range ops {
		ss[i] = h.hash(op, bound, level)
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].Less(ss[j]) })
	for _, s := range ss {
		d.Write(s[:])
	}
}

func writeChildren(d writer, h *hasher, ops []expr.Expression, bound env, level int) {
	for _, op := range ops {
		s := h.hash(op, bound, level)
		d.Write(s[:])
	}
}

func extend(bound env, level int) env {
	inner := make(env, len(bound)+1)
	for k, v := range bound {
		inner[k] = v
	}
	return inner
}

type writer interface {
	Write(p []byte) (int, error)
}

func writeInt(d writer, v int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(v)))
	d.Write(b[:])
}

func writeInts(d writer, vs []int) {
	writeInt(d, len(vs))
	for _, v := range vs {
		writeInt(d, v)
	}
}

func writeFloat(d writer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	d.Write(b[:])
}

func writeMesh(d writer, m *space.Mesh) {
	writeInt(d, m.Id)
	writeElement(d, m.Coordinates)
}

func writeElement(d writer, e space.Element) {
	d.Write([]byte(e.Family))
	d.Write([]byte(e.Cell.Name))
	writeInt(d, e.Degree)
	writeInts(d, e.ValueShape())
}

func writeSpace(d writer, s *space.Space) {
	writeMesh(d, s.Mesh)
	writeElement(d, s.Element)
}

// Equal reports whether two expressions are structurally equal.
func Equal(a, b expr.Expression) bool {
	return Of(a) == Of(b)
}

func init() {
	// blake2b.New256 with a nil key cannot fail; keep the assumption
	// checked so a library upgrade cannot silently break hashing.
	if _, e := blake2b.New256(nil); e != nil {
		panic(fmt.Sprintf("blake2b unavailable: %v", e))
	}
}
