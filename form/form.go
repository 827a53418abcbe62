// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package form models variational forms: scalar integrands paired with
// integration measures over a mesh, collected into forms that downstream
// assembly consumes grouped by measure.
package form

import (
	"encoding/binary"
	"sort"

	"github.com/conpierce8/ufl/analysis"
	"github.com/conpierce8/ufl/err"
	"github.com/conpierce8/ufl/expr"
	"github.com/conpierce8/ufl/sig"
	"github.com/conpierce8/ufl/space"
	"golang.org/x/crypto/blake2b"
)

// IntegralType selects the measure an integrand is integrated against.
type IntegralType string

const (
	CellIntegral          IntegralType = "cell"
	ExteriorFacetIntegral IntegralType = "exterior_facet"
	InteriorFacetIntegral IntegralType = "interior_facet"
	CustomIntegral        IntegralType = "custom"
)

// Everywhere marks an integral that covers the whole domain instead of
// a numbered subdomain.
const Everywhere = -1

// Integral pairs a finished scalar integrand with its measure.
type Integral struct {
	Integrand expr.Expression
	Type      IntegralType
	Domain    *space.Mesh
	Subdomain int
	Metadata  map[string]string
}

// NewIntegral validates the integrand's outbound contract: it must be
// scalar-valued and free of unresolved indices.
func NewIntegral(typ IntegralType, integrand expr.Expression, domain *space.Mesh, subdomain int, metadata map[string]string) (Integral, err.Error) {
	switch typ {
	case CellIntegral, ExteriorFacetIntegral, InteriorFacetIntegral, CustomIntegral:
	default:
		return Integral{}, err.ArityError{Kind: "integral", Want: "a known integral type", Have: 0}
	}
	if er := analysis.Validate(integrand); er != nil {
		return Integral{}, er
	}
	if subdomain < 0 && subdomain != Everywhere {
		return Integral{}, err.ArityError{Kind: "integral", Want: "a non-negative subdomain id or Everywhere", Have: subdomain}
	}
	return Integral{integrand, typ, domain, subdomain, metadata}, nil
}

// Expressions implements analysis.Source.
func (i Integral) Expressions() []expr.Expression {
	return []expr.Expression{i.Integrand}
}

// Key identifies the assembly bucket of an integral.
type Key struct {
	Type      IntegralType
	Subdomain int
}

// Form is an ordered collection of integrals. The integrals may cover
// several meshes; mixed-space forms do.
type Form struct {
	integrals []Integral
}

// NewForm builds a form from at least one integral. Cross-integral
// argument consistency is an opt-in check, see Validate.
func NewForm(integrals ...Integral) (*Form, err.Error) {
	if len(integrals) == 0 {
		return nil, err.ArityError{Kind: "form", Want: "at least 1 integral", Have: 0}
	}
	return &Form{append([]Integral(nil), integrals...)}, nil
}

// Validate checks the form's argument bookkeeping: every argument
// number and part pair is used by a single space, and argument numbers
// count contiguously from zero. Spaces are compared structurally.
func (f *Form) Validate() err.Error {
	type slot struct{ number, part int }
	spaces := map[slot]*space.Space{}
	numbers := map[int]bool{}
	for _, a := range analysis.Arguments(f) {
		s := slot{a.Number, a.Part}
		if prev, ok := spaces[s]; ok && !prev.Equals(a.Space) {
			return err.ArityError{
				Kind: "form",
				Want: "one space per argument number and part",
				Have: a.Number,
			}
		}
		spaces[s] = a.Space
		numbers[a.Number] = true
	}
	for n := range numbers {
		if n < 0 || n >= len(numbers) {
			return err.ArityError{
				Kind: "form",
				Want: "argument numbers contiguous from 0",
				Have: n,
			}
		}
	}
	return nil
}

// Integrals returns the form's integrals in declaration order.
func (f *Form) Integrals() []Integral {
	return append([]Integral(nil), f.integrals...)
}

// Expressions implements analysis.Source over all integrands.
func (f *Form) Expressions() []expr.Expression {
	out := make([]expr.Expression, len(f.integrals), len(f.integrals))
	for i, it := range f.integrals {
		out[i] = it.Integrand
	}
	return out
}

// Domain returns the mesh of the form's first integral.
func (f *Form) Domain() *space.Mesh {
	return f.integrals[0].Domain
}

// Domains returns the form's distinct meshes in first-appearance
// order, compared structurally.
func (f *Form) Domains() []*space.Mesh {
	out := []*space.Mesh(nil)
	for _, it := range f.integrals {
		known := false
		for _, m := range out {
			if m.Equals(it.Domain) {
				known = true
				break
			}
		}
		if !known {
			out = append(out, it.Domain)
		}
	}
	return out
}

// Arity is the number of distinct arguments the form is multilinear in.
func (f *Form) Arity() int {
	return len(analysis.Arguments(f))
}

// Add concatenates two forms. The operands may integrate over
// different meshes.
func (f *Form) Add(g *Form) (*Form, err.Error) {
	return NewForm(append(f.Integrals(), g.integrals...)...)
}

// ByType returns the integrals with the given type, in order.
func (f *Form) ByType(t IntegralType) []Integral {
	out := []Integral(nil)
	for _, it := range f.integrals {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}

// BySubdomain returns the integrals with the given subdomain across
// all integral types, in order.
func (f *Form) BySubdomain(subdomain int) []Integral {
	out := []Integral(nil)
	for _, it := range f.integrals {
		if it.Subdomain == subdomain {
			out = append(out, it)
		}
	}
	return out
}

// ByKey returns the integrals of one assembly bucket, in order.
func (f *Form) ByKey(k Key) []Integral {
	out := []Integral(nil)
	for _, it := range f.integrals {
		if it.Type == k.Type && it.Subdomain == k.Subdomain {
			out = append(out, it)
		}
	}
	return out
}

// GroupByKey buckets the integrals by measure, preserving integral
// order inside each bucket. Keys are returned sorted for deterministic
// iteration.
func (f *Form) GroupByKey() ([]Key, map[Key][]Integral) {
	groups := map[Key][]Integral{}
	keys := []Key(nil)
	for _, it := range f.integrals {
		k := Key{it.Type, it.Subdomain}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], it)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Subdomain < keys[j].Subdomain
	})
	return keys, groups
}

// Signature digests the full form: every integrand's canonical
// signature plus its measure and metadata, in declaration order.
func (f *Form) Signature() sig.Signature {
	h, e := blake2b.New256(nil)
	if e != nil {
		panic(e)
	}
	buf := [8]byte{}
	writeInt := func(n int) {
		binary.BigEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	for _, it := range f.integrals {
		s := sig.Of(it.Integrand)
		h.Write(s[:])
		h.Write([]byte(it.Type))
		writeInt(it.Subdomain)
		writeInt(it.Domain.Id)
		keys := make([]string, 0, len(it.Metadata))
		for k := range it.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{0})
			h.Write([]byte(it.Metadata[k]))
			h.Write([]byte{0})
		}
	}
	out := sig.Signature{}
	copy(out[:], h.Sum(nil))
	return out
}
