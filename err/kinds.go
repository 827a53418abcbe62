// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"
	"strings"
)

// ArityError reports construction of an operator with the wrong number
// of operands.
type ArityError struct {
	Kind string // node kind, e.g. "inner"
	Want string // human description of the expected count, e.g. "exactly 2"
	Have int
}

var _ Error = ArityError{}

func (e ArityError) Error() string {
	return e.String()
}
func (e ArityError) String() string {
	out := "Arity Error\n"
	out += "===========\n"
	out += fmt.Sprintf("operator %q expects %s operand(s), got %d\n", e.Kind, e.Want, e.Have)
	return out
}
func (e ArityError) Child() Error {
	return nil
}

// ShapeMismatchError reports operand shapes incompatible with the
// requested operator.
type ShapeMismatchError struct {
	Kind   string
	Shapes [][]int
	Detail string
}

var _ Error = ShapeMismatchError{}

func (e ShapeMismatchError) Error() string {
	return e.String()
}
func (e ShapeMismatchError) String() string {
	out := "Shape Mismatch Error\n"
	out += "====================\n"
	out += fmt.Sprintf("operator: %s\n", e.Kind)
	if len(e.Shapes) > 0 {
		ss := make([]string, len(e.Shapes), len(e.Shapes))
		for i, s := range e.Shapes {
			ss[i] = formatShape(s)
		}
		out += "operand shapes: " + strings.Join(ss, ", ") + "\n"
	}
	if e.Detail != "" {
		out += e.Detail + "\n"
	}
	return out
}
func (e ShapeMismatchError) Child() Error {
	return nil
}

// UnresolvedIndexError reports a free index left unresolved in a context
// that requires full resolution, such as a finished integral.
type UnresolvedIndexError struct {
	Kind    string
	Indices []int // index labels involved
	Detail  string
}

var _ Error = UnresolvedIndexError{}

func (e UnresolvedIndexError) Error() string {
	return e.String()
}
func (e UnresolvedIndexError) String() string {
	out := "Unresolved Index Error\n"
	out += "======================\n"
	out += fmt.Sprintf("context: %s\n", e.Kind)
	if len(e.Indices) > 0 {
		out += fmt.Sprintf("free index labels: %v\n", e.Indices)
	}
	if e.Detail != "" {
		out += e.Detail + "\n"
	}
	return out
}
func (e UnresolvedIndexError) Child() Error {
	return nil
}

// IndexRepetitionError reports an index label used more than twice within
// a single product or indexed expression.
type IndexRepetitionError struct {
	Kind  string
	Index int // offending label
	Count int
}

var _ Error = IndexRepetitionError{}

func (e IndexRepetitionError) Error() string {
	return e.String()
}
func (e IndexRepetitionError) String() string {
	out := "Index Repetition Error\n"
	out += "======================\n"
	out += fmt.Sprintf("operator: %s\n", e.Kind)
	out += fmt.Sprintf("index label %d appears %d times, at most 2 allowed\n", e.Index, e.Count)
	return out
}
func (e IndexRepetitionError) Child() Error {
	return nil
}

// DifferentiationError reports an attempted derivative of an expression
// kind that has no defined differentiation rule.
type DifferentiationError struct {
	Kind   string
	Detail string
	Child_ Error
}

var _ Error = DifferentiationError{}

func (e DifferentiationError) Error() string {
	return e.String()
}
func (e DifferentiationError) String() string {
	out := "Differentiation Error\n"
	out += "=====================\n"
	out += fmt.Sprintf("kind: %s\n", e.Kind)
	if e.Detail != "" {
		out += e.Detail + "\n"
	}
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e DifferentiationError) Child() Error {
	return e.Child_
}

func formatShape(s []int) string {
	if len(s) == 0 {
		return "()"
	}
	ss := make([]string, len(s), len(s))
	for i, d := range s {
		ss[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(ss, ", ") + ")"
}
