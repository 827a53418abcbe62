// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package sig

import (
	"sync"

	"github.com/conpierce8/ufl/expr"
)

// Arena interns expressions by structural signature. Interning the same
// structure twice returns the first node, so downstream consumers can
// compare by identity. An Arena is safe for concurrent use; a race only
// risks redundant hashing, never an incorrect result.
type Arena struct {
	mu    sync.RWMutex
	nodes map[Signature]expr.Expression
}

func NewArena() *Arena {
	return &Arena{nodes: map[Signature]expr.Expression{}}
}

// Intern returns the canonical node for e's structure and its
// signature. The first node interned for a signature becomes canonical.
func (a *Arena) Intern(e expr.Expression) (expr.Expression, Signature) {
	s := Of(e)
	a.mu.RLock()
	c, ok := a.nodes[s]
	a.mu.RUnlock()
	if ok {
		return c, s
	}
	a.mu.Lock()
	if c, ok = a.nodes[s]; !ok {
		a.nodes[s] = e
		c = e
	}
	a.mu.Unlock()
	return c, s
}

// Lookup returns the canonical node for a signature, if any.
func (a *Arena) Lookup(s Signature) (expr.Expression, bool) {
	a.mu.RLock()
	c, ok := a.nodes[s]
	a.mu.RUnlock()
	return c, ok
}

// Len returns the number of interned structures.
func (a *Arena) Len() int {
	a.mu.RLock()
	n := len(a.nodes)
	a.mu.RUnlock()
	return n
}
