// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

// Error is the common interface of all failure kinds reported by the
// expression pipeline. Every kind is a distinct struct so that callers
// can switch on the concrete type.
type Error interface {
	Error() string  // proxy to String() (to implement error interface)
	String() string // human readable string
	Child() Error   // may be nil
}
