// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package cache persists payloads keyed by expression or form
// signature, so downstream compilers can skip re-processing forms they
// have seen before. Signatures are canonical across processes, which
// makes the cache safe to share between runs.
package cache

import (
	"errors"

	"github.com/conpierce8/ufl/sig"
	bolt "github.com/coreos/bbolt"
)

var bucketName = []byte("signatures")

// ErrNotFound is returned by Get for signatures without a cached
// payload.
var ErrNotFound = errors.New("cache: signature not found")

// Cache is a persistent signature-keyed store backed by a single bolt
// bucket. Safe for concurrent use.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Cache, error) {
	db, e := bolt.Open(path, 0644, nil)
	if e != nil {
		return nil, e
	}
	e = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketName)
		return e
	})
	if e != nil {
		db.Close()
		return nil, e
	}
	return &Cache{db}, nil
}

// Put stores payload under s, replacing any previous payload.
func (c *Cache) Put(s sig.Signature, payload []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(s[:], payload)
	})
}

// Get returns the payload stored under s, or ErrNotFound.
func (c *Cache) Get(s sig.Signature) ([]byte, error) {
	out := []byte(nil)
	e := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(s[:])
		if v == nil {
			return ErrNotFound
		}
		out = append(out, v...)
		return nil
	})
	if e != nil {
		return nil, e
	}
	return out, nil
}

// Has reports whether a payload is stored under s.
func (c *Cache) Has(s sig.Signature) bool {
	found := false
	c.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketName).Get(s[:]) != nil
		return nil
	})
	return found
}

// Delete removes the payload stored under s, if any.
func (c *Cache) Delete(s sig.Signature) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(s[:])
	})
}

// Len returns the number of cached payloads.
func (c *Cache) Len() int {
	n := 0
	c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}
