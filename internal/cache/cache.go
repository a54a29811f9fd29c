// Package cache memoises makefile analyses by the digest of the raw file
// content, so re-reading an unchanged file skips parsing and graph building.
package cache

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// Analysis is one cached result
type Analysis struct {
	Document *ast.Document
	Graph    *graph.Graph
	Digest   [32]byte // snapshot digest of Document and Graph
}

// AnalyseFunc produces an analysis from raw makefile content
type AnalyseFunc func(content []byte) (*Analysis, error)

// Cache is a fixed-size LRU of analyses. Safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, *Analysis]
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache holding at most size analyses
func New(size int) (*Cache, error) {
	entries, err := lru.New[string, *Analysis](size)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Key returns the cache key for raw content
func Key(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// GetOrAnalyse returns the cached analysis of content, running analyse on a
// miss. Failed analyses are not cached. hit reports whether the result came
// from the cache.
func (c *Cache) GetOrAnalyse(content []byte, analyse AnalyseFunc) (a *Analysis, hit bool, err error) {
	key := Key(content)
	if a, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return a, true, nil
	}
	c.misses.Add(1)

	a, err = analyse(content)
	if err != nil {
		return nil, false, err
	}
	c.entries.Add(key, a)
	return a, false, nil
}

// Len returns the number of cached analyses
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns hit and miss counts since creation
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every entry
func (c *Cache) Purge() {
	c.entries.Purge()
}
