package search

import (
	"errors"
	"sync"

	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
)

type pairKey struct {
	lo, hi model.MunicipalityID
}

func keyOf(a, b model.MunicipalityID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type pairResult struct {
	base  model.MunicipalityID
	score float64
	err   error
}

// orient returns the cached error as seen from a comparison with base as the
// first argument. Scores are symmetric; a missing-data report names a side.
func (r pairResult) orient(base model.MunicipalityID) error {
	var missing *engine.MissingDataError
	if r.err == nil || base == r.base || !errors.As(r.err, &missing) {
		return r.err
	}
	return missing.Reversed()
}

// PairCache memoizes a symmetric Comparer by unordered pair. Not-comparable
// outcomes are cached too, and a missing-data error is re-oriented for the
// order of each call. Once maxEntries is reached new pairs are computed but
// not stored.
type PairCache struct {
	cmp        Comparer
	maxEntries int

	mu      sync.RWMutex
	entries map[pairKey]pairResult
	hits    uint64
	misses  uint64
}

// NewPairCache wraps cmp. A non-positive maxEntries means unbounded.
func NewPairCache(cmp Comparer, maxEntries int) *PairCache {
	return &PairCache{cmp: cmp, maxEntries: maxEntries, entries: make(map[pairKey]pairResult)}
}

// Compare returns the cached result for {a, b}, computing it on first use.
func (c *PairCache) Compare(a, b model.MunicipalityID) (float64, error) {
	k := keyOf(a, b)

	c.mu.RLock()
	r, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return r.score, r.orient(a)
	}

	score, err := c.cmp.Compare(a, b)

	c.mu.Lock()
	c.misses++
	if c.maxEntries <= 0 || len(c.entries) < c.maxEntries {
		c.entries[k] = pairResult{base: a, score: score, err: err}
	}
	c.mu.Unlock()
	return score, err
}

// Stats returns the entry count and hit/miss counters.
func (c *PairCache) Stats() (entries int, hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), c.hits, c.misses
}
