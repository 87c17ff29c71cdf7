package monitoring

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"

	"github.com/distancia360/agroanalytics/internal/store"
)

// Snapshot is a point-in-time view of the loaded data and caches.
type Snapshot struct {
	Rows         map[string]int `json:"rows"`
	LastImport   time.Time      `json:"last_import,omitempty"`
	ImportSource string         `json:"import_source,omitempty"`
	CacheEntries int            `json:"cache_entries"`
	CacheHits    uint64         `json:"cache_hits"`
	CacheMisses  uint64         `json:"cache_misses"`
	CollectedAt  time.Time      `json:"collected_at"`
}

// RowCounter reports rows per reference table. *refdata.Tables satisfies it.
type RowCounter interface {
	Counts() map[string]int
}

// CacheStats reports comparison cache usage. *search.PairCache satisfies it.
type CacheStats interface {
	Stats() (entries int, hits, misses uint64)
}

// ImportLog reports the most recent import. store.Store satisfies it.
type ImportLog interface {
	LastImport(ctx context.Context) (*store.ImportRun, error)
}

// Collector gathers a Snapshot. Any source may be nil.
type Collector struct {
	rows    RowCounter
	cache   CacheStats
	imports ImportLog
	clock   clockwork.Clock
}

// NewCollector creates a collector.
func NewCollector(rows RowCounter, cache CacheStats, imports ImportLog, clock clockwork.Clock) *Collector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Collector{rows: rows, cache: cache, imports: imports, clock: clock}
}

// Collect gathers the current snapshot.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Rows: map[string]int{}, CollectedAt: c.clock.Now().UTC()}
	if c.rows != nil {
		snap.Rows = c.rows.Counts()
	}
	if c.cache != nil {
		snap.CacheEntries, snap.CacheHits, snap.CacheMisses = c.cache.Stats()
	}
	if c.imports != nil {
		run, err := c.imports.LastImport(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: last import")
		}
		if run != nil {
			snap.LastImport = run.ImportedAt
			snap.ImportSource = run.Source
		}
	}
	return snap, nil
}
