// Package search ranks the municipality corpus by composite similarity to a
// base municipality.
package search

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
)

// DefaultTopN is the number of results Top returns when n is not positive.
const DefaultTopN = 10

// Comparer scores a pair of municipalities. *engine.Engine and *PairCache
// satisfy it.
type Comparer interface {
	Compare(a, b model.MunicipalityID) (float64, error)
}

// Corpus lists the candidate municipalities. *refdata.ReferenceData
// satisfies it.
type Corpus interface {
	CandidateIDs() []model.MunicipalityID
	Label(id model.MunicipalityID) string
}

// Observer receives ranking statistics.
type Observer interface {
	ObserveRanking(candidates, ranked, skipped int, d time.Duration)
}

// Result is one ranked candidate.
type Result struct {
	ID    model.MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	Label string               `json:"label" yaml:"label"`
	Score float64              `json:"score" yaml:"score"`
}

// Options configures a Searcher.
type Options struct {
	Concurrency int
	TopN        int
	Observer    Observer
}

// Searcher fans comparisons out over a bounded worker pool.
type Searcher struct {
	cmp    Comparer
	corpus Corpus
	opts   Options
}

// New creates a Searcher.
func New(cmp Comparer, corpus Corpus, opts Options) *Searcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	return &Searcher{cmp: cmp, corpus: corpus, opts: opts}
}

// RankSimilar compares base with every candidate other than itself and
// returns the comparable ones sorted by score, highest first. Ties keep
// candidate order. Candidates that cannot be compared are skipped; the
// ranking never fails because of one candidate. Cancelling ctx stops
// scheduling and returns the context error.
func (s *Searcher) RankSimilar(ctx context.Context, base model.MunicipalityID, candidates []model.MunicipalityID) ([]Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "search"), zap.String("base", string(base)))

	scores := make([]float64, len(candidates))
	ok := make([]bool, len(candidates))

	limit := s.opts.Concurrency
	if limit > len(candidates) {
		limit = len(candidates)
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, c := range candidates {
		if c == base {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := s.cmp.Compare(base, c)
			if err != nil {
				if !errors.Is(err, engine.ErrNotComparable) {
					log.Warn("comparison failed, skipping candidate",
						zap.String("candidate", string(c)), zap.Error(err))
				} else {
					log.Debug("candidate not comparable",
						zap.String("candidate", string(c)), zap.Error(err))
				}
				return nil
			}
			scores[i], ok[i] = score, true
			return nil
		})
	}

	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "search: ranking cancelled")
	}
	if waitErr != nil {
		return nil, eris.Wrap(waitErr, "search: rank similar")
	}

	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		if ok[i] {
			results = append(results, Result{ID: c, Score: scores[i]})
		}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })

	if s.corpus != nil {
		for i := range results {
			results[i].Label = s.corpus.Label(results[i].ID)
		}
	}

	compared := 0
	for _, c := range candidates {
		if c != base {
			compared++
		}
	}
	skipped := compared - len(results)
	elapsed := time.Since(start)
	log.Debug("ranking complete",
		zap.Int("candidates", compared),
		zap.Int("ranked", len(results)),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", elapsed),
	)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveRanking(compared, len(results), skipped, elapsed)
	}
	return results, nil
}

// Top ranks base against the whole corpus and keeps the first n results.
// A non-positive n uses the configured default.
func (s *Searcher) Top(ctx context.Context, base model.MunicipalityID, n int) ([]Result, error) {
	if s.corpus == nil {
		return nil, eris.New("search: no corpus configured")
	}
	if n <= 0 {
		n = s.opts.TopN
	}
	results, err := s.RankSimilar(ctx, base, s.corpus.CandidateIDs())
	if err != nil {
		return nil, err
	}
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}
