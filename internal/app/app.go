// Package app wires the reference data into the engines the CLI and the HTTP
// API query, and resolves user-supplied municipality and crop arguments.
package app

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/catalog"
	"github.com/distancia360/agroanalytics/internal/config"
	"github.com/distancia360/agroanalytics/internal/crop"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/search"
)

// Lookup errors.
var (
	ErrUnknownMunicipality = errors.New("app: unknown municipality")
	ErrUnknownCrop         = errors.New("app: unknown crop")
)

// Options configures the engines.
type Options struct {
	Engine engine.Options
	Search search.Options
	Crops  crop.Options
	// MatchThreshold is the minimum name similarity for catalog resolution.
	MatchThreshold float64
	// Cache enables the pair cache; CacheMaxEntries <= 0 leaves it unbounded.
	Cache           bool
	CacheMaxEntries int
}

// OptionsFromConfig maps configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Engine: engine.Options{
			Strict:           cfg.Similarity.Strict,
			SoilMissingToken: cfg.Similarity.SoilMissingToken,
		},
		Search: search.Options{
			Concurrency: cfg.Search.Concurrency,
			TopN:        cfg.Search.TopN,
		},
		Crops: crop.Options{
			RecommendTopN:          cfg.Crops.RecommendTopN,
			BestMunicipalitiesTopN: cfg.Crops.BestMunicipalitiesTopN,
		},
		MatchThreshold:  cfg.Catalog.MatchThreshold,
		CacheMaxEntries: cfg.Server.CacheMaxEntries,
	}
}

// App holds the immutable reference data and every engine built on it. It is
// safe for concurrent use.
type App struct {
	Tables   *refdata.Tables
	Ref      *refdata.ReferenceData
	Engine   *engine.Engine
	Cache    *search.PairCache // nil unless Options.Cache
	Searcher *search.Searcher
	Crops    *crop.Recommender
	Catalog  *catalog.Catalog
}

// New builds an App over t.
func New(t *refdata.Tables, opts Options) *App {
	ref := refdata.New(t)
	eng := engine.New(ref, opts.Engine)

	a := &App{
		Tables:  t,
		Ref:     ref,
		Engine:  eng,
		Crops:   crop.New(ref, opts.Crops),
		Catalog: catalog.New(ref.Municipalities(), opts.MatchThreshold),
	}

	var cmp search.Comparer = eng
	if opts.Cache {
		a.Cache = search.NewPairCache(eng, opts.CacheMaxEntries)
		cmp = a.Cache
	}
	a.Searcher = search.New(cmp, ref, opts.Search)

	zap.L().Debug("reference data ready",
		zap.Int("municipalities", a.Catalog.Len()),
		zap.Int("candidates", len(ref.CandidateIDs())),
		zap.Int("crops", len(ref.Crops())),
	)
	return a
}

// Municipality resolves an identifier or a municipality name to a known id.
func (a *App) Municipality(arg string) (model.MunicipalityID, error) {
	arg = strings.TrimSpace(arg)
	var id model.MunicipalityID
	var err error
	if arg != "" && a.Catalog.Len() > 0 {
		id, err = a.Catalog.Resolve(arg)
	} else {
		id, err = model.NormalizeID(arg)
	}
	if err != nil {
		return "", err
	}
	if !a.Ref.Known(id) {
		return "", eris.Wrapf(ErrUnknownMunicipality, "app: %s", id)
	}
	return id, nil
}

// Crop resolves a crop id or catalog name to a known crop id.
func (a *App) Crop(arg string) (model.CropID, error) {
	id := model.NormalizeCropID(arg)
	if id != "" && a.Ref.KnownCrop(id) {
		return id, nil
	}
	folded := catalog.Fold(arg)
	for _, c := range a.Ref.Crops() {
		if catalog.Fold(c.Name) == folded {
			return c.ID, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownCrop, "app: %q", arg)
}

// Label returns the display label of id.
func (a *App) Label(id model.MunicipalityID) string { return a.Ref.Label(id) }

// Counts reports rows per reference table.
func (a *App) Counts() map[string]int { return a.Tables.Counts() }

// IsNotFound reports whether err means an argument named nothing known.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownMunicipality) || errors.Is(err, ErrUnknownCrop) || errors.Is(err, catalog.ErrNotFound)
}
