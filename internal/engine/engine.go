// Package engine aggregates per-attribute similarities into one composite
// score for a pair of municipalities.
package engine

import (
	"github.com/rotisserie/eris"

	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/similarity"
)

// Component names, in report order.
const (
	ComponentPrecipCode  = "precip_code"
	ComponentPrecipRange = "precip_range"
	ComponentTemperature = "temperature"
	ComponentClimateUnit = "climate_unit"
	ComponentSoil        = "soil"
	ComponentLandform    = "landform"
)

// Reference is the read-only lookup the engine needs. *refdata.ReferenceData
// satisfies it.
type Reference interface {
	Precipitation(id model.MunicipalityID) (model.PrecipitationRow, bool)
	Temperature(id model.MunicipalityID) (model.TemperatureRow, bool)
	ClimateUnit(id model.MunicipalityID) (model.ClimateUnitRow, bool)
	Soil(id model.MunicipalityID) (model.SoilRow, bool)
	Landform(id model.MunicipalityID) (model.LandformRow, bool)
}

// Options controls error handling and soil text rendering.
type Options struct {
	// Strict aborts a comparison on the first attribute error. When false the
	// failing attribute is dropped from the mean.
	Strict bool
	// SoilMissingToken replaces absent soil sub-fields.
	SoilMissingToken string
}

// DefaultOptions returns strict mode with the "nan" soil token.
func DefaultOptions() Options {
	return Options{Strict: true, SoilMissingToken: "nan"}
}

// Engine computes composite similarities. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	ref  Reference
	opts Options
}

// New creates an Engine over ref.
func New(ref Reference, opts Options) *Engine {
	return &Engine{ref: ref, opts: opts}
}

// Component is one evaluated attribute of a comparison.
type Component struct {
	Name  string  `json:"name" yaml:"name"`
	Base  string  `json:"base" yaml:"base"`
	Other string  `json:"other" yaml:"other"`
	Score float64 `json:"score" yaml:"score"`
	// Err is set when the attribute was dropped in graceful mode.
	Err error `json:"-" yaml:"-"`
}

// Evaluated reports whether the component contributed to the mean.
func (c Component) Evaluated() bool { return c.Err == nil }

// Detail is a comparison with every raw value and sub-score.
type Detail struct {
	Base       model.Profile `json:"base" yaml:"base"`
	Other      model.Profile `json:"other" yaml:"other"`
	Components []Component   `json:"components" yaml:"components"`
	Score      float64       `json:"score" yaml:"score"`
}

// Compare returns the mean of the precipitation code, temperature range,
// climate unit, soil and landform similarities. A pair with missing rows
// fails with *MissingDataError.
func (e *Engine) Compare(a, b model.MunicipalityID) (float64, error) {
	pa, pb, err := e.profiles(a, b)
	if err != nil {
		return 0, err
	}
	comps := e.components(pa, pb, false)
	return e.aggregate(comps)
}

// CompareDetailed is Compare with the precipitation range as a sixth term,
// returning the raw values and sub-scores.
func (e *Engine) CompareDetailed(a, b model.MunicipalityID) (*Detail, error) {
	pa, pb, err := e.profiles(a, b)
	if err != nil {
		return nil, err
	}
	comps := e.components(pa, pb, true)
	score, err := e.aggregate(comps)
	if err != nil {
		return nil, err
	}
	return &Detail{Base: *pa, Other: *pb, Components: comps, Score: score}, nil
}

// Profile returns the attribute bundle of id and the tables that have no row
// for it. Fields from missing tables are left empty.
func (e *Engine) Profile(id model.MunicipalityID) (*model.Profile, []string) {
	p := &model.Profile{ID: id}
	var missing []string

	if row, ok := e.ref.Precipitation(id); ok {
		p.PrecipCode, p.PrecipRange = row.Code, row.Range
	} else {
		missing = append(missing, model.TablePrecipitation)
	}
	if row, ok := e.ref.Temperature(id); ok {
		p.TemperatureRange = row.Range
	} else {
		missing = append(missing, model.TableTemperature)
	}
	if row, ok := e.ref.ClimateUnit(id); ok {
		p.ClimateUnitType = row.Type
	} else {
		missing = append(missing, model.TableClimateUnit)
	}
	if row, ok := e.ref.Soil(id); ok {
		p.Soil = similarity.SoilText(row.Fields(), e.opts.SoilMissingToken)
	} else {
		missing = append(missing, model.TableSoil)
	}
	if row, ok := e.ref.Landform(id); ok {
		p.LandformCode, p.LandformName, p.LandformDescription = row.Code, row.Name, row.Description
	} else {
		missing = append(missing, model.TableLandform)
	}
	return p, missing
}

func (e *Engine) profiles(a, b model.MunicipalityID) (*model.Profile, *model.Profile, error) {
	pa, missing := e.Profile(a)
	if len(missing) > 0 {
		return nil, nil, &MissingDataError{ID: a, Side: SideBase, Tables: missing}
	}
	pb, missing := e.Profile(b)
	if len(missing) > 0 {
		return nil, nil, &MissingDataError{ID: b, Side: SideOther, Tables: missing}
	}
	return pa, pb, nil
}

func (e *Engine) components(a, b *model.Profile, detailed bool) []Component {
	comps := make([]Component, 0, 6)
	add := func(name, va, vb string, score float64, err error) {
		comps = append(comps, Component{Name: name, Base: va, Other: vb, Score: score, Err: err})
	}

	s, err := similarity.Precip(a.PrecipCode, b.PrecipCode)
	add(ComponentPrecipCode, a.PrecipCode, b.PrecipCode, s, err)
	if detailed {
		s, err = similarity.Precip(a.PrecipRange, b.PrecipRange)
		add(ComponentPrecipRange, a.PrecipRange, b.PrecipRange, s, err)
	}
	s, err = similarity.Precip(a.TemperatureRange, b.TemperatureRange)
	add(ComponentTemperature, a.TemperatureRange, b.TemperatureRange, s, err)
	s, err = similarity.Numeric(a.ClimateUnitType, b.ClimateUnitType)
	add(ComponentClimateUnit, a.ClimateUnitType, b.ClimateUnitType, s, err)
	add(ComponentSoil, a.Soil, b.Soil, similarity.Soil(a.Soil, b.Soil), nil)
	add(ComponentLandform, a.LandformCode, b.LandformCode, similarity.Landform(a.LandformCode, b.LandformCode), nil)
	return comps
}

func (e *Engine) aggregate(comps []Component) (float64, error) {
	var sum float64
	var n int
	for _, c := range comps {
		if c.Err != nil {
			if e.opts.Strict {
				return 0, &AttributeError{Attribute: c.Name, Err: c.Err}
			}
			continue
		}
		sum += c.Score
		n++
	}
	if n == 0 {
		return 0, eris.Wrap(ErrNotComparable, "engine: no attribute could be evaluated")
	}
	return sum / float64(n), nil
}
