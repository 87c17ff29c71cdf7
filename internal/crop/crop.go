// Package crop answers crop questions about municipalities: which crops they
// grow historically, which they share, and where the AEZ model rates a crop
// highest.
package crop

import (
	"math"
	"sort"
	"strconv"

	"github.com/distancia360/agroanalytics/internal/model"
)

// Default result sizes.
const (
	DefaultRecommendTopN          = 5
	DefaultBestMunicipalitiesTopN = 10
	DefaultTopProducersN          = 10
)

// Reference is the read-only lookup the recommender needs.
// *refdata.ReferenceData satisfies it.
type Reference interface {
	Label(id model.MunicipalityID) string
	CropName(id model.CropID) string
	AptitudesFor(id model.MunicipalityID) []model.AptitudeRow
	AptitudesForCrop(id model.CropID) []model.AptitudeRow
	ClosuresFor(id model.MunicipalityID) []model.ClosureRecord
	ClosuresForCrop(id model.CropID) []model.ClosureRecord
}

// Aptitude is the AEZ rating of one crop in a municipality.
type Aptitude struct {
	Crop     model.CropID `json:"crop" yaml:"crop"`
	Name     string       `json:"name" yaml:"name"`
	Aptitude float64      `json:"aptitude" yaml:"aptitude"`
}

// MunicipalityAptitude is the AEZ rating of a crop in one municipality.
type MunicipalityAptitude struct {
	ID       model.MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	Label    string               `json:"label" yaml:"label"`
	Aptitude float64              `json:"aptitude" yaml:"aptitude"`
}

// CropComparison is the crop-level view of two municipalities.
type CropComparison struct {
	Shared          []model.Crop `json:"shared" yaml:"shared"`
	Missing         []model.Crop `json:"missing" yaml:"missing"`
	MissingAptitude []Aptitude   `json:"missing_aptitude" yaml:"missing_aptitude"`
	Recommendations []Aptitude   `json:"recommendations" yaml:"recommendations"`
}

// Options sets the default result sizes.
type Options struct {
	RecommendTopN          int
	BestMunicipalitiesTopN int
}

// Recommender is stateless over an immutable reference and safe for
// concurrent use.
type Recommender struct {
	ref  Reference
	opts Options
}

// New creates a Recommender. Non-positive sizes fall back to the defaults.
func New(ref Reference, opts Options) *Recommender {
	if opts.RecommendTopN <= 0 {
		opts.RecommendTopN = DefaultRecommendTopN
	}
	if opts.BestMunicipalitiesTopN <= 0 {
		opts.BestMunicipalitiesTopN = DefaultBestMunicipalitiesTopN
	}
	return &Recommender{ref: ref, opts: opts}
}

// CropsGrown returns the distinct crops recorded in the closure table for id,
// sorted by crop id. It is empty when id has no records.
func (r *Recommender) CropsGrown(id model.MunicipalityID) []model.Crop {
	return r.named(r.grown(id))
}

// SharedCrops returns the crops both municipalities grow.
func (r *Recommender) SharedCrops(a, b model.MunicipalityID) []model.Crop {
	ga, gb := r.grown(a), r.grown(b)
	var out []model.CropID
	for c := range ga {
		if gb[c] {
			out = append(out, c)
		}
	}
	return r.named(setOf(out))
}

// MissingCrops returns the crops other grows and base does not.
func (r *Recommender) MissingCrops(base, other model.MunicipalityID) []model.Crop {
	gBase, gOther := r.grown(base), r.grown(other)
	var out []model.CropID
	for c := range gOther {
		if !gBase[c] {
			out = append(out, c)
		}
	}
	return r.named(setOf(out))
}

// AptitudeFor returns the AEZ rows of id restricted to crops, in table order.
func (r *Recommender) AptitudeFor(id model.MunicipalityID, crops []model.CropID) []Aptitude {
	want := setOf(crops)
	out := []Aptitude{}
	for _, row := range r.ref.AptitudesFor(id) {
		if want[row.Crop] {
			out = append(out, r.aptitude(row))
		}
	}
	return out
}

// RecommendBest returns the n crops with the highest aptitude in id. Ties keep
// table order. A non-positive n uses the configured default.
func (r *Recommender) RecommendBest(id model.MunicipalityID, n int) []Aptitude {
	if n <= 0 {
		n = r.opts.RecommendTopN
	}
	rows := append([]model.AptitudeRow(nil), r.ref.AptitudesFor(id)...)
	sortByAptitude(rows)

	out := make([]Aptitude, 0, min(n, len(rows)))
	for _, row := range rows[:min(n, len(rows))] {
		out = append(out, r.aptitude(row))
	}
	return out
}

// BestMunicipalitiesFor returns the n municipalities with the highest aptitude
// for crop. Ties keep table order.
func (r *Recommender) BestMunicipalitiesFor(crop model.CropID, n int) []MunicipalityAptitude {
	if n <= 0 {
		n = r.opts.BestMunicipalitiesTopN
	}
	rows := append([]model.AptitudeRow(nil), r.ref.AptitudesForCrop(crop)...)
	sortByAptitude(rows)

	out := make([]MunicipalityAptitude, 0, min(n, len(rows)))
	for _, row := range rows[:min(n, len(rows))] {
		out = append(out, MunicipalityAptitude{ID: row.ID, Label: r.ref.Label(row.ID), Aptitude: row.Aptitude})
	}
	return out
}

// CompareCropProfile summarizes a against b: shared crops, crops b grows that
// a lacks, a's aptitude for those, and a's own top recommendations.
func (r *Recommender) CompareCropProfile(a, b model.MunicipalityID) CropComparison {
	missing := r.MissingCrops(a, b)
	ids := make([]model.CropID, len(missing))
	for i, c := range missing {
		ids[i] = c.ID
	}
	return CropComparison{
		Shared:          r.SharedCrops(a, b),
		Missing:         missing,
		MissingAptitude: r.AptitudeFor(a, ids),
		Recommendations: r.RecommendBest(a, 0),
	}
}

func (r *Recommender) grown(id model.MunicipalityID) map[model.CropID]bool {
	set := make(map[model.CropID]bool)
	for _, rec := range r.ref.ClosuresFor(id) {
		if rec.Crop != "" {
			set[rec.Crop] = true
		}
	}
	return set
}

func (r *Recommender) named(set map[model.CropID]bool) []model.Crop {
	ids := make([]model.CropID, 0, len(set))
	for c := range set {
		ids = append(ids, c)
	}
	SortIDs(ids)

	out := make([]model.Crop, len(ids))
	for i, c := range ids {
		out[i] = model.Crop{ID: c, Name: r.ref.CropName(c)}
	}
	return out
}

func (r *Recommender) aptitude(row model.AptitudeRow) Aptitude {
	return Aptitude{Crop: row.Crop, Name: r.ref.CropName(row.Crop), Aptitude: row.Aptitude}
}

func setOf(ids []model.CropID) map[model.CropID]bool {
	set := make(map[model.CropID]bool, len(ids))
	for _, c := range ids {
		set[c] = true
	}
	return set
}

// sortByAptitude orders rows by aptitude, highest first, with NaN last.
func sortByAptitude(rows []model.AptitudeRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Aptitude, rows[j].Aptitude
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
}

// SortIDs orders crop ids numerically when both parse as integers, and
// lexically otherwise, with numeric ids first.
func SortIDs(ids []model.CropID) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(string(ids[i]))
		b, errB := strconv.Atoi(string(ids[j]))
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
