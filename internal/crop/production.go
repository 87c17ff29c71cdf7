package crop

import (
	"sort"

	"github.com/distancia360/agroanalytics/internal/model"
)

// YearTotal is the closure production of one year.
type YearTotal struct {
	Year       int     `json:"year" yaml:"year"`
	Production float64 `json:"production" yaml:"production"`
}

// Producer is a municipality's total production of one crop.
type Producer struct {
	ID         model.MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	Label      string               `json:"label" yaml:"label"`
	Production float64              `json:"production" yaml:"production"`
}

// AnnualProduction sums the closure production volume of id per year, in
// ascending year order. Records without a year are ignored.
func (r *Recommender) AnnualProduction(id model.MunicipalityID) []YearTotal {
	totals := make(map[int]float64)
	for _, rec := range r.ref.ClosuresFor(id) {
		if rec.Year == 0 {
			continue
		}
		totals[rec.Year] += rec.Production
	}

	out := make([]YearTotal, 0, len(totals))
	for y, p := range totals {
		out = append(out, YearTotal{Year: y, Production: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// TopProducers returns the n municipalities with the highest total production
// of crop over all years. Municipalities with zero total are left out; ties
// keep first-appearance order.
func (r *Recommender) TopProducers(crop model.CropID, n int) []Producer {
	if n <= 0 {
		n = DefaultTopProducersN
	}
	var order []model.MunicipalityID
	totals := make(map[model.MunicipalityID]float64)
	for _, rec := range r.ref.ClosuresForCrop(crop) {
		if _, ok := totals[rec.ID]; !ok {
			order = append(order, rec.ID)
		}
		totals[rec.ID] += rec.Production
	}

	out := make([]Producer, 0, len(order))
	for _, id := range order {
		if totals[id] > 0 {
			out = append(out, Producer{ID: id, Label: r.ref.Label(id), Production: totals[id]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Production > out[j].Production })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
