package refdata

import (
	"math"
	"sort"

	"github.com/distancia360/agroanalytics/internal/model"
)

// YearLevel is the mean drought level of one year.
type YearLevel struct {
	Year  int     `json:"year" yaml:"year"`
	Level float64 `json:"level" yaml:"level"`
}

// DroughtSeries is the yearly drought history of one municipality.
type DroughtSeries struct {
	ID    model.MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	Label string               `json:"label" yaml:"label"`
	Years []YearLevel          `json:"years" yaml:"years"`
}

// DroughtHistory aggregates the drought observations of each id into yearly
// means rounded half to even, in ascending year order. Ids without records
// are omitted; duplicates are reported once. Records with a zero date are
// ignored.
func (r *ReferenceData) DroughtHistory(ids []model.MunicipalityID) []DroughtSeries {
	seen := make(map[model.MunicipalityID]bool, len(ids))
	var out []DroughtSeries
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		years := yearlyMeans(r.drought[id])
		if len(years) == 0 {
			continue
		}
		out = append(out, DroughtSeries{ID: id, Label: r.Label(id), Years: years})
	}
	return out
}

func yearlyMeans(records []model.DroughtRecord) []YearLevel {
	type acc struct {
		sum float64
		n   int
	}
	byYear := make(map[int]*acc)
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		y := rec.Date.Year()
		a, ok := byYear[y]
		if !ok {
			a = &acc{}
			byYear[y] = a
		}
		a.sum += rec.Level
		a.n++
	}

	out := make([]YearLevel, 0, len(byYear))
	for y, a := range byYear {
		out = append(out, YearLevel{Year: y, Level: math.RoundToEven(a.sum / float64(a.n))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
