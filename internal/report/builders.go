package report

import (
	"fmt"
	"strconv"

	"github.com/distancia360/agroanalytics/internal/catalog"
	"github.com/distancia360/agroanalytics/internal/crop"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
	"github.com/distancia360/agroanalytics/internal/refdata"
	"github.com/distancia360/agroanalytics/internal/search"
)

func score(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }

func quantity(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Similar renders a ranked similarity list for base.
func Similar(baseLabel string, results []search.Result) *Report {
	r := &Report{
		Title:   "Similar to " + baseLabel,
		Headers: []string{"rank", "cvegeo", "municipality", "score"},
		Data:    results,
	}
	for i, res := range results {
		r.Rows = append(r.Rows, []string{strconv.Itoa(i + 1), string(res.ID), res.Label, score(res.Score)})
	}
	return r
}

// Components renders the per-attribute breakdown of a detailed comparison.
func Components(title string, d *engine.Detail) *Report {
	r := &Report{
		Title:   title,
		Headers: []string{"attribute", "base", "other", "score"},
		Data:    d,
	}
	for _, c := range d.Components {
		s := score(c.Score)
		if !c.Evaluated() {
			s = "skipped"
		}
		r.Rows = append(r.Rows, []string{c.Name, c.Base, c.Other, s})
	}
	r.Rows = append(r.Rows, []string{"composite", "", "", score(d.Score)})
	return r
}

// Crops renders a crop list.
func Crops(title string, crops []model.Crop) *Report {
	r := &Report{Title: title, Headers: []string{"id", "crop"}, Data: crops}
	for _, c := range crops {
		r.Rows = append(r.Rows, []string{string(c.ID), c.Name})
	}
	return r
}

// Aptitudes renders crop aptitudes.
func Aptitudes(title string, rows []crop.Aptitude) *Report {
	r := &Report{Title: title, Headers: []string{"id", "crop", "aptitude"}, Data: rows}
	for _, a := range rows {
		r.Rows = append(r.Rows, []string{string(a.Crop), a.Name, quantity(a.Aptitude)})
	}
	return r
}

// BestMunicipalities renders the municipalities best suited to a crop.
func BestMunicipalities(title string, rows []crop.MunicipalityAptitude) *Report {
	r := &Report{Title: title, Headers: []string{"cvegeo", "municipality", "aptitude"}, Data: rows}
	for _, m := range rows {
		r.Rows = append(r.Rows, []string{string(m.ID), m.Label, quantity(m.Aptitude)})
	}
	return r
}

// CropProfile renders a crop profile comparison as one row per crop, tagged
// with the set it belongs to.
func CropProfile(title string, cmp crop.CropComparison) *Report {
	r := &Report{Title: title, Headers: []string{"set", "id", "crop", "aptitude"}, Data: cmp}
	for _, c := range cmp.Shared {
		r.Rows = append(r.Rows, []string{"shared", string(c.ID), c.Name, ""})
	}
	for _, a := range cmp.MissingAptitude {
		r.Rows = append(r.Rows, []string{"missing", string(a.Crop), a.Name, quantity(a.Aptitude)})
	}
	for _, a := range cmp.Recommendations {
		r.Rows = append(r.Rows, []string{"recommended", string(a.Crop), a.Name, quantity(a.Aptitude)})
	}
	return r
}

// AnnualProduction renders yearly production totals.
func AnnualProduction(title string, rows []crop.YearTotal) *Report {
	r := &Report{Title: title, Headers: []string{"year", "production"}, Data: rows}
	for _, y := range rows {
		r.Rows = append(r.Rows, []string{strconv.Itoa(y.Year), quantity(y.Production)})
	}
	return r
}

// Producers renders the top producers of a crop.
func Producers(title string, rows []crop.Producer) *Report {
	r := &Report{Title: title, Headers: []string{"rank", "cvegeo", "municipality", "production"}, Data: rows}
	for i, p := range rows {
		r.Rows = append(r.Rows, []string{strconv.Itoa(i + 1), string(p.ID), p.Label, quantity(p.Production)})
	}
	return r
}

// Drought renders yearly mean drought levels, one row per municipality and year.
func Drought(title string, series []refdata.DroughtSeries) *Report {
	r := &Report{Title: title, Headers: []string{"cvegeo", "municipality", "year", "level"}, Data: series}
	for _, s := range series {
		for _, y := range s.Years {
			r.Rows = append(r.Rows, []string{string(s.ID), s.Label, strconv.Itoa(y.Year), fmt.Sprintf("%.2f", y.Level)})
		}
	}
	return r
}

// Matches renders name resolution candidates.
func Matches(title string, matches []catalog.Match) *Report {
	r := &Report{Title: title, Headers: []string{"cvegeo", "municipality", "state", "score"}, Data: matches}
	for _, m := range matches {
		r.Rows = append(r.Rows, []string{string(m.ID), m.Name, m.State, score(m.Score)})
	}
	return r
}

// Municipalities renders catalog entries.
func Municipalities(title string, muns []model.Municipality) *Report {
	r := &Report{Title: title, Headers: []string{"cvegeo", "state", "municipality"}, Data: muns}
	for _, m := range muns {
		r.Rows = append(r.Rows, []string{string(m.ID), m.State, m.Name})
	}
	return r
}
