package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/distancia360/agroanalytics/internal/engine"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.Bold)
	dimColor    = color.New(color.Faint)
	highColor   = color.New(color.FgGreen)
	midColor    = color.New(color.FgYellow)
	lowColor    = color.New(color.FgRed)
)

var componentTitles = map[string]string{
	engine.ComponentPrecipCode:  "PRECIPITATION (CODE)",
	engine.ComponentPrecipRange: "PRECIPITATION (RANGE)",
	engine.ComponentTemperature: "TEMPERATURE",
	engine.ComponentClimateUnit: "CLIMATE UNIT",
	engine.ComponentSoil:        "SOIL",
	engine.ComponentLandform:    "LANDFORM",
}

// SetColor turns ANSI colour on or off for WriteDetail.
func SetColor(enabled bool) { color.NoColor = !enabled }

func scoreColor(s float64) *color.Color {
	switch {
	case s >= 0.75:
		return highColor
	case s >= 0.4:
		return midColor
	default:
		return lowColor
	}
}

// WriteDetail writes a detailed comparison as a human-readable block: one
// line per attribute with both raw values and the sub-score, the soil
// strings on their own lines, and the composite score last.
func WriteDetail(w io.Writer, baseLabel, otherLabel string, d *engine.Detail) error {
	rule := strings.Repeat("=", 44)
	var b strings.Builder

	b.WriteString(headerColor.Sprint(rule) + "\n")
	b.WriteString(headerColor.Sprintf("Comparison between %s and %s", baseLabel, otherLabel) + "\n")
	b.WriteString(headerColor.Sprint(rule) + "\n\n")

	for _, c := range d.Components {
		title := componentTitles[c.Name]
		if title == "" {
			title = strings.ToUpper(c.Name)
		}
		sub := dimColor.Sprint("skipped")
		if c.Evaluated() {
			sub = scoreColor(c.Score).Sprintf("%.3f", c.Score)
		}
		if c.Name == engine.ComponentSoil {
			fmt.Fprintf(&b, "\n%s:\n  %s\n  %s\n  Similarity -> %s\n\n", labelColor.Sprint(title), c.Base, c.Other, sub)
			continue
		}
		fmt.Fprintf(&b, "%s: %s vs %s -> %s\n", labelColor.Sprint(title), c.Base, c.Other, sub)
	}

	dash := strings.Repeat("-", 44)
	fmt.Fprintf(&b, "\n%s\n%s -> %s\n%s\n", dash, labelColor.Sprint("COMPOSITE SIMILARITY"),
		scoreColor(d.Score).Sprintf("%.3f", d.Score), dash)

	_, err := io.WriteString(w, b.String())
	return err
}
