// Package catalog resolves free-text municipality names to identifiers and
// filters the municipality catalog by state.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/distancia360/agroanalytics/internal/model"
)

// DefaultThreshold is the minimum score a fuzzy match needs.
const DefaultThreshold = 0.6

// ErrNotFound is returned when no municipality matches a query.
var ErrNotFound = errors.New("catalog: municipality not found")

// AmbiguousError is returned when a name matches several municipalities
// equally well, typically the same name in different states.
type AmbiguousError struct {
	Query      string
	Candidates []Match
}

func (e *AmbiguousError) Error() string {
	labels := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		labels[i] = fmt.Sprintf("%s %s", c.ID, c.Label)
	}
	return fmt.Sprintf("catalog: %q is ambiguous: %s", e.Query, strings.Join(labels, "; "))
}

// Match is a catalog entry scored against a query.
type Match struct {
	ID    model.MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	Name  string               `json:"nomgeo" yaml:"nomgeo"`
	State string               `json:"nom_ent" yaml:"nom_ent"`
	Label string               `json:"label" yaml:"label"`
	Score float64              `json:"score" yaml:"score"`
}

type entry struct {
	m     model.Municipality
	name  string
	state string
}

// Catalog is an immutable, folded index over the municipality catalog.
type Catalog struct {
	entries   []entry
	byID      map[model.MunicipalityID]int
	threshold float64
}

// New indexes muns. A non-positive threshold uses DefaultThreshold.
func New(muns []model.Municipality, threshold float64) *Catalog {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	c := &Catalog{
		entries:   make([]entry, 0, len(muns)),
		byID:      make(map[model.MunicipalityID]int, len(muns)),
		threshold: threshold,
	}
	for _, m := range muns {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.byID[m.ID] = len(c.entries)
		c.entries = append(c.entries, entry{m: m, name: Fold(m.Name), state: Fold(m.State)})
	}
	return c
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s, strips accents and collapses whitespace, so "Tláhuac"
// and "  tlahuac " compare equal.
func Fold(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the catalog entry for id.
func (c *Catalog) Lookup(id model.MunicipalityID) (model.Municipality, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Municipality{}, false
	}
	return c.entries[i].m, true
}

// ByState returns the municipalities of a state in catalog order. state may
// be a state name (accent and case insensitive) or a numeric state code. An
// empty state returns the whole catalog.
func (c *Catalog) ByState(state string) []model.Municipality {
	out := []model.Municipality{}
	for _, e := range c.entries {
		if e.inState(state) {
			out = append(out, e.m)
		}
	}
	return out
}

// States returns the distinct state names in catalog order.
func (c *Catalog) States() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.entries {
		if e.m.State != "" && !seen[e.m.State] {
			seen[e.m.State] = true
			out = append(out, e.m.State)
		}
	}
	return out
}

func (e entry) inState(state string) bool {
	state = strings.TrimSpace(state)
	if state == "" {
		return true
	}
	if isDigits(state) {
		code := state
		if len(code) == 1 {
			code = "0" + code
		}
		return e.m.StateCode == code || (e.m.StateCode == "" && strings.HasPrefix(string(e.m.ID), code))
	}
	return e.state == Fold(state)
}

// Search scores every municipality of state against query and returns those
// at or above the threshold, best first, at most limit (0 means all). Exact
// name matches score 1, prefixes 0.9, substrings 0.8; everything else is
// scored by normalized Levenshtein distance.
func (c *Catalog) Search(query, state string, limit int) []Match {
	q := Fold(query)
	if q == "" {
		return []Match{}
	}
	out := []Match{}
	for _, e := range c.entries {
		if !e.inState(state) {
			continue
		}
		s := score(q, e.name)
		if s < c.threshold {
			continue
		}
		out = append(out, Match{ID: e.m.ID, Name: e.m.Name, State: e.m.State, Label: e.m.Label(), Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func score(q, name string) float64 {
	switch {
	case q == name:
		return 1
	case strings.HasPrefix(name, q):
		return 0.9
	case strings.Contains(name, q):
		return 0.8
	}
	d := levenshtein.ComputeDistance(q, name)
	longest := max(len([]rune(q)), len([]rune(name)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(d)/float64(longest)
}

// Resolve turns a user argument into a municipality id. Numeric input is
// normalized as an identifier; anything else is a name, optionally followed
// by a state as "Name, State" or "Name (State)". The single best match wins;
// a tie between several best matches is an *AmbiguousError.
func (c *Catalog) Resolve(arg string) (model.MunicipalityID, error) {
	arg = strings.TrimSpace(arg)
	if isDigits(arg) {
		id, err := model.NormalizeID(arg)
		if err != nil {
			return "", eris.Wrap(err, "catalog: resolve")
		}
		return id, nil
	}

	name, state := splitState(arg)
	matches := c.Search(name, state, 0)
	if len(matches) == 0 {
		return "", eris.Wrapf(ErrNotFound, "catalog: %q", arg)
	}
	best := matches[0].Score
	n := 1
	for n < len(matches) && matches[n].Score == best {
		n++
	}
	if n > 1 {
		return "", &AmbiguousError{Query: arg, Candidates: matches[:n]}
	}
	return matches[0].ID, nil
}

func splitState(arg string) (name, state string) {
	if open := strings.LastIndex(arg, "("); open > 0 && strings.HasSuffix(arg, ")") {
		return strings.TrimSpace(arg[:open]), strings.TrimSpace(arg[open+1 : len(arg)-1])
	}
	if comma := strings.LastIndex(arg, ","); comma > 0 {
		return strings.TrimSpace(arg[:comma]), strings.TrimSpace(arg[comma+1:])
	}
	return arg, ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
