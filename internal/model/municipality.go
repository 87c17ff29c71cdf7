package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IDWidth is the canonical CVEGEO width.
const IDWidth = 5

// MunicipalityID is a canonical, zero-left-padded CVEGEO.
type MunicipalityID string

func (id MunicipalityID) String() string { return string(id) }

// IdentifierError reports a raw value that cannot be turned into a MunicipalityID.
type IdentifierError struct {
	Raw    any
	Reason string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid municipality id %v: %s", e.Raw, e.Reason)
}

// NormalizeID casts raw to text and left-pads it with '0' to IDWidth.
// Values longer than IDWidth are returned unchanged.
func NormalizeID(raw any) (MunicipalityID, error) {
	var s string
	switch v := raw.(type) {
	case MunicipalityID:
		s = string(v)
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return "", &IdentifierError{Raw: raw, Reason: "not a whole number"}
		}
		s = strconv.FormatInt(int64(v), 10)
	case nil:
		return "", &IdentifierError{Raw: raw, Reason: "missing"}
	default:
		return "", &IdentifierError{Raw: raw, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", &IdentifierError{Raw: raw, Reason: "empty"}
	}
	if n := len(s); n < IDWidth {
		s = strings.Repeat("0", IDWidth-n) + s
	}
	return MunicipalityID(s), nil
}

// MustNormalizeID is NormalizeID for literals known to be valid.
func MustNormalizeID(raw any) MunicipalityID {
	id, err := NormalizeID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Municipality is one row of the municipality catalog.
type Municipality struct {
	ID        MunicipalityID `json:"cvegeo" yaml:"cvegeo"`
	StateCode string         `json:"cve_ent,omitempty" yaml:"cve_ent,omitempty"`
	State     string         `json:"nom_ent" yaml:"nom_ent"`
	Name      string         `json:"nomgeo" yaml:"nomgeo"`
	Lon       *float64       `json:"lon,omitempty" yaml:"lon,omitempty"`
	Lat       *float64       `json:"lat,omitempty" yaml:"lat,omitempty"`
}

// Label returns "NOMGEO (NOM_ENT)", falling back to the id.
func (m Municipality) Label() string {
	switch {
	case m.Name == "":
		return string(m.ID)
	case m.State == "":
		return m.Name
	default:
		return m.Name + " (" + m.State + ")"
	}
}
