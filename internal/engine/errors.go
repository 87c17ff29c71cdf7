package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/distancia360/agroanalytics/internal/model"
)

// ErrNotComparable is matched by every error that means a pair of
// municipalities has no defined similarity.
var ErrNotComparable = errors.New("engine: municipalities are not comparable")

// Side names which municipality of a pair an error refers to.
type Side string

// Sides of a comparison.
const (
	SideBase  Side = "base"
	SideOther Side = "other"
)

// MissingDataError reports reference tables with no row for a municipality.
type MissingDataError struct {
	ID     model.MunicipalityID
	Side   Side
	Tables []string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("engine: %s municipality %s has no data in %s", e.Side, e.ID, strings.Join(e.Tables, ", "))
}

// Reversed returns the same report as seen from the swapped pair, where the
// base municipality becomes the other one.
func (e *MissingDataError) Reversed() *MissingDataError {
	r := *e
	if e.Side == SideBase {
		r.Side = SideOther
	} else {
		r.Side = SideBase
	}
	return &r
}

// Is makes errors.Is(err, ErrNotComparable) true.
func (e *MissingDataError) Is(target error) bool { return target == ErrNotComparable }

// AttributeError reports an attribute whose values could not be compared,
// typically a malformed range.
type AttributeError struct {
	Attribute string
	Err       error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("engine: attribute %s: %v", e.Attribute, e.Err)
}

func (e *AttributeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotComparable) true.
func (e *AttributeError) Is(target error) bool { return target == ErrNotComparable }
