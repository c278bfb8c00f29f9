/*
Package epoch models compatibility epochs: named boundaries in the application version history after which mod
compatibility assumptions changed. All application versions up to the next boundary share the same epoch.
*/
package epoch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anchore/modcompat/modcompat/version"
)

const dateOnlyLayout = "2006-01-02"

// Epoch is a single compatibility boundary: an application version and the date from which it is effective.
type Epoch struct {
	version       *version.Version
	effectiveFrom time.Time
}

func New(v *version.Version, effectiveFrom time.Time) Epoch {
	return Epoch{
		version:       v,
		effectiveFrom: effectiveFrom.UTC(),
	}
}

func (e Epoch) Version() *version.Version {
	return e.version
}

func (e Epoch) EffectiveFrom() time.Time {
	return e.effectiveFrom
}

// Equal indicates epoch identity, which is determined by the boundary version alone.
func (e *Epoch) Equal(other *Epoch) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.version.Equal(other.version)
}

func (e Epoch) String() string {
	return fmt.Sprintf("Epoch(version=%s effective=%s)", e.version, e.effectiveFrom.Format(dateOnlyLayout))
}

type epochJSON struct {
	Version string `json:"version"`
	Date    string `json:"date"`
}

func (e Epoch) MarshalJSON() ([]byte, error) {
	return json.Marshal(epochJSON{
		Version: e.version.String(),
		Date:    e.effectiveFrom.Format(time.RFC3339),
	})
}

func (e *Epoch) UnmarshalJSON(data []byte) error {
	var ej epochJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}

	v, err := version.Parse(ej.Version)
	if err != nil {
		return fmt.Errorf("bad epoch version: %w", err)
	}

	effectiveFrom, err := parseDate(ej.Date)
	if err != nil {
		return fmt.Errorf("bad epoch date for version %q: %w", ej.Version, err)
	}

	*e = New(v, effectiveFrom)
	return nil
}

// parseDate accepts RFC 3339 timestamps as well as plain dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateOnlyLayout, raw)
}
