package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anchore/modcompat/modcompat/epoch"
)

// stateJSON is the on-disk shape of a State. A missing validator or check timestamp is written as null.
type stateJSON struct {
	CompatibilityVersions epoch.Table     `json:"compatibilityVersions"`
	ETag                  *string         `json:"etag"`
	Checked               json.RawMessage `json:"checked"`
}

func (s State) MarshalJSON() ([]byte, error) {
	sj := stateJSON{
		CompatibilityVersions: s.Table,
		Checked:               json.RawMessage("null"),
	}
	if s.ETag != "" {
		etag := s.ETag
		sj.ETag = &etag
	}
	if s.Checked != nil {
		by, err := json.Marshal(s.Checked.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, err
		}
		sj.Checked = by
	}
	return json.Marshal(sj)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var sj stateJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}

	checked, err := parseChecked(sj.Checked)
	if err != nil {
		return err
	}

	result := State{
		Table:   sj.CompatibilityVersions,
		Checked: checked,
	}
	if sj.ETag != nil {
		result.ETag = *sj.ETag
	}

	*s = result
	return nil
}

// parseChecked accepts an RFC 3339 string or a number of milliseconds since the unix epoch (as written by earlier
// releases of the mod installer).
func parseChecked(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		t := time.UnixMilli(millis).UTC()
		return &t, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("unable to parse checked timestamp: %w", err)
	}
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("unable to parse checked timestamp %q: %w", value, err)
	}
	t = t.UTC()
	return &t, nil
}
