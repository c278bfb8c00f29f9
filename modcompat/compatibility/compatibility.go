package compatibility

import (
	"fmt"
	"strings"
)

// Compatibility is the resolved verdict for a single mod against the installed application.
type Compatibility int

const (
	// Unknown means the installed application version cannot be placed in any epoch.
	Unknown Compatibility = iota
	// Old means the mod targets a different epoch than the installed application.
	Old
	// OK means the mod targets the same epoch as the installed application.
	OK
)

var names = map[Compatibility]string{
	Unknown: "unknown",
	Old:     "old",
	OK:      "ok",
}

func Parse(value string) (Compatibility, error) {
	for c, name := range names {
		if strings.EqualFold(value, name) {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown compatibility value: %q", value)
}

func (c Compatibility) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return names[Unknown]
}

func (c Compatibility) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Compatibility) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
