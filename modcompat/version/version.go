/*
Package version parses and orders host application version strings (e.g. "1.56" or "v2.06 49617").
*/
package version

import (
	"errors"
	"fmt"
	"strings"

	hashiVer "github.com/hashicorp/go-version"
)

// ErrInvalidVersionFormat indicates the given value cannot be decomposed into numeric segments and an optional qualifier.
var ErrInvalidVersionFormat = errors.New("invalid version format")

// Version is a parsed application version. The zero value is not usable, use Parse.
type Version struct {
	Raw    string
	verObj *hashiVer.Version
}

// Parse reads the first whitespace-delimited token of the given line as a version.
func Parse(line string) (*Version, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no version provided", ErrInvalidVersionFormat)
	}

	raw := fields[0]
	verObj, err := hashiVer.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersionFormat, raw, err)
	}

	return &Version{
		Raw:    raw,
		verObj: verObj,
	}, nil
}

// MustParse is like Parse but panics on a malformed version. Intended for static values and tests.
func MustParse(line string) *Version {
	v, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0, or 1 if this version is smaller, equal, or larger than the other version.
// Build metadata is compared lexically as a last resort so that the order stays total.
func (v *Version) Compare(other *Version) int {
	if c := v.verObj.Compare(other.verObj); c != 0 {
		return c
	}
	return strings.Compare(v.verObj.Metadata(), other.verObj.Metadata())
}

func (v *Version) Equal(other *Version) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.Compare(other) == 0
}

func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

func (v *Version) GreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// Segments returns the numeric components of the version (padded to at least three).
func (v *Version) Segments() []int {
	return v.verObj.Segments()
}

// Qualifier returns the prerelease portion of the version, if any.
func (v *Version) Qualifier() string {
	return v.verObj.Prerelease()
}

func (v *Version) String() string {
	return v.Raw
}

func (v *Version) MarshalText() ([]byte, error) {
	return []byte(v.Raw), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
