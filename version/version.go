package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ErrParse is returned for any string that is not a dotted numeric version.
var ErrParse = errors.New("invalid version")

var dottedNumeric = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// Version is a dotted numeric release version such as 7.10.0.
// The zero value is not valid; use Parse or Zero.
type Version struct {
	raw string
	v   *goversion.Version
}

// Parse accepts only digits separated by single dots. Prefixes, pre-release
// and build suffixes are rejected.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if !dottedNumeric.MatchString(s) {
		return Version{}, fmt.Errorf("%w: %q", ErrParse, s)
	}

	v, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}

	return Version{raw: s, v: v}, nil
}

func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Zero is 0.0.0, the last-notified version of an instance that was never notified.
func Zero() Version {
	return MustParse("0.0.0")
}

func (v Version) IsValid() bool {
	return v.v != nil
}

// Compare returns -1, 0 or 1. Missing trailing segments compare as zero.
func (v Version) Compare(o Version) int {
	return v.v.Compare(o.v)
}

func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

func (v Version) LessThanOrEqual(o Version) bool {
	return v.Compare(o) <= 0
}

func (v Version) GreaterThan(o Version) bool {
	return v.Compare(o) > 0
}

// String returns the version as it was parsed, trimmed.
func (v Version) String() string {
	return v.raw
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
