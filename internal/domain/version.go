package domain

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a plugin release version. WordPress accepts loose versions
// ("1.2", "2.0.0-beta.1"), so parsing is not strict semver but the value
// must still be parseable as one.
type Version struct {
	raw string
	sv  *semver.Version
}

// NewVersion parses value as a release version
func NewVersion(value string) (Version, error) {
	if value == "" {
		return Version{}, fmt.Errorf("version cannot be empty")
	}
	sv, err := semver.NewVersion(value)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", value, err)
	}
	return Version{raw: value, sv: sv}, nil
}

// MustVersion is NewVersion that panics on error. Intended for tests and constants.
func MustVersion(value string) Version {
	v, err := NewVersion(value)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version exactly as written
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether v was never set
func (v Version) IsZero() bool {
	return v.sv == nil
}

// LessThan compares two versions by semver precedence
func (v Version) LessThan(other Version) bool {
	if v.sv == nil || other.sv == nil {
		return v.sv == nil && other.sv != nil
	}
	return v.sv.LessThan(other.sv)
}

// Prerelease reports whether the version carries a prerelease suffix
func (v Version) Prerelease() bool {
	return v.sv != nil && v.sv.Prerelease() != ""
}
