// Package libversion is the single source of truth for the library release
// identity: a display string, the numeric triple and a symbolic macro tag.
//
// All identity values are constants so dependents can gate on them at
// compile time:
//
//	const _ = uint(libversion.Major - 7) // fails to build below 7.x
package libversion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	semver "github.com/blang/semver/v4"
	"github.com/hashicorp/go-multierror"
)

const (
	// Name is the library the metadata belongs to.
	Name = "ArduinoJson"
	// Version is the human-readable MAJOR.MINOR.REVISION string.
	Version = "7.2.1"
	// Major is the major version number.
	Major = 7
	// Minor is the minor version number.
	Minor = 2
	// Revision is the patch/revision number.
	Revision = 1
	// Macro is an identifier-safe tag suitable as a symbol suffix.
	Macro = "V721"
)

var (
	// ErrTooOld is returned by Require when the current release is below the requested minimum.
	ErrTooOld = errors.New("libversion: version too old")
	// ErrInvalidVersion is returned for strings that are not MAJOR.MINOR.REVISION.
	ErrInvalidVersion = errors.New("libversion: invalid version")
	// ErrInvalidTag is returned for strings that are not a macro tag.
	ErrInvalidTag = errors.New("libversion: invalid macro tag")
)

// Triple is the numeric form of a release.
type Triple struct {
	Major    uint64
	Minor    uint64
	Revision uint64
}

// Current returns the triple of the compiled-in constants.
func Current() Triple {
	return Triple{Major: Major, Minor: Minor, Revision: Revision}
}

// String formats the triple as MAJOR.MINOR.REVISION.
func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Revision)
}

// Tag returns the symbolic macro tag. Triples whose components are all single
// digits keep the compact V<major><minor><revision> form; otherwise the
// components are joined with underscores so distinct triples never collide.
func (t Triple) Tag() string {
	if t.Major < 10 && t.Minor < 10 && t.Revision < 10 {
		return fmt.Sprintf("V%d%d%d", t.Major, t.Minor, t.Revision)
	}
	return fmt.Sprintf("V%d_%d_%d", t.Major, t.Minor, t.Revision)
}

// Semver converts the triple into a semver.Version.
func (t Triple) Semver() semver.Version {
	return semver.Version{Major: t.Major, Minor: t.Minor, Patch: t.Revision}
}

// Compare returns -1, 0 or 1 when t is lower than, equal to or greater than other.
func (t Triple) Compare(other Triple) int {
	return t.Semver().Compare(other.Semver())
}

// AtLeast reports whether t is the same release as min or newer.
func (t Triple) AtLeast(min Triple) bool {
	return t.Compare(min) >= 0
}

// FromSemver drops pre-release and build metadata from v.
func FromSemver(v semver.Version) Triple {
	return Triple{Major: v.Major, Minor: v.Minor, Revision: v.Patch}
}

// Parse reads a strict MAJOR.MINOR.REVISION string. A single leading "v" or "V"
// is accepted; pre-release and build suffixes are not.
func Parse(value string) (Triple, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > 1 && (trimmed[0] == 'v' || trimmed[0] == 'V') {
		trimmed = trimmed[1:]
	}
	if trimmed == "" {
		return Triple{}, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}

	parsed, err := semver.Parse(trimmed)
	if err != nil {
		return Triple{}, fmt.Errorf("%w %q: %w", ErrInvalidVersion, value, err)
	}
	if len(parsed.Pre) > 0 || len(parsed.Build) > 0 {
		return Triple{}, fmt.Errorf("%w %q: pre-release and build metadata are not allowed", ErrInvalidVersion, value)
	}

	return FromSemver(parsed), nil
}

// ParseTag reads a macro tag produced by Triple.Tag. Non-canonical spellings
// (e.g. V7_2_1 for a single-digit triple) are rejected.
func ParseTag(tag string) (Triple, error) {
	trimmed := strings.TrimSpace(tag)
	if len(trimmed) < 2 || trimmed[0] != 'V' {
		return Triple{}, fmt.Errorf("%w %q", ErrInvalidTag, tag)
	}
	body := trimmed[1:]

	var parts []string
	if strings.Contains(body, "_") {
		parts = strings.Split(body, "_")
	} else {
		if len(body) != 3 {
			return Triple{}, fmt.Errorf("%w %q", ErrInvalidTag, tag)
		}
		parts = []string{body[0:1], body[1:2], body[2:3]}
	}
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("%w %q", ErrInvalidTag, tag)
	}

	nums := make([]uint64, 0, 3)
	for _, part := range parts {
		if part == "" || (len(part) > 1 && part[0] == '0') {
			return Triple{}, fmt.Errorf("%w %q", ErrInvalidTag, tag)
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Triple{}, fmt.Errorf("%w %q: %w", ErrInvalidTag, tag, err)
		}
		nums = append(nums, n)
	}

	t := Triple{Major: nums[0], Minor: nums[1], Revision: nums[2]}
	if t.Tag() != trimmed {
		return Triple{}, fmt.Errorf("%w %q: canonical form is %s", ErrInvalidTag, tag, t.Tag())
	}
	return t, nil
}

// Require fails with ErrTooOld when the compiled-in release is older than min.
func Require(min string) error {
	want, err := Parse(min)
	if err != nil {
		return err
	}
	if !Current().AtLeast(want) {
		return fmt.Errorf("%w: %s %s is older than required %s", ErrTooOld, Name, Version, want)
	}
	return nil
}

// Symbol suffixes name with the macro tag, e.g. "JsonDocument_V721".
func Symbol(name string) string {
	return name + "_" + Macro
}

// Banner returns the name and version for diagnostics.
func Banner() string {
	return Name + " " + Version
}

// Verify checks that the version string, macro tag and numeric constants all
// describe the same release. Every violation is reported.
func Verify() error {
	return Check(Version, Macro, Current())
}

// Check verifies that version and tag encode triple.
func Check(version, tag string, triple Triple) error {
	var merr error

	parsed, err := Parse(version)
	switch {
	case err != nil:
		merr = multierror.Append(merr, err)
	case parsed != triple:
		merr = multierror.Append(merr, fmt.Errorf("version string %q does not match numeric triple %s", version, triple))
	case version != triple.String():
		merr = multierror.Append(merr, fmt.Errorf("version string %q is not canonical, want %q", version, triple.String()))
	}

	if want := triple.Tag(); tag != want {
		merr = multierror.Append(merr, fmt.Errorf("macro tag %q does not match numeric triple %s, want %q", tag, triple, want))
	}

	return merr
}
