package bump

import (
	"fmt"
	"strings"

	"github.com/launchbynttdata/libversion/pkg/libversion"
)

// Bump represents the release increment intent.
type Bump string

const (
	BumpMajor    Bump = "major"
	BumpMinor    Bump = "minor"
	BumpRevision Bump = "revision"
)

// aliasPatch is accepted by Parse for users coming from semver tooling.
const aliasPatch = "patch"

// Default returns the default bump intent (revision).
func Default() Bump {
	return BumpRevision
}

// Parse converts a string into a Bump value.
func Parse(value string) (Bump, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == aliasPatch {
		return BumpRevision, nil
	}
	switch Bump(normalized) {
	case BumpMajor, BumpMinor, BumpRevision:
		return Bump(normalized), nil
	default:
		return "", fmt.Errorf("invalid bump %q", value)
	}
}

// HigherImpactThan reports whether the bump is higher impact (larger) than another.
func (b Bump) HigherImpactThan(other Bump) bool {
	return weight(b) > weight(other)
}

// Max returns the highest-impact bump in the slice. Defaults to revision when empty.
func Max(values ...Bump) Bump {
	max := Default()
	for _, v := range values {
		if v.HigherImpactThan(max) {
			max = v
		}
	}
	return max
}

// String returns the textual representation. Defaults to "revision" for unknown values.
func (b Bump) String() string {
	switch b {
	case BumpMajor, BumpMinor, BumpRevision:
		return string(b)
	default:
		return string(BumpRevision)
	}
}

// Apply increments base by the intent. Lower components reset to zero.
func Apply(base libversion.Triple, intent Bump) (libversion.Triple, error) {
	next := base.Semver()
	var err error
	switch intent {
	case BumpMajor:
		err = next.IncrementMajor()
	case BumpMinor:
		err = next.IncrementMinor()
	default:
		err = next.IncrementPatch()
	}
	if err != nil {
		return libversion.Triple{}, fmt.Errorf("applying %s bump to %s: %w", intent, base, err)
	}
	return libversion.FromSemver(next), nil
}

func weight(b Bump) int {
	switch b {
	case BumpMajor:
		return 3
	case BumpMinor:
		return 2
	case BumpRevision:
		return 1
	default:
		return 0
	}
}
