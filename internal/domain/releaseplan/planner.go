package releaseplan

import (
	"errors"
	"fmt"
	"strings"

	semver "github.com/blang/semver/v4"

	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/internal/domain/bump"
	"github.com/launchbynttdata/libversion/pkg/libversion"
)

var (
	// ErrAlreadyTagged indicates the block's version already has a release tag.
	ErrAlreadyTagged = errors.New("releaseplan: version already tagged")
	// ErrNotNewer indicates the block's version is not above the latest release.
	ErrNotNewer = errors.New("releaseplan: version is not newer than the latest release")
)

// BaseSource describes where the base version originated.
type BaseSource string

const (
	// BaseSourceExisting indicates the base came from the highest existing release.
	BaseSourceExisting BaseSource = "existing-release"
	// BaseSourceConfigured indicates the base used the provided base-version input.
	BaseSourceConfigured BaseSource = "configured-base"
	// BaseSourceZero indicates the planner fell back to 0.0.0.
	BaseSourceZero BaseSource = "default-zero"
)

// Tag represents a Git tag reference.
type Tag struct {
	Name     string
	ObjectID string
}

// Planner computes release plans for a library from the set of existing tags.
type Planner struct {
	name      string
	tagPrefix string
}

// NewPlanner creates a Planner for the named library. The prefix (trimmed) is
// prepended to tag names.
func NewPlanner(name, prefix string) Planner {
	return Planner{name: strings.TrimSpace(name), tagPrefix: strings.TrimSpace(prefix)}
}

// Result captures the outcome of planning a release.
type Result struct {
	TagName     string
	Block       block.Block
	ReleaseBase libversion.Triple
	BaseSource  BaseSource
	Latest      *Tag
}

// PlanRelease determines the next release using the bump intent.
func (p Planner) PlanRelease(tags []Tag, intent bump.Bump, baseOverride string) (Result, error) {
	releases := collectReleases(tags)

	base, source, err := chooseBaseRelease(releases, baseOverride)
	if err != nil {
		return Result{}, err
	}

	next, err := bump.Apply(base, intent)
	if err != nil {
		return Result{}, fmt.Errorf("computing release bump: %w", err)
	}

	return Result{
		TagName:     p.formatTagName(next),
		Block:       block.FromTriple(p.name, next),
		ReleaseBase: base,
		BaseSource:  source,
		Latest:      latest(releases),
	}, nil
}

// CheckPublishable verifies that b can be released: its version must not be
// tagged yet and must be above every existing release.
func (p Planner) CheckPublishable(tags []Tag, b block.Block) (Result, error) {
	target := b.Triple()
	releases := collectReleases(tags)

	result := Result{
		TagName:     p.formatTagName(target),
		Block:       b,
		ReleaseBase: target,
		BaseSource:  BaseSourceConfigured,
		Latest:      latest(releases),
	}

	for _, release := range releases {
		switch release.version.Compare(target) {
		case 0:
			return result, fmt.Errorf("%w: %s (%s)", ErrAlreadyTagged, target, release.tag.Name)
		case 1:
			return result, fmt.Errorf("%w: %s < %s (%s)", ErrNotNewer, target, release.version, release.tag.Name)
		}
	}

	return result, nil
}

type release struct {
	tag     Tag
	version libversion.Triple
}

func collectReleases(tags []Tag) []release {
	var out []release
	for _, tag := range tags {
		version, ok := parseSemverTag(tag.Name)
		if !ok || len(version.Pre) > 0 {
			continue
		}
		out = append(out, release{tag: tag, version: libversion.FromSemver(version)})
	}
	return out
}

func latest(releases []release) *Tag {
	if len(releases) == 0 {
		return nil
	}
	highest := releases[0]
	for _, candidate := range releases[1:] {
		if candidate.version.Compare(highest.version) > 0 {
			highest = candidate
		}
	}
	tag := highest.tag
	return &tag
}

func parseSemverTag(name string) (semver.Version, bool) {
	normalized := strings.TrimSpace(name)
	normalized = strings.TrimPrefix(normalized, "refs/tags/")
	if normalized == "" {
		return semver.Version{}, false
	}

	if version, err := semver.Parse(normalized); err == nil {
		return version, true
	}

	if len(normalized) > 1 && (normalized[0] == 'v' || normalized[0] == 'V') {
		if version, err := semver.Parse(normalized[1:]); err == nil {
			return version, true
		}
	}

	return semver.Version{}, false
}

func chooseBaseRelease(releases []release, baseOverride string) (libversion.Triple, BaseSource, error) {
	if len(releases) > 0 {
		highest := releases[0].version
		for _, candidate := range releases[1:] {
			if candidate.version.Compare(highest) > 0 {
				highest = candidate.version
			}
		}
		return highest, BaseSourceExisting, nil
	}

	if strings.TrimSpace(baseOverride) != "" {
		version, err := libversion.Parse(baseOverride)
		if err != nil {
			return libversion.Triple{}, "", fmt.Errorf("invalid base version: %w", err)
		}
		return version, BaseSourceConfigured, nil
	}

	return libversion.Triple{}, BaseSourceZero, nil
}

func (p Planner) formatTagName(version libversion.Triple) string {
	return p.tagPrefix + version.String()
}
