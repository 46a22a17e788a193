package block

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"

	"github.com/launchbynttdata/libversion/pkg/libversion"
)

// ErrEmptyName indicates a block without a library name.
var ErrEmptyName = errors.New("block: library name is empty")

// Block is the data form of a version metadata block. Unlike the constants in
// pkg/libversion, a Block may come from an arbitrary header and may be
// inconsistent until Verify says otherwise.
type Block struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version" yaml:"version"`
	Major    uint64 `json:"major" yaml:"major"`
	Minor    uint64 `json:"minor" yaml:"minor"`
	Revision uint64 `json:"revision" yaml:"revision"`
	Macro    string `json:"macro" yaml:"macro"`
}

// Current returns the compiled-in metadata.
func Current() Block {
	return Block{
		Name:     libversion.Name,
		Version:  libversion.Version,
		Major:    libversion.Major,
		Minor:    libversion.Minor,
		Revision: libversion.Revision,
		Macro:    libversion.Macro,
	}
}

// FromTriple builds a consistent block for the release.
func FromTriple(name string, t libversion.Triple) Block {
	return Block{
		Name:     name,
		Version:  t.String(),
		Major:    t.Major,
		Minor:    t.Minor,
		Revision: t.Revision,
		Macro:    t.Tag(),
	}
}

// Triple returns the numeric components.
func (b Block) Triple() libversion.Triple {
	return libversion.Triple{Major: b.Major, Minor: b.Minor, Revision: b.Revision}
}

// Verify reports every inconsistency between the representations.
func (b Block) Verify() error {
	var merr error
	if strings.TrimSpace(b.Name) == "" {
		merr = multierror.Append(merr, ErrEmptyName)
	}
	if err := libversion.Check(b.Version, b.Macro, b.Triple()); err != nil {
		var inner *multierror.Error
		if errors.As(err, &inner) {
			merr = multierror.Append(merr, inner.Errors...)
		} else {
			merr = multierror.Append(merr, err)
		}
	}
	return merr
}

// Banner returns "<name> <version>".
func (b Block) Banner() string {
	return b.Name + " " + b.Version
}

// DefaultPrefix derives the macro prefix from the library name by keeping
// letters and digits and upper-casing them (ArduinoJson -> ARDUINOJSON).
func DefaultPrefix(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// macroNames lists the defines of a header for prefix.
type macroNames struct {
	version  string
	major    string
	minor    string
	revision string
	macro    string
}

func namesFor(prefix string) macroNames {
	base := strings.TrimSuffix(strings.TrimSpace(prefix), "_") + "_VERSION"
	return macroNames{
		version:  base,
		major:    base + "_MAJOR",
		minor:    base + "_MINOR",
		revision: base + "_REVISION",
		macro:    base + "_MACRO",
	}
}

func (n macroNames) all() []string {
	return []string{n.version, n.major, n.minor, n.revision, n.macro}
}

func (b Block) String() string {
	return fmt.Sprintf("%s %s (%d.%d.%d, %s)", b.Name, b.Version, b.Major, b.Minor, b.Revision, b.Macro)
}
