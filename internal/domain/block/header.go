package block

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrNoPrefix indicates a header could not be read because no macro prefix was given.
var ErrNoPrefix = errors.New("block: macro prefix is empty")

// ParseHeader reads a C header holding <PREFIX>_VERSION defines. Comments,
// pragmas and unrelated defines are skipped. The returned block carries name
// as its library name; it is not verified.
func ParseHeader(r io.Reader, name, prefix string) (Block, error) {
	if strings.TrimSpace(prefix) == "" {
		return Block{}, ErrNoPrefix
	}
	names := namesFor(prefix)

	wanted := make(map[string]bool, 5)
	for _, key := range names.all() {
		wanted[key] = true
	}

	defines := make(map[string]string, 5)
	scanner := bufio.NewScanner(r)
	line := 0
	inComment := false
	for scanner.Scan() {
		line++
		var def define
		var ok bool
		def, inComment, ok = parseDefine(scanner.Text(), inComment)
		if !ok || !wanted[def.key] {
			continue
		}
		if _, dup := defines[def.key]; dup {
			return Block{}, fmt.Errorf("line %d: %s defined twice", line, def.key)
		}
		defines[def.key] = def.value
	}
	if err := scanner.Err(); err != nil {
		return Block{}, fmt.Errorf("reading header: %w", err)
	}

	var merr error
	for _, key := range names.all() {
		if _, ok := defines[key]; !ok {
			merr = multierror.Append(merr, fmt.Errorf("missing #define %s", key))
		}
	}
	if merr != nil {
		return Block{}, merr
	}

	b := Block{Name: name, Macro: defines[names.macro]}

	version, err := unquote(defines[names.version])
	if err != nil {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", names.version, err))
	}
	b.Version = version

	for _, field := range []struct {
		key string
		dst *uint64
	}{
		{names.major, &b.Major},
		{names.minor, &b.Minor},
		{names.revision, &b.Revision},
	} {
		n, err := strconv.ParseUint(defines[field.key], 10, 64)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: invalid integer %q", field.key, defines[field.key]))
			continue
		}
		*field.dst = n
	}

	if merr != nil {
		return Block{}, merr
	}
	return b, nil
}

// define is one object-like macro. start and end locate the value in the
// original line.
type define struct {
	key   string
	value string
	start int
	end   int
}

// parseDefine recognises "#define KEY VALUE" on a single line. Comments are
// blanked before parsing; inComment carries an open /* */ across lines.
func parseDefine(raw string, inComment bool) (define, bool, bool) {
	masked, inComment := maskComments(raw, inComment)

	i := skipBlank(masked, 0)
	if i >= len(masked) || masked[i] != '#' {
		return define{}, inComment, false
	}
	i = skipBlank(masked, i+1)
	if !strings.HasPrefix(masked[i:], "define") {
		return define{}, inComment, false
	}
	i += len("define")
	if i >= len(masked) || !isBlank(masked[i]) {
		return define{}, inComment, false
	}
	i = skipBlank(masked, i)

	keyStart := i
	for i < len(masked) && !isBlank(masked[i]) {
		i++
	}
	key := masked[keyStart:i]

	start := skipBlank(masked, i)
	end := len(masked)
	for end > start && isBlank(masked[end-1]) {
		end--
	}
	if key == "" || start >= end {
		return define{}, inComment, false
	}

	return define{
		key:   key,
		value: strings.Join(strings.Fields(masked[start:end]), " "),
		start: start,
		end:   end,
	}, inComment, true
}

// maskComments replaces comment text with spaces, keeping offsets intact.
// Comment markers inside string literals are left alone.
func maskComments(line string, inComment bool) (string, bool) {
	out := []byte(line)
	inString := false
	for i := 0; i < len(out); i++ {
		switch {
		case inComment:
			if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				inComment = false
				continue
			}
			out[i] = ' '
		case inString:
			if out[i] == '\\' {
				i++
				continue
			}
			if out[i] == '"' {
				inString = false
			}
		case out[i] == '"':
			inString = true
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '/':
			for j := i; j < len(out); j++ {
				out[j] = ' '
			}
			return string(out), false
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i++
			inComment = true
		}
	}
	return string(out), inComment
}

func skipBlank(s string, i int) int {
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	return i
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func unquote(value string) (string, error) {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", fmt.Errorf("expected a quoted string, got %s", value)
	}
	return strconv.Unquote(value)
}

// RewriteHeader replaces the values of the five version defines in src with
// those of b. Only the value token changes; indentation, trailing comments,
// line endings and every other line are kept. Each define must appear
// exactly once.
func RewriteHeader(src []byte, prefix string, b Block) ([]byte, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, ErrNoPrefix
	}
	names := namesFor(prefix)
	values := map[string]string{
		names.version:  strconv.Quote(b.Version),
		names.major:    strconv.FormatUint(b.Major, 10),
		names.minor:    strconv.FormatUint(b.Minor, 10),
		names.revision: strconv.FormatUint(b.Revision, 10),
		names.macro:    b.Macro,
	}

	lines := strings.SplitAfter(string(src), "\n")
	seen := make(map[string]bool, len(values))
	inComment := false
	for i, raw := range lines {
		var def define
		var ok bool
		def, inComment, ok = parseDefine(raw, inComment)
		if !ok {
			continue
		}
		value, wanted := values[def.key]
		if !wanted {
			continue
		}
		if seen[def.key] {
			return nil, fmt.Errorf("%s defined twice", def.key)
		}
		seen[def.key] = true

		lines[i] = raw[:def.start] + value + raw[def.end:]
	}

	var merr error
	for _, key := range names.all() {
		if !seen[key] {
			merr = multierror.Append(merr, fmt.Errorf("missing #define %s", key))
		}
	}
	if merr != nil {
		return nil, merr
	}

	return []byte(strings.Join(lines, "")), nil
}
