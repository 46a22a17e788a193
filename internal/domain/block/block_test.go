package block_test

import (
	"bytes"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/pkg/libversion"
)

const arduinoHeader = `// ArduinoJson - https://arduinojson.org
// Copyright © 2014-2024, Benoit BLANCHON
// MIT License

#pragma once

#define ARDUINOJSON_VERSION "7.2.1"
#define ARDUINOJSON_VERSION_MAJOR 7
#define ARDUINOJSON_VERSION_MINOR 2
#define ARDUINOJSON_VERSION_REVISION 1
#define ARDUINOJSON_VERSION_MACRO V721
`

func TestCurrentMatchesConstants(t *testing.T) {
	t.Parallel()

	current := block.Current()
	require.NoError(t, current.Verify())
	require.Equal(t, block.FromTriple(libversion.Name, libversion.Current()), current)
	require.Equal(t, "ArduinoJson 7.2.1", current.Banner())
}

func TestDefaultPrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ARDUINOJSON", block.DefaultPrefix("ArduinoJson"))
	require.Equal(t, "MYLIB2", block.DefaultPrefix("my-lib 2"))
	require.Empty(t, block.DefaultPrefix("--"))
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	got, err := block.ParseHeader(strings.NewReader(arduinoHeader), "ArduinoJson", "ARDUINOJSON")
	require.NoError(t, err)
	require.Equal(t, block.Current(), got)
	require.NoError(t, got.Verify())
}

func TestParseHeaderIgnoresUnrelatedDefines(t *testing.T) {
	t.Parallel()

	src := `#pragma once
#define OTHER_VERSION "1.0.0"
#  define LIB_VERSION "2.10.0" // trailing comment
#define LIB_VERSION_MAJOR 2
#define LIB_VERSION_MINOR 10
#define LIB_VERSION_REVISION 0
#define LIB_VERSION_MACRO V2_10_0
`
	got, err := block.ParseHeader(strings.NewReader(src), "Lib", "LIB_")
	require.NoError(t, err)
	require.Equal(t, "2.10.0", got.Version)
	require.Equal(t, uint64(10), got.Minor)
	require.NoError(t, got.Verify())
}

func TestParseHeaderReportsAllMissingDefines(t *testing.T) {
	t.Parallel()

	src := `#define LIB_VERSION "1.2.3"
#define LIB_VERSION_MAJOR 1
`
	_, err := block.ParseHeader(strings.NewReader(src), "Lib", "LIB")
	require.Error(t, err)
	require.Contains(t, err.Error(), "LIB_VERSION_MINOR")
	require.Contains(t, err.Error(), "LIB_VERSION_REVISION")
	require.Contains(t, err.Error(), "LIB_VERSION_MACRO")
}

func TestParseHeaderRejectsMalformedValues(t *testing.T) {
	t.Parallel()

	src := `#define LIB_VERSION 1.2.3
#define LIB_VERSION_MAJOR one
#define LIB_VERSION_MINOR 2
#define LIB_VERSION_REVISION 3
#define LIB_VERSION_MACRO V123
`
	_, err := block.ParseHeader(strings.NewReader(src), "Lib", "LIB")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected a quoted string")
	require.Contains(t, err.Error(), "LIB_VERSION_MAJOR: invalid integer")

	_, err = block.ParseHeader(strings.NewReader(src), "Lib", " ")
	require.ErrorIs(t, err, block.ErrNoPrefix)
}

func TestParseHeaderRejectsDuplicates(t *testing.T) {
	t.Parallel()

	src := arduinoHeader + "#define ARDUINOJSON_VERSION_MAJOR 8\n"
	_, err := block.ParseHeader(strings.NewReader(src), "ArduinoJson", "ARDUINOJSON")
	require.ErrorContains(t, err, "defined twice")
}

func TestParseHeaderAllowsRepeatedUnrelatedDefines(t *testing.T) {
	t.Parallel()

	src := `#pragma once

#ifdef __AVR__
#define ARDUINOJSON_ENABLE_PROGMEM 1
#else
#define ARDUINOJSON_ENABLE_PROGMEM 0
#endif

` + strings.TrimPrefix(arduinoHeader, "// ArduinoJson - https://arduinojson.org\n")

	got, err := block.ParseHeader(strings.NewReader(src), "ArduinoJson", "ARDUINOJSON")
	require.NoError(t, err)
	require.Equal(t, block.Current(), got)
}

func TestParseHeaderStripsBlockComments(t *testing.T) {
	t.Parallel()

	src := `/* version
#define LIB_VERSION_MAJOR 9
*/
#defineLIB_VERSION_MINOR 9
#define LIB_VERSION /* current */ "1.2.3"
#define LIB_VERSION_MAJOR 1 /* major */
#define LIB_VERSION_MINOR 2
#define LIB_VERSION_REVISION 3 // revision
#define LIB_VERSION_MACRO V123 /* tag */ // end
`
	got, err := block.ParseHeader(strings.NewReader(src), "Lib", "LIB")
	require.NoError(t, err)
	require.Equal(t, block.FromTriple("Lib", libversion.Triple{Major: 1, Minor: 2, Revision: 3}), got)
}

func TestVerifyCollectsViolations(t *testing.T) {
	t.Parallel()

	b := block.Current()
	b.Name = ""
	b.Minor = 3

	err := b.Verify()
	require.Error(t, err)
	require.ErrorIs(t, err, block.ErrEmptyName)
	require.Contains(t, err.Error(), "does not match numeric triple 7.3.1")
	require.Contains(t, err.Error(), `want "V731"`)
}

func TestRenderHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	want := block.FromTriple("ArduinoJson", libversion.Triple{Major: 7, Minor: 2, Revision: 1})

	var buf bytes.Buffer
	err := block.RenderHeader(&buf, want, block.HeaderOptions{
		Banner: []string{"ArduinoJson - https://arduinojson.org", "Copyright © 2014-2024, Benoit BLANCHON", "MIT License"},
	})
	require.NoError(t, err)
	require.Equal(t, arduinoHeader, buf.String())

	got, err := block.ParseHeader(&buf, "ArduinoJson", "ARDUINOJSON")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRenderHeaderWithoutBanner(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := block.RenderHeader(&buf, block.FromTriple("Lib", libversion.Triple{Major: 1, Minor: 12, Revision: 0}), block.HeaderOptions{Prefix: "XLIB"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(buf.String(), "#pragma once\n\n#define XLIB_VERSION \"1.12.0\"\n"))
	require.Contains(t, buf.String(), "#define XLIB_VERSION_MACRO V1_12_0\n")
}

func TestRenderGo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, block.RenderGo(&buf, block.Current(), block.GoOptions{Package: "libversion"}))

	out := buf.String()
	require.Contains(t, out, "package libversion\n")
	require.Contains(t, out, "\tVersion  = \"7.2.1\"\n")
	require.Contains(t, out, "\tMacro    = \"V721\"\n")

	require.ErrorIs(t, block.RenderGo(&buf, block.Current(), block.GoOptions{}), block.ErrNoPackage)
}

func TestRenderGoQuotesMacro(t *testing.T) {
	t.Parallel()

	b := block.Current()
	b.Macro = `V7"2\1`

	var buf bytes.Buffer
	require.NoError(t, block.RenderGo(&buf, b, block.GoOptions{Package: "libversion"}))
	require.Contains(t, buf.String(), "\tMacro    = \"V7\\\"2\\\\1\"\n")

	_, err := parser.ParseFile(token.NewFileSet(), "libversion.go", buf.Bytes(), 0)
	require.NoError(t, err)
}

func TestRewriteHeaderKeepsSurroundingText(t *testing.T) {
	t.Parallel()

	next := block.FromTriple("ArduinoJson", libversion.Triple{Major: 7, Minor: 3, Revision: 0})

	out, err := block.RewriteHeader([]byte(arduinoHeader), "ARDUINOJSON", next)
	require.NoError(t, err)
	require.Equal(t, strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(arduinoHeader,
		`"7.2.1"`, `"7.3.0"`),
		"MINOR 2\n#define ARDUINOJSON_VERSION_REVISION 1", "MINOR 3\n#define ARDUINOJSON_VERSION_REVISION 0"),
		"V721", "V730"), string(out))

	got, err := block.ParseHeader(bytes.NewReader(out), "ArduinoJson", "ARDUINOJSON")
	require.NoError(t, err)
	require.Equal(t, next, got)
}

func TestRewriteHeaderRequiresAllDefines(t *testing.T) {
	t.Parallel()

	_, err := block.RewriteHeader([]byte("#pragma once\n#define LIB_VERSION \"1.0.0\"\n"), "LIB", block.Current())
	require.ErrorContains(t, err, "missing #define LIB_VERSION_MACRO")
}

func TestRewriteHeaderKeepsCommentsAndLineEndings(t *testing.T) {
	t.Parallel()

	src := "#pragma once\r\n" +
		"#define L_VERSION \"1.0.0\" // keep\r\n" +
		"#  define L_VERSION_MAJOR 1\r\n" +
		"\t#define L_VERSION_MINOR\t0 /* minor */\r\n" +
		"#define L_VERSION_REVISION 0\r\n" +
		"#define L_VERSION_MACRO V100"
	next := block.FromTriple("L", libversion.Triple{Major: 1, Minor: 10, Revision: 2})

	out, err := block.RewriteHeader([]byte(src), "L", next)
	require.NoError(t, err)
	require.Equal(t, "#pragma once\r\n"+
		"#define L_VERSION \"1.10.2\" // keep\r\n"+
		"#  define L_VERSION_MAJOR 1\r\n"+
		"\t#define L_VERSION_MINOR\t10 /* minor */\r\n"+
		"#define L_VERSION_REVISION 2\r\n"+
		"#define L_VERSION_MACRO V1_10_2", string(out))

	got, err := block.ParseHeader(bytes.NewReader(out), "L", "L")
	require.NoError(t, err)
	require.Equal(t, next, got)
}
