package block

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
)

// ErrNoPackage indicates Go rendering was requested without a package name.
var ErrNoPackage = errors.New("block: go package name is empty")

// HeaderOptions controls C header rendering.
type HeaderOptions struct {
	// Prefix defaults to DefaultPrefix(block.Name).
	Prefix string
	// Banner lines are emitted as // comments above the pragma.
	Banner []string
}

// GoOptions controls Go source rendering.
type GoOptions struct {
	Package string
}

var headerTemplate = template.Must(template.New("header").Parse(`{{range .Banner}}// {{.}}
{{end}}{{if .Banner}}
{{end}}#pragma once

#define {{.Names.version}} {{.Quoted}}
#define {{.Names.major}} {{.Block.Major}}
#define {{.Names.minor}} {{.Block.Minor}}
#define {{.Names.revision}} {{.Block.Revision}}
#define {{.Names.macro}} {{.Block.Macro}}
`))

var goTemplate = template.Must(template.New("go").Parse(`// Code generated by libver; DO NOT EDIT.

package {{.Package}}

const (
	Name     = {{.QuotedName}}
	Version  = {{.Quoted}}
	Major    = {{.Block.Major}}
	Minor    = {{.Block.Minor}}
	Revision = {{.Block.Revision}}
	Macro    = {{.QuotedMacro}}
)
`))

type renderData struct {
	Block       Block
	Names       map[string]string
	Quoted      string
	QuotedName  string
	QuotedMacro string
	Banner      []string
	Package     string
}

// RenderHeader writes b as a C header.
func RenderHeader(w io.Writer, b Block, opts HeaderOptions) error {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = DefaultPrefix(b.Name)
	}
	if prefix == "" {
		return ErrNoPrefix
	}
	names := namesFor(prefix)

	data := renderData{
		Block: b,
		Names: map[string]string{
			"version":  names.version,
			"major":    names.major,
			"minor":    names.minor,
			"revision": names.revision,
			"macro":    names.macro,
		},
		Quoted: strconv.Quote(b.Version),
		Banner: trimBanner(opts.Banner),
	}
	if err := headerTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}
	return nil
}

// RenderGo writes b as a Go const block.
func RenderGo(w io.Writer, b Block, opts GoOptions) error {
	pkg := strings.TrimSpace(opts.Package)
	if pkg == "" {
		return ErrNoPackage
	}
	data := renderData{
		Block:       b,
		Quoted:      strconv.Quote(b.Version),
		QuotedName:  strconv.Quote(b.Name),
		QuotedMacro: strconv.Quote(b.Macro),
		Package:     pkg,
	}
	if err := goTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering go source: %w", err)
	}
	return nil
}

func trimBanner(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
