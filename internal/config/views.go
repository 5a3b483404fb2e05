package config

import (
	"maps"
	"reflect"
	"slices"
)

// ExportConfig is the part of the settings the export subsystem reads.
type ExportConfig struct {
	OutputPath string
	Mode       string
	HTML       bool
}

// Export returns the export view of c.
func (c Config) Export() ExportConfig {
	return ExportConfig{
		OutputPath: c.OutputPath,
		Mode:       c.ExportPDF,
		HTML:       c.HTMLEnabled(),
	}
}

// PrimaryOpts are the settings the primary compilation is built from. A
// change requires restarting it.
type PrimaryOpts struct {
	Root        string
	Entry       string
	FontPaths   []string
	SystemFonts bool
	Inputs      map[string]string
	Features    []string
}

// PrimaryOpts returns the compile view of c. Font paths from fontPaths come
// before those given with --font-path.
func (c Config) PrimaryOpts() PrimaryOpts {
	fonts := slices.Concat(c.FontPaths, c.extra.FontPaths)
	if fonts == nil {
		fonts = []string{}
	}
	return PrimaryOpts{
		Root:        c.Root(),
		Entry:       c.extra.Entry,
		FontPaths:   fonts,
		SystemFonts: c.SystemFonts && !c.extra.IgnoreSystemFonts,
		Inputs:      maps.Clone(c.extra.Inputs),
		Features:    slices.Clone(c.extra.Features),
	}
}

func (o PrimaryOpts) Equal(other PrimaryOpts) bool {
	return reflect.DeepEqual(o, other)
}

// FormatterConfig is the part of the settings the formatter reads.
type FormatterConfig struct {
	Mode       string
	PrintWidth int
}

func (c Config) Formatter() FormatterConfig {
	return FormatterConfig{Mode: c.FormatterMode, PrintWidth: c.FormatterPrintWidth}
}

// Enabled reports whether formatting is offered at all.
func (f FormatterConfig) Enabled() bool {
	return f.Mode != FormatterDisable
}
