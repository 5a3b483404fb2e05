// Package config holds the user settings of a language server session.
//
// A Config is an immutable value. Updates produce a new value through
// UpdateByMap; the caller decides when to commit it.
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Export modes.
const (
	ExportNever              = "never"
	ExportOnSave             = "onSave"
	ExportOnType             = "onType"
	ExportOnDocumentHasTitle = "onDocumentHasTitle"
)

// Semantic token modes.
const (
	SemanticTokensEnable  = "enable"
	SemanticTokensDisable = "disable"
)

// Formatter modes.
const (
	FormatterDisable  = "disable"
	FormatterTypstyle = "typstyle"
	FormatterTypstfmt = "typstfmt"
)

// Project resolution modes.
const (
	ResolutionSingleFile   = "singleFile"
	ResolutionLockDatabase = "lockDatabase"
)

// Config is a snapshot of the "tinymist" settings section.
type Config struct {
	OutputPath          string   `mapstructure:"outputPath"`
	ExportPDF           string   `mapstructure:"exportPdf"`
	RootPath            string   `mapstructure:"rootPath"`
	SemanticTokens      string   `mapstructure:"semanticTokens"`
	FormatterMode       string   `mapstructure:"formatterMode"`
	FormatterPrintWidth int      `mapstructure:"formatterPrintWidth"`
	FontPaths           []string `mapstructure:"fontPaths"`
	SystemFonts         bool     `mapstructure:"systemFonts"`
	TypstExtraArgs      []string `mapstructure:"typstExtraArgs"`
	CompileStatus       string   `mapstructure:"compileStatus"`
	ProjectResolution   string   `mapstructure:"projectResolution"`

	extra ExtraArgs
	// raw holds every setting received so far, keyed in lower case.
	raw map[string]any
}

var defaults = map[string]any{
	"outputPath":          "",
	"exportPdf":           ExportNever,
	"rootPath":            "",
	"semanticTokens":      SemanticTokensEnable,
	"formatterMode":       FormatterDisable,
	"formatterPrintWidth": 120,
	"fontPaths":           []string{},
	"systemFonts":         true,
	"typstExtraArgs":      []string{},
	"compileStatus":       "disable",
	"projectResolution":   ResolutionSingleFile,
}

// Default returns the configuration used before the client sends settings.
func Default() Config {
	cfg, err := Config{}.UpdateByMap(nil)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// UpdateByMap merges values into a copy of c. A nil value resets the
// setting to its default. c is never modified; on error the returned Config
// is the zero value.
func (c Config) UpdateByMap(values map[string]any) (Config, error) {
	raw := make(map[string]any, len(c.raw)+len(values))
	maps.Copy(raw, c.raw)
	for key, value := range values {
		key = strings.ToLower(key)
		if value == nil {
			delete(raw, key)
			continue
		}
		raw[key] = value
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := v.MergeConfigMap(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	var next Config
	if err := v.Unmarshal(&next); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := next.validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	extra, err := ParseExtraArgs(next.TypstExtraArgs)
	if err != nil {
		return Config{}, fmt.Errorf("%w: typstExtraArgs: %w", ErrInvalidConfiguration, err)
	}
	next.extra = extra
	next.raw = raw
	return next, nil
}

func (c Config) validate() error {
	checks := []struct {
		key   string
		value string
		allow []string
	}{
		{"exportPdf", c.ExportPDF, []string{ExportNever, ExportOnSave, ExportOnType, ExportOnDocumentHasTitle}},
		{"semanticTokens", c.SemanticTokens, []string{SemanticTokensEnable, SemanticTokensDisable}},
		{"formatterMode", c.FormatterMode, []string{FormatterDisable, FormatterTypstyle, FormatterTypstfmt}},
		{"compileStatus", c.CompileStatus, []string{"enable", "disable"}},
		{"projectResolution", c.ProjectResolution, []string{ResolutionSingleFile, ResolutionLockDatabase}},
	}
	for _, check := range checks {
		if !slices.Contains(check.allow, check.value) {
			return fmt.Errorf("%s: unknown value %q, expected one of %s", check.key, check.value, strings.Join(check.allow, ", "))
		}
	}

	if c.FormatterPrintWidth <= 0 {
		return fmt.Errorf("formatterPrintWidth: must be positive, got %d", c.FormatterPrintWidth)
	}
	if c.RootPath != "" && !filepath.IsAbs(c.RootPath) {
		return fmt.Errorf("rootPath: %q is not absolute", c.RootPath)
	}
	return nil
}

// Extra returns the parsed typstExtraArgs.
func (c Config) Extra() ExtraArgs {
	return c.extra.clone()
}

// Root returns the configured project root, or "".
func (c Config) Root() string {
	if c.RootPath != "" {
		return filepath.Clean(c.RootPath)
	}
	return c.extra.Root
}

// DefaultEntry returns the entry file named in typstExtraArgs, or "".
func (c Config) DefaultEntry() string {
	return c.extra.Entry
}

// HasDefaultEntryPath reports whether the settings name an entry file.
func (c Config) HasDefaultEntryPath() bool {
	return c.extra.Entry != ""
}

func (c Config) LockDatabaseEnabled() bool {
	return c.ProjectResolution == ResolutionLockDatabase
}

// HTMLEnabled reports whether the html feature was requested.
func (c Config) HTMLEnabled() bool {
	return slices.Contains(c.extra.Features, "html")
}

// SemanticTokensEnabled reports whether semantic tokens are served.
func (c Config) SemanticTokensEnabled() bool {
	return c.SemanticTokens != SemanticTokensDisable
}
