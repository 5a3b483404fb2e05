package config

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// ExtraArgs are the typst CLI arguments given in typstExtraArgs.
type ExtraArgs struct {
	Root              string
	Entry             string
	Inputs            map[string]string
	FontPaths         []string
	IgnoreSystemFonts bool
	Features          []string
}

func (a ExtraArgs) clone() ExtraArgs {
	a.Inputs = maps.Clone(a.Inputs)
	a.FontPaths = slices.Clone(a.FontPaths)
	a.Features = slices.Clone(a.Features)
	return a
}

// flags of typst compile that have no bearing on the session but are
// accepted so that a command line can be pasted as is.
var ignoredStringFlags = []string{
	"package-path",
	"package-cache-path",
	"creation-timestamp",
	"cert",
	"diagnostic-format",
	"format",
	"pdf-standard",
	"pages",
	"make-deps",
	"open",
	"timings",
}

// subcommands may lead the arguments, as in "compile main.typ out.pdf".
var subcommands = []string{"compile", "c", "watch", "w"}

// ParseExtraArgs parses typst compile arguments. The first positional
// argument names the entry file.
func ParseExtraArgs(args []string) (ExtraArgs, error) {
	fs := pflag.NewFlagSet("typstExtraArgs", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	root := fs.String("root", "", "project root")
	inputs := fs.StringArray("input", nil, "key=value input")
	fontPaths := fs.StringArray("font-path", nil, "additional font directory")
	ignoreSystem := fs.Bool("ignore-system-fonts", false, "do not search system fonts")
	features := fs.StringSlice("features", nil, "experimental features")
	fs.Float64("ppi", 144, "")
	fs.IntP("jobs", "j", 0, "")
	for _, name := range ignoredStringFlags {
		fs.String(name, "", "")
	}

	if err := fs.Parse(args); err != nil {
		return ExtraArgs{}, err
	}

	extra := ExtraArgs{
		IgnoreSystemFonts: *ignoreSystem,
		FontPaths:         *fontPaths,
		Features:          *features,
	}
	if *root != "" {
		if !filepath.IsAbs(*root) {
			return ExtraArgs{}, fmt.Errorf("--root %q is not absolute", *root)
		}
		extra.Root = filepath.Clean(*root)
	}
	if len(*inputs) > 0 {
		extra.Inputs = make(map[string]string, len(*inputs))
		for _, input := range *inputs {
			key, value, ok := strings.Cut(input, "=")
			if !ok || key == "" {
				return ExtraArgs{}, fmt.Errorf("--input %q is not of the form key=value", input)
			}
			extra.Inputs[key] = value
		}
	}
	positional := fs.Args()
	if len(positional) > 0 && slices.Contains(subcommands, positional[0]) {
		positional = positional[1:]
	}
	if len(positional) > 0 {
		extra.Entry = positional[0]
	}
	return extra, nil
}
