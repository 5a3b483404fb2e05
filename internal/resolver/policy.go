// Package resolver turns file paths into compilation entries, consulting the
// project lock database when it is enabled.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/uri"
)

// EntryPolicy decides the root and main file of a compilation.
type EntryPolicy interface {
	// Resolve returns the entry for compiling path. An empty path yields a
	// detached entry.
	Resolve(path string) project.Entry
	ResolveWithRoot(root, main string) project.Entry
	// ResolveDefault returns the configured default entry file, or "".
	ResolveDefault() string
}

// Policy is the entry policy derived from the current configuration.
type Policy struct {
	// Root is the explicitly configured project root.
	Root string
	// Roots are the workspace folders reported by the client.
	Roots []string
	// Entry is the configured default entry, possibly relative to the root.
	Entry string
}

func (p Policy) Resolve(path string) project.Entry {
	if path == "" {
		return project.Entry{Root: p.fallbackRoot()}
	}
	return project.Entry{Root: p.rootFor(path), Main: filepath.Clean(path)}
}

func (p Policy) ResolveWithRoot(root, main string) project.Entry {
	if root == "" {
		return p.Resolve(main)
	}
	root = filepath.Clean(root)
	if main == "" {
		return project.Entry{Root: root}
	}
	return project.Entry{Root: root, Main: filepath.Clean(main)}
}

func (p Policy) ResolveDefault() string {
	if p.Entry == "" {
		return ""
	}
	if filepath.IsAbs(p.Entry) {
		return filepath.Clean(p.Entry)
	}
	root := p.fallbackRoot()
	if root == "" {
		return ""
	}
	return filepath.Join(root, p.Entry)
}

// rootFor picks the explicit root, else the innermost workspace folder that
// contains path, else the directory of path.
func (p Policy) rootFor(path string) string {
	if p.Root != "" {
		return filepath.Clean(p.Root)
	}

	best := ""
	for _, root := range p.Roots {
		root = filepath.Clean(root)
		if contains(root, path) && len(root) > len(best) {
			best = root
		}
	}
	if best != "" {
		return best
	}

	if uri.IsUntitled(path) {
		if root := p.fallbackRoot(); root != "" {
			return root
		}
		return uri.UntitledRoot
	}
	return filepath.Dir(path)
}

func (p Policy) fallbackRoot() string {
	if p.Root != "" {
		return filepath.Clean(p.Root)
	}
	if len(p.Roots) > 0 {
		return filepath.Clean(p.Roots[0])
	}
	return ""
}

func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
