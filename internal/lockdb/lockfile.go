// Package lockdb reads the project lock files written next to a Typst project
// and routes documents to the project that owns them.
package lockdb

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	LockFileName  = "tinymist.lock"
	LockIndexName = "tinymist.lock.db"

	resourcePrefix = "file:"
)

var (
	// ErrResolutionUnavailable is returned when a path cannot be attributed to
	// a project. Callers fall back to plain entry resolution.
	ErrResolutionUnavailable = errors.New("project resolution unavailable")

	ErrMalformedLock = errors.New("malformed lock file")
)

// ProjectResolution locates the project record responsible for a file.
type ProjectResolution struct {
	LockDir   string
	ProjectID string
}

// DocumentRecord describes one project. Root and Main are resources relative
// to the lock directory, such as "file:chapters/intro.typ". Empty means
// unset.
type DocumentRecord struct {
	ID   string `toml:"id"`
	Root string `toml:"root,omitempty"`
	Main string `toml:"main,omitempty"`
}

// Route attributes an input file to a project. Among routes for the same
// input the highest priority wins.
type Route struct {
	Input    string `toml:"input"`
	Project  string `toml:"project"`
	Priority int    `toml:"priority"`
}

// LockFile is the decoded content of a lock directory.
type LockFile struct {
	Version   string           `toml:"version"`
	Documents []DocumentRecord `toml:"document"`
	Routes    []Route          `toml:"route"`
}

// Document returns the project record with the given id.
func (l *LockFile) Document(id string) (DocumentRecord, bool) {
	for _, doc := range l.Documents {
		if doc.ID == id {
			return doc, true
		}
	}
	return DocumentRecord{}, false
}

// ProjectFor returns the id of the project owning the resource. Routes take
// precedence over documents whose main file is the resource.
func (l *LockFile) ProjectFor(resource string) (string, bool) {
	best, found := Route{}, false
	for _, route := range l.Routes {
		if route.Input != resource {
			continue
		}
		if !found || route.Priority > best.Priority {
			best, found = route, true
		}
	}
	if found {
		return best.Project, true
	}

	for _, doc := range l.Documents {
		if doc.Main == resource {
			return doc.ID, true
		}
	}
	return "", false
}

func (l *LockFile) validate() error {
	seen := make(map[string]bool, len(l.Documents))
	for i, doc := range l.Documents {
		if doc.ID == "" {
			return fmt.Errorf("%w: document %d has no id", ErrMalformedLock, i)
		}
		if seen[doc.ID] {
			return fmt.Errorf("%w: duplicate document id %q", ErrMalformedLock, doc.ID)
		}
		seen[doc.ID] = true
	}
	for i, route := range l.Routes {
		if route.Input == "" || route.Project == "" {
			return fmt.Errorf("%w: route %d needs an input and a project", ErrMalformedLock, i)
		}
	}
	return nil
}

// ToAbsPath resolves a resource against base. "file:" alone names base
// itself. Resources with another scheme are not resolvable.
func ToAbsPath(resource, base string) (string, bool) {
	rel, ok := strings.CutPrefix(resource, resourcePrefix)
	if !ok {
		return "", false
	}
	if rel == "" {
		return filepath.Clean(base), true
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), true
	}
	return filepath.Join(base, filepath.FromSlash(rel)), true
}

// FromAbsPath is the inverse of ToAbsPath for paths inside base.
func FromAbsPath(path, base string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return resourcePrefix, true
	}
	return resourcePrefix + filepath.ToSlash(rel), true
}
