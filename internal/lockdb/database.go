package lockdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
)

// Database reads lock directories from disk. Nothing is cached: every lookup
// sees the current files.
type Database struct {
	log commonlog.Logger
}

func NewDatabase() *Database {
	return &Database{log: commonlog.GetLogger("tinymist.lockdb")}
}

// Load reads the lock held in dir. The SQLite index is preferred over the
// TOML file when both exist and the index carries a schema.
func (d *Database) Load(dir string) (*LockFile, error) {
	lock, err := ReadSQLite(filepath.Join(dir, LockIndexName))
	if err == nil {
		return lock, nil
	}
	if errors.Is(err, ErrNoIndex) {
		d.log.Debugf("ignoring %s: %v", LockIndexName, err)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	lock, err = ReadTOML(filepath.Join(dir, LockFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no lock in %s", ErrResolutionUnavailable, dir)
	}
	return lock, err
}

// Locate returns the lock holding the project named by res.
func (d *Database) Locate(res ProjectResolution) (*LockFile, error) {
	return d.Load(res.LockDir)
}

// Resolve finds the nearest lock directory above path and the project in it
// that owns path.
func (d *Database) Resolve(path string) (ProjectResolution, error) {
	if !filepath.IsAbs(path) {
		return ProjectResolution{}, fmt.Errorf("%w: %q is not absolute", ErrResolutionUnavailable, path)
	}

	dir, ok := findLockDir(filepath.Dir(path))
	if !ok {
		return ProjectResolution{}, fmt.Errorf("%w: no lock above %s", ErrResolutionUnavailable, path)
	}

	lock, err := d.Load(dir)
	if err != nil {
		return ProjectResolution{}, err
	}

	resource, ok := FromAbsPath(path, dir)
	if !ok {
		return ProjectResolution{}, fmt.Errorf("%w: %s is outside %s", ErrResolutionUnavailable, path, dir)
	}
	id, ok := lock.ProjectFor(resource)
	if !ok {
		return ProjectResolution{}, fmt.Errorf("%w: %s is not part of any project in %s", ErrResolutionUnavailable, resource, dir)
	}

	d.log.Debugf("%s belongs to project %s in %s", path, id, dir)
	return ProjectResolution{LockDir: dir, ProjectID: id}, nil
}

func findLockDir(dir string) (string, bool) {
	for {
		for _, name := range []string{LockIndexName, LockFileName} {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
