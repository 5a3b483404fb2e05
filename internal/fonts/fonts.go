// Package fonts discovers the font files available to a compilation. The
// search runs lazily on first use and again after every invalidation.
package fonts

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/tliron/commonlog"
)

// Cache remembers the font files found in a set of directories.
type Cache struct {
	mu         sync.Mutex
	dirs       []string
	system     bool
	fonts      []string
	loaded     bool
	systemDirs func() []string
	log        commonlog.Logger
}

func NewCache() *Cache {
	return &Cache{
		system:     true,
		systemDirs: SystemDirs,
		log:        commonlog.GetLogger("tinymist.fonts"),
	}
}

// Invalidate replaces the search configuration and drops the discovered
// fonts.
func (c *Cache) Invalidate(dirs []string, system bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dirs = slices.Clone(dirs)
	c.system = system
	c.fonts = nil
	c.loaded = false
	c.log.Info("font cache invalidated")
}

// Loaded reports whether the fonts have been discovered since the last
// invalidation.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Fonts returns the font files, discovering them if needed. The result is
// sorted and free of duplicates.
func (c *Cache) Fonts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.fonts = c.discover()
		c.loaded = true
		c.log.Infof("discovered %d fonts", len(c.fonts))
	}
	return slices.Clone(c.fonts)
}

func (c *Cache) discover() []string {
	dirs := slices.Clone(c.dirs)
	if c.system {
		dirs = append(dirs, c.systemDirs()...)
	}

	var mu sync.Mutex
	var found []string
	for _, dir := range dirs {
		scan(dir, c.log, func(path string) {
			mu.Lock()
			found = append(found, path)
			mu.Unlock()
		})
	}
	slices.Sort(found)
	return slices.Compact(found)
}

// SystemDirs lists the platform font directories.
func SystemDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		dirs := []string{"/Library/Fonts", "/System/Library/Fonts", "/Network/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	case "windows":
		dirs := []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
