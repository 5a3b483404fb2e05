// Package compile mirrors the state the compile subsystem receives from the
// language server: the in-memory files and the task of the primary
// compilation.
package compile

import (
	"bytes"
	"maps"
	"slices"
	"sync"

	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/project"

	"github.com/tliron/commonlog"
)

// FontLoader supplies the fonts of a compilation.
type FontLoader interface {
	Fonts() []string
}

// Session implements project.Compiler.
type Session struct {
	mu       sync.Mutex
	files    map[string][]byte
	entry    *project.Entry
	restarts int

	fonts   FontLoader
	metrics *metrics.Metrics
	wg      sync.WaitGroup
	log     commonlog.Logger
}

var _ project.Compiler = (*Session)(nil)

// NewSession creates a session. fonts and m may be nil.
func NewSession(fonts FontLoader, m *metrics.Metrics) *Session {
	return &Session{
		files:   make(map[string][]byte),
		fonts:   fonts,
		metrics: m,
		log:     commonlog.GetLogger("tinymist.compile"),
	}
}

func (s *Session) PrimaryID() project.TaskID {
	return project.PrimaryTask
}

func (s *Session) Interrupt(intr project.Interrupt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch intr := intr.(type) {
	case project.MemoryInterrupt:
		for _, insert := range intr.Changes.Inserts() {
			s.files[insert.Path] = insert.Content
			s.log.Debugf("memory: %s (%d bytes, %d edits)", insert.Path, len(insert.Content), len(insert.Edits))
		}
		for _, path := range intr.Changes.Removes() {
			delete(s.files, path)
			s.log.Debugf("memory: removed %s", path)
		}
	case project.ChangeTaskInterrupt:
		if intr.ID != s.PrimaryID() {
			s.log.Warningf("ignoring change of unknown task %s", intr.ID)
			return
		}
		if intr.Inputs.Entry == nil {
			return
		}
		entry := *intr.Inputs.Entry
		s.entry = &entry
		if entry.IsDetached() {
			s.log.Infof("primary task detached, nothing is compiled in %s", entry.Root)
			return
		}
		s.log.Infof("primary task now compiles %s in %s", entry.Main, entry.Root)
	default:
		s.log.Warningf("unknown interrupt %s", intr.Kind())
	}
}

// RestartPrimary rebuilds the primary compilation. Fonts are reloaded in the
// background.
func (s *Session) RestartPrimary() error {
	s.mu.Lock()
	s.restarts++
	s.mu.Unlock()

	s.metrics.RecordRestart()
	s.log.Info("restarting primary compilation")

	if s.fonts != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.log.Infof("primary compilation sees %d fonts", len(s.fonts.Fonts()))
		}()
	}
	return nil
}

// Wait blocks until background work started by RestartPrimary is done.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Entry returns the entry of the primary task, if any.
func (s *Session) Entry() (project.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return project.Entry{}, false
	}
	return *s.entry, true
}

// File returns the in-memory content of path.
func (s *Session) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	return bytes.Clone(content), ok
}

// Files lists the in-memory paths in lexical order.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.files))
}

func (s *Session) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}
