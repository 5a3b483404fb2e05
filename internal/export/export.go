// Package export keeps the settings the export of compiled documents
// follows.
package export

import (
	"sync"

	"github.com/hongjr03/tinymist/internal/config"

	"github.com/tliron/commonlog"
)

// Subsystem holds the current export settings.
type Subsystem struct {
	mu  sync.RWMutex
	cfg config.ExportConfig
	log commonlog.Logger
}

func New(cfg config.ExportConfig) *Subsystem {
	return &Subsystem{cfg: cfg, log: commonlog.GetLogger("tinymist.export")}
}

// ChangeConfig replaces the export settings.
func (s *Subsystem) ChangeConfig(cfg config.ExportConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	s.log.Infof("export settings changed: mode=%s output=%q html=%t", cfg.Mode, cfg.OutputPath, cfg.HTML)
}

func (s *Subsystem) Config() config.ExportConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// OnSave is called when the client saved path. It reports whether the
// settings ask for an export of the primary document.
func (s *Subsystem) OnSave(path string) bool {
	cfg := s.Config()
	if cfg.Mode != config.ExportOnSave && cfg.Mode != config.ExportOnType {
		return false
	}
	s.log.Infof("export requested by saving %s (output %q)", path, cfg.OutputPath)
	return true
}
