// Package reconcile applies configuration updates and reacts to the parts of
// the configuration that changed.
package reconcile

import (
	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/pending"
	"github.com/hongjr03/tinymist/internal/utils"

	"github.com/tliron/commonlog"
)

type Exporter interface {
	ChangeConfig(config.ExportConfig)
}

type Restarter interface {
	RestartPrimary() error
}

type FontCache interface {
	Invalidate(dirs []string, system bool)
}

// Capabilities toggles dynamically registered server capabilities.
type Capabilities interface {
	EnableSemanticTokens(enable bool) error
	EnableFormatter(enable bool) error
}

type Formatter interface {
	ChangeConfig(config.FormatterConfig)
}

type Options struct {
	Exporter     Exporter
	Compiler     Restarter
	Fonts        FontCache
	Capabilities Capabilities
	Formatter    Formatter
	Pending      *pending.Table
	Metrics      *metrics.Metrics
}

// Reconciler owns the committed configuration. It is not safe for concurrent
// use; callers serialize access.
type Reconciler struct {
	opts Options
	cfg  config.Config
	log  commonlog.Logger
}

func New(initial config.Config, opts Options) *Reconciler {
	if opts.Pending == nil {
		opts.Pending = pending.NewTable()
	}
	return &Reconciler{
		opts: opts,
		cfg:  initial,
		log:  commonlog.GetLogger("tinymist.reconcile"),
	}
}

// Config returns the committed configuration.
func (r *Reconciler) Config() config.Config {
	return r.cfg
}

// Apply merges values into the configuration. On error nothing changes.
// Otherwise every subsystem whose view of the configuration changed is
// notified, in a fixed order, and the new configuration is committed.
func (r *Reconciler) Apply(values map[string]any) error {
	next, err := r.cfg.UpdateByMap(values)
	if err != nil {
		r.opts.Metrics.RecordConfigUpdate("rejected")
		return err
	}
	old := r.cfg

	if old.Export() != next.Export() {
		r.opts.Exporter.ChangeConfig(next.Export())
	}

	if opts := next.PrimaryOpts(); !old.PrimaryOpts().Equal(opts) {
		r.opts.Fonts.Invalidate(opts.FontPaths, opts.SystemFonts)
		utils.LogError(r.log, r.opts.Compiler.RestartPrimary(), "could not restart primary")
	}

	if old.SemanticTokens != next.SemanticTokens {
		err := r.opts.Capabilities.EnableSemanticTokens(next.SemanticTokensEnabled())
		utils.LogError(r.log, err, "could not change semantic tokens config")
	}

	if formatter := next.Formatter(); old.Formatter() != formatter {
		err := r.opts.Capabilities.EnableFormatter(formatter.Enabled())
		utils.LogError(r.log, err, "could not change formatter config")
		r.opts.Formatter.ChangeConfig(formatter)
	}

	r.cfg = next
	r.opts.Metrics.RecordConfigUpdate("applied")
	r.log.Infof("new settings applied")
	return nil
}
