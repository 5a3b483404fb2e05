// Package focus decides which document the primary compilation follows.
//
// A document can be pinned, focused by an explicit client command, or focused
// implicitly by editor activity. After the first explicit command activity no
// longer moves the primary task. After the first read-only activity (hover,
// folding ranges, semantic tokens) didOpen no longer moves it either.
package focus

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/uri"
	"github.com/hongjr03/tinymist/internal/utils"

	"github.com/tliron/commonlog"
)

var ErrInvalidEntryPath = errors.New("entry file must be absolute")

// Site is the kind of activity that triggered an implicit focus.
type Site int

const (
	SiteOpen Site = iota
	SiteFoldingRange
	SiteHover
	SiteSemanticTokens
)

// ReadOnly reports whether the site is a read-only query.
func (s Site) ReadOnly() bool {
	return s != SiteOpen
}

func (s Site) String() string {
	switch s {
	case SiteFoldingRange:
		return "folding_range"
	case SiteHover:
		return "hover"
	case SiteSemanticTokens:
		return "semantic_tokens"
	default:
		return "open"
	}
}

// State is the focus bookkeeping of a session. Empty Focusing means none.
type State struct {
	Pinning                  bool
	Focusing                 string
	EverManualFocusing       bool
	EverFocusingByActivities bool
}

// Resolver produces task inputs for an entry path.
type Resolver interface {
	ResolveTaskOr(path string) project.TaskInputs
	DefaultEntry() string
}

// Sender delivers a task change to the compile subsystem.
type Sender interface {
	ChangeTask(id project.TaskID, inputs project.TaskInputs)
}

type Options struct {
	Resolver Resolver
	Sender   Sender
	// PrimaryID returns the id of the primary task.
	PrimaryID func() project.TaskID
	// HasDefaultEntry reports whether the configuration names an entry file,
	// in which case focus requests do not move the primary task.
	HasDefaultEntry func() bool
	Metrics         *metrics.Metrics
}

// Machine owns the focus state. It is not safe for concurrent use; callers
// serialize access.
type Machine struct {
	opts  Options
	state State
	log   commonlog.Logger
}

func New(opts Options) *Machine {
	if opts.PrimaryID == nil {
		opts.PrimaryID = func() project.TaskID { return project.PrimaryTask }
	}
	if opts.HasDefaultEntry == nil {
		opts.HasDefaultEntry = func() bool { return false }
	}
	return &Machine{opts: opts, log: commonlog.GetLogger("tinymist.focus")}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// ChangeMainFile retargets the primary task to path. An empty path detaches
// it.
func (m *Machine) ChangeMainFile(path string) (bool, error) {
	if err := validateEntry(path); err != nil {
		return false, err
	}

	inputs := m.opts.Resolver.ResolveTaskOr(path)
	id := m.opts.PrimaryID()
	m.log.Infof("the task of the primary is changing to %+v", inputs.Entry)
	m.opts.Sender.ChangeTask(id, inputs)
	return true, nil
}

// validateEntry accepts the empty path, absolute paths and untitled
// documents.
func validateEntry(path string) error {
	if path != "" && !filepath.IsAbs(path) && !uri.IsUntitled(path) {
		return fmt.Errorf("%w: %s", ErrInvalidEntryPath, path)
	}
	return nil
}

// Pin fixes the primary task on path, or releases the pin when path is
// empty. Releasing falls back to the default entry, then to the last focused
// document. A rejected entry leaves the state unchanged.
func (m *Machine) Pin(path string) error {
	entry := utils.FirstNonEmpty(path, m.opts.Resolver.DefaultEntry(), m.state.Focusing)
	if err := validateEntry(entry); err != nil {
		return err
	}
	m.state.Pinning = path != ""
	_, err := m.ChangeMainFile(entry)
	return err
}

// Focus moves the primary task to path unless it is pinned or a default
// entry is configured, in which case path is only remembered for Pin("").
func (m *Machine) Focus(path string) (bool, error) {
	if err := validateEntry(path); err != nil {
		return false, err
	}
	if m.state.Pinning || m.opts.HasDefaultEntry() {
		m.state.Focusing = path
		return false, nil
	}
	return m.ChangeMainFile(path)
}

// ManualPin handles an explicit pin command from the client.
func (m *Machine) ManualPin(path string) error {
	if err := m.Pin(path); err != nil {
		return err
	}
	m.state.EverManualFocusing = true
	return nil
}

// ManualFocus handles an explicit focus command from the client.
func (m *Machine) ManualFocus(path string) (bool, error) {
	changed, err := m.Focus(path)
	if err != nil {
		return false, err
	}
	m.state.EverManualFocusing = true
	return changed, nil
}

// ImplicitFocus focuses the document computed by compute in response to
// activity at site. Failures are logged.
func (m *Machine) ImplicitFocus(compute func() string, site Site) {
	if m.state.EverManualFocusing {
		m.opts.Metrics.RecordFocus(site.String(), "manual")
		return
	}
	if site.ReadOnly() {
		m.state.EverFocusingByActivities = true
	} else if m.state.EverFocusingByActivities {
		m.opts.Metrics.RecordFocus(site.String(), "suppressed")
		return
	}

	path := compute()
	changed, err := m.Focus(path)
	switch {
	case utils.LogError(m.log, err, "could not focus file"):
		m.opts.Metrics.RecordFocus(site.String(), "failed")
	case changed:
		m.log.Infof("file focused[implicit,%s]: %s", site, path)
		m.opts.Metrics.RecordFocus(site.String(), "focused")
	default:
		m.opts.Metrics.RecordFocus(site.String(), "recorded")
	}
}
