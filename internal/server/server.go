// Package server exposes the state of a tinymist session over the language
// server protocol.
package server

import (
	"sync"

	"github.com/hongjr03/tinymist/internal/compile"
	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/export"
	"github.com/hongjr03/tinymist/internal/focus"
	"github.com/hongjr03/tinymist/internal/fonts"
	"github.com/hongjr03/tinymist/internal/formatter"
	"github.com/hongjr03/tinymist/internal/lockdb"
	"github.com/hongjr03/tinymist/internal/metrics"
	"github.com/hongjr03/tinymist/internal/overlay"
	"github.com/hongjr03/tinymist/internal/pending"
	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/reconcile"
	"github.com/hongjr03/tinymist/internal/resolver"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

const Name = "tinymist"

type Options struct {
	Version string
	Metrics *metrics.Metrics
}

// Server holds the session state. mu serializes every handler that reads or
// mutates the overlay, the focus state or the configuration.
type Server struct {
	mu      sync.Mutex
	handler *protocol.Handler
	version string

	cc           config.ConstConfig
	pullSettings bool
	overlay      *overlay.Overlay
	session      *compile.Session
	propagator   *project.Propagator
	bridge       *resolver.Bridge
	focus        *focus.Machine
	reconciler   *reconcile.Reconciler
	fonts        *fonts.Cache
	export       *export.Subsystem
	formatter    *formatter.Formatter
	caps         *capabilityRegistry
	pending      *pending.Table
	metrics      *metrics.Metrics
	log          commonlog.Logger
}

func NewServer(opts Options) *glspserver.Server {
	ls := New(opts)
	return glspserver.NewServer(ls.handler, Name, false)
}

// New builds a session with the default configuration. The configuration
// sent with initialize is applied on top of it.
func New(opts Options) *Server {
	cfg := config.Default()

	s := &Server{
		version:   opts.Version,
		overlay:   overlay.New(),
		fonts:     fonts.NewCache(),
		export:    export.New(cfg.Export()),
		formatter: formatter.New(cfg.Formatter()),
		caps:      newCapabilityRegistry(),
		pending:   pending.NewTable(),
		metrics:   opts.Metrics,
		log:       commonlog.GetLogger("tinymist.server"),
	}
	primary := cfg.PrimaryOpts()
	s.fonts.Invalidate(primary.FontPaths, primary.SystemFonts)
	s.caps.seed(cfg)
	s.session = compile.NewSession(s.fonts, s.metrics)
	s.propagator = project.NewPropagator(s.session, s.metrics)
	s.reconciler = reconcile.New(cfg, reconcile.Options{
		Exporter:     s.export,
		Compiler:     s.session,
		Fonts:        s.fonts,
		Capabilities: s.caps,
		Formatter:    s.formatter,
		Pending:      s.pending,
		Metrics:      s.metrics,
	})

	locks := lockdb.NewDatabase()
	s.bridge = resolver.NewBridge(s.entryPolicy, s.lockMode, locks, locks)
	s.focus = focus.New(focus.Options{
		Resolver:        s.bridge,
		Sender:          s.propagator,
		PrimaryID:       s.session.PrimaryID,
		HasDefaultEntry: s.hasDefaultEntry,
		Metrics:         s.metrics,
	})

	s.handler = &protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidSave:             s.textDocumentDidSave,
		TextDocumentDidClose:            s.textDocumentDidClose,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
		TextDocumentHover:               s.textDocumentHover,
		TextDocumentFoldingRange:        s.textDocumentFoldingRange,
		TextDocumentSemanticTokensFull:  s.textDocumentSemanticTokensFull,
		TextDocumentCodeLens:            s.textDocumentCodeLens,
		TextDocumentFormatting:          s.textDocumentFormatting,
	}
	return s
}

// entryPolicy and the other accessors below are read by the resolver and the
// focus machine while mu is held.
func (s *Server) entryPolicy() resolver.EntryPolicy {
	cfg := s.reconciler.Config()
	return resolver.Policy{
		Root:  cfg.Root(),
		Roots: s.cc.Roots,
		Entry: cfg.DefaultEntry(),
	}
}

func (s *Server) lockMode() bool {
	return s.reconciler.Config().LockDatabaseEnabled()
}

func (s *Server) hasDefaultEntry() bool {
	return s.reconciler.Config().HasDefaultEntryPath()
}

// Config returns the committed configuration.
func (s *Server) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciler.Config()
}

// FocusState returns the focus bookkeeping.
func (s *Server) FocusState() focus.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus.State()
}

// Session returns the compile session the server feeds.
func (s *Server) Session() *compile.Session {
	return s.session
}

// Flush waits until every change sent so far reached the compile session.
func (s *Server) Flush() {
	s.propagator.Flush()
}
