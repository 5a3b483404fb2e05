package server

import (
	"errors"
	"sync"

	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/reconcile"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var errNoClient = errors.New("client is not connected")

var tokenTypes = []string{
	"comment", "string", "keyword", "operator", "number", "function",
	"decorator", "bool", "punctuation", "escape", "link", "raw", "label",
	"ref", "heading", "marker", "term", "delim", "pol", "error", "text",
}

var tokenModifiers = []string{"strong", "emph", "math"}

func semanticTokensOptions() protocol.SemanticTokensOptions {
	return protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     tokenTypes,
			TokenModifiers: tokenModifiers,
		},
		Full: true,
	}
}

func typstSelector() *protocol.DocumentSelector {
	language := "typst"
	return &protocol.DocumentSelector{{Language: &language}}
}

// capability is a server capability the client may register dynamically.
type capability struct {
	id         string
	method     string
	options    func() any
	dynamic    bool
	wanted     bool
	registered bool
}

// capabilityRegistry implements reconcile.Capabilities. Until the client is
// initialized it only records which capabilities are wanted.
type capabilityRegistry struct {
	mu             sync.Mutex
	call           glsp.CallFunc
	active         bool
	semanticTokens capability
	formatter      capability
	// last is closed when the most recent client request returned.
	last chan struct{}
	log  commonlog.Logger
}

var _ reconcile.Capabilities = (*capabilityRegistry)(nil)

func newCapabilityRegistry() *capabilityRegistry {
	return &capabilityRegistry{
		semanticTokens: capability{
			id:     "tinymist.semanticTokens",
			method: "textDocument/semanticTokens",
			options: func() any {
				return protocol.SemanticTokensRegistrationOptions{
					TextDocumentRegistrationOptions: protocol.TextDocumentRegistrationOptions{DocumentSelector: typstSelector()},
					SemanticTokensOptions:           semanticTokensOptions(),
				}
			},
		},
		formatter: capability{
			id:     "tinymist.formatting",
			method: string(protocol.MethodTextDocumentFormatting),
			options: func() any {
				return protocol.DocumentFormattingRegistrationOptions{
					TextDocumentRegistrationOptions: protocol.TextDocumentRegistrationOptions{DocumentSelector: typstSelector()},
				}
			},
		},
		log: commonlog.GetLogger("tinymist.server.capabilities"),
	}
}

// configure records whether the client registers capabilities dynamically
// and how to reach it.
func (r *capabilityRegistry) configure(cc config.ConstConfig, call glsp.CallFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call = call
	r.semanticTokens.dynamic = cc.SemanticTokensDynamic
	r.formatter.dynamic = cc.FormatterDynamic
}

// seed records the capabilities cfg asks for.
func (r *capabilityRegistry) seed(cfg config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.semanticTokens.wanted = cfg.SemanticTokensEnabled()
	r.formatter.wanted = cfg.Formatter().Enabled()
}

// static reports the capabilities to announce in the initialize result.
func (r *capabilityRegistry) static() (semanticTokens, formatter bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.semanticTokens.dynamic && r.semanticTokens.wanted,
		!r.formatter.dynamic && r.formatter.wanted
}

// activate sends the registrations recorded so far.
func (r *capabilityRegistry) activate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	return errors.Join(r.sync(&r.semanticTokens), r.sync(&r.formatter))
}

func (r *capabilityRegistry) EnableSemanticTokens(enable bool) error {
	return r.enable(&r.semanticTokens, enable)
}

func (r *capabilityRegistry) EnableFormatter(enable bool) error {
	return r.enable(&r.formatter, enable)
}

func (r *capabilityRegistry) enable(c *capability, enable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.wanted = enable
	if !r.active {
		return nil
	}
	return r.sync(c)
}

func (r *capabilityRegistry) sync(c *capability) error {
	if !c.dynamic {
		r.log.Debugf("%s is registered statically", c.method)
		return nil
	}
	if c.wanted == c.registered {
		return nil
	}
	if r.call == nil {
		return errNoClient
	}

	c.registered = c.wanted
	if c.wanted {
		r.log.Infof("registering %s", c.method)
		r.send(protocol.ServerClientRegisterCapability, protocol.RegistrationParams{
			Registrations: []protocol.Registration{{ID: c.id, Method: c.method, RegisterOptions: c.options()}},
		})
	} else {
		r.log.Infof("unregistering %s", c.method)
		r.send(protocol.ServerClientUnregisterCapability, protocol.UnregistrationParams{
			Unregisterations: []protocol.Unregistration{{ID: c.id, Method: c.method}},
		})
	}
	return nil
}

// send issues a client request from a new goroutine. Requests reach the
// client in the order they were sent.
func (r *capabilityRegistry) send(method string, params any) {
	prev, done := r.last, make(chan struct{})
	r.last = done
	call := r.call
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		call(method, params, nil)
	}()
}

// wait blocks until every request sent so far returned.
func (r *capabilityRegistry) wait() {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()
	if last != nil {
		<-last
	}
}
