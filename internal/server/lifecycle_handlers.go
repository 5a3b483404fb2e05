package server

import (
	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/reconcile"
	"github.com/hongjr03/tinymist/internal/utils"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc, settings := config.ConstFromInitialize(params)
	s.cc = cc
	s.caps.configure(cc, context.Call)
	s.log.Infof("initializing with roots %v, position encoding %s", cc.Roots, cc.PositionEncoding)

	// settings missing from initialize are pulled once the client is ready
	s.pullSettings = len(settings) == 0 && cc.ConfigurationPull
	if len(settings) > 0 {
		if err := s.reconciler.Apply(settings); err != nil {
			return nil, err
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{Commands: commands}

	semanticTokens, formatter := s.caps.static()
	capabilities.SemanticTokensProvider = nil
	if semanticTokens {
		capabilities.SemanticTokensProvider = semanticTokensOptions()
	}
	capabilities.DocumentFormattingProvider = nil
	if formatter {
		capabilities.DocumentFormattingProvider = true
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	utils.LogError(s.log, s.caps.activate(), "could not register capabilities")
	if s.pullSettings {
		s.reconciler.RequestConfiguration(reconcile.CallFunc(context.Call), &s.mu)
	}
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.log.Info("shutting down")
	s.propagator.Close()
	s.session.Wait()
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
