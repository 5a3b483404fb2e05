package server

import (
	"errors"
	"fmt"

	"github.com/hongjr03/tinymist/internal/reconcile"
	"github.com/hongjr03/tinymist/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	CommandPinMain     = "tinymist.pinMain"
	CommandFocusMain   = "tinymist.focusMain"
	CommandRunCodeLens = "tinymist.runCodeLens"
)

var commands = []string{CommandPinMain, CommandFocusMain}

var errUnknownCommand = errors.New("unknown command")

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handled, err := s.reconciler.OnDidChangeConfiguration(params.Settings)
	if handled || err != nil {
		return err
	}
	if !s.cc.ConfigurationPull {
		s.log.Warning("client sent no settings and does not answer workspace/configuration")
		return nil
	}
	s.reconciler.RequestConfiguration(reconcile.CallFunc(context.Call), &s.mu)
	return nil
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case CommandPinMain:
		path, err := commandPath(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return nil, s.focus.ManualPin(path)
	case CommandFocusMain:
		path, err := commandPath(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err = s.focus.ManualFocus(path)
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", errUnknownCommand, params.Command)
}

// commandPath reads the file argument of a focus command. A missing or null
// argument yields "", which releases the pin.
func commandPath(args []any) (string, error) {
	if len(args) == 0 || args[0] == nil {
		return "", nil
	}
	arg, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("expected a path argument, got %T", args[0])
	}
	if arg == "" {
		return "", nil
	}
	return uri.ToPath(arg)
}
