package server

import (
	"fmt"

	"github.com/hongjr03/tinymist/internal/focus"
	"github.com/hongjr03/tinymist/internal/overlay"
	"github.com/hongjr03/tinymist/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changes, err := s.overlay.Open(path, params.TextDocument.Text, params.TextDocument.Version)
	if err != nil {
		return err
	}
	s.propagator.Memory(changes)
	s.metrics.SetDocumentsOpen(s.overlay.Len())
	s.focus.ImplicitFocus(func() string { return path }, focus.SiteOpen)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	changes, err := contentChanges(params.ContentChanges)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs, err := s.overlay.Edit(path, changes, s.cc.PositionEncoding, params.TextDocument.Version)
	if err != nil {
		return err
	}
	s.propagator.Memory(cs)
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	s.export.OnSave(path)
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changes, err := s.overlay.Close(path)
	if err != nil {
		return err
	}
	s.propagator.Memory(changes)
	s.metrics.SetDocumentsOpen(s.overlay.Len())
	return nil
}

func contentChanges(events []any) ([]overlay.Change, error) {
	changes := make([]overlay.Change, 0, len(events))
	for i, raw := range events {
		switch event := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, overlay.Change{Range: event.Range, Text: event.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, overlay.Change{Text: event.Text})
		default:
			return nil, fmt.Errorf("unexpected change event %d of type %T", i, raw)
		}
	}
	return changes, nil
}
