package server

import (
	"github.com/hongjr03/tinymist/internal/focus"
	"github.com/hongjr03/tinymist/internal/overlay"
	"github.com/hongjr03/tinymist/internal/position"
	"github.com/hongjr03/tinymist/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// implicitFocus reports activity at site on the document docURI.
func (s *Server) implicitFocus(docURI protocol.DocumentUri, site focus.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.focus.ImplicitFocus(func() string {
		path, err := uri.ToPath(docURI)
		if err != nil {
			// not an absolute path, so the focus machine rejects and logs it
			return docURI
		}
		return path
	}, site)
}

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	s.implicitFocus(params.TextDocument.URI, focus.SiteHover)
	return nil, nil
}

func (s *Server) textDocumentFoldingRange(
	context *glsp.Context,
	params *protocol.FoldingRangeParams,
) ([]protocol.FoldingRange, error) {
	s.implicitFocus(params.TextDocument.URI, focus.SiteFoldingRange)
	return []protocol.FoldingRange{}, nil
}

func (s *Server) textDocumentSemanticTokensFull(
	context *glsp.Context,
	params *protocol.SemanticTokensParams,
) (*protocol.SemanticTokens, error) {
	s.implicitFocus(params.TextDocument.URI, focus.SiteSemanticTokens)
	return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
}

func (s *Server) textDocumentCodeLens(
	context *glsp.Context,
	params *protocol.CodeLensParams,
) ([]protocol.CodeLens, error) {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.overlay.Contains(path) {
		return nil, nil
	}
	return codeLenses(s.reconciler.Config().HTMLEnabled()), nil
}

// codeLenses lists the document actions, all shown at the document start.
func codeLenses(html bool) []protocol.CodeLens {
	lens := func(title, action string) protocol.CodeLens {
		return protocol.CodeLens{
			Range: protocol.Range{},
			Command: &protocol.Command{
				Title:     title,
				Command:   CommandRunCodeLens,
				Arguments: []any{action},
			},
		}
	}

	export := lens("Export PDF", "export-pdf")
	if html {
		export = lens("Export HTML", "export-html")
	}
	return []protocol.CodeLens{
		lens("Profile", "profile"),
		lens("Preview", "preview"),
		export,
		lens("More ..", "more"),
	}
}

func (s *Server) textDocumentFormatting(
	context *glsp.Context,
	params *protocol.DocumentFormattingParams,
) ([]protocol.TextEdit, error) {
	path, err := uri.ToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enc := s.cc.PositionEncoding
	return overlay.Query(s.overlay, path, func(text string) ([]protocol.TextEdit, error) {
		formatted, changed := s.formatter.Format(text)
		if !changed {
			return nil, nil
		}
		end, err := position.ToPosition(text, len(text), enc)
		if err != nil {
			return nil, err
		}
		return []protocol.TextEdit{{
			Range:   protocol.Range{End: end},
			NewText: formatted,
		}}, nil
	})
}
