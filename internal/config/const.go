package config

import (
	"github.com/hongjr03/tinymist/internal/position"
	"github.com/hongjr03/tinymist/internal/uri"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ConstConfig holds what the client fixes at initialization.
type ConstConfig struct {
	PositionEncoding      position.Encoding
	Roots                 []string
	SemanticTokensDynamic bool
	FormatterDynamic      bool
	// ConfigurationPull reports whether the client answers
	// workspace/configuration requests.
	ConfigurationPull bool
}

// ConstFromInitialize extracts the constant configuration and the initial
// settings object from an initialize request.
func ConstFromInitialize(params *protocol.InitializeParams) (ConstConfig, map[string]any) {
	cc := ConstConfig{PositionEncoding: position.UTF16}

	for _, folder := range params.WorkspaceFolders {
		if path, err := uri.ToPath(folder.URI); err == nil {
			cc.Roots = append(cc.Roots, path)
		}
	}
	if len(cc.Roots) == 0 {
		if params.RootURI != nil {
			if path, err := uri.ToPath(*params.RootURI); err == nil {
				cc.Roots = append(cc.Roots, path)
			}
		} else if params.RootPath != nil && *params.RootPath != "" {
			cc.Roots = append(cc.Roots, uri.Normalize(*params.RootPath))
		}
	}

	caps := params.Capabilities
	if td := caps.TextDocument; td != nil {
		if td.SemanticTokens != nil && td.SemanticTokens.DynamicRegistration != nil {
			cc.SemanticTokensDynamic = *td.SemanticTokens.DynamicRegistration
		}
		if td.Formatting != nil && td.Formatting.DynamicRegistration != nil {
			cc.FormatterDynamic = *td.Formatting.DynamicRegistration
		}
	}
	if ws := caps.Workspace; ws != nil && ws.Configuration != nil {
		cc.ConfigurationPull = *ws.Configuration
	}

	opts, _ := params.InitializationOptions.(map[string]any)
	if enc, ok := opts["positionEncoding"].(string); ok {
		if parsed, err := position.ParseEncoding(enc); err == nil {
			cc.PositionEncoding = parsed
		}
	}
	delete(opts, "positionEncoding")

	settings := opts
	if nested, ok := opts[Section].(map[string]any); ok {
		settings = nested
	}
	return cc, settings
}
