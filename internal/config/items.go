package config

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Section is the settings section the server reads.
const Section = "tinymist"

// Keys lists the settings requested from the client, in request order.
var Keys = []string{
	"outputPath",
	"exportPdf",
	"rootPath",
	"semanticTokens",
	"formatterMode",
	"formatterPrintWidth",
	"fontPaths",
	"systemFonts",
	"typstExtraArgs",
	"compileStatus",
	"projectResolution",
}

// Items returns the workspace/configuration items for Keys.
func Items() []protocol.ConfigurationItem {
	items := make([]protocol.ConfigurationItem, len(Keys))
	for i, key := range Keys {
		section := Section + "." + key
		items[i] = protocol.ConfigurationItem{Section: &section}
	}
	return items
}

// ValuesToMap pairs a workspace/configuration response with Keys. A null
// value resets the setting.
func ValuesToMap(values []any) (map[string]any, error) {
	if len(values) != len(Keys) {
		return nil, fmt.Errorf("%w: expected %d configuration values, got %d", ErrInvalidConfiguration, len(Keys), len(values))
	}
	out := make(map[string]any, len(Keys))
	for i, key := range Keys {
		out[key] = values[i]
	}
	return out, nil
}
