// Package uri maps document URIs onto the normalized paths the server keys its
// state by.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/text/unicode/norm"
)

// UntitledRoot is the virtual directory that holds documents which have no
// file on disk yet.
const UntitledRoot = "/untitled"

var ErrUnsupportedScheme = errors.New("unsupported uri scheme")

// ToPath converts a file or untitled URI into a clean absolute path. A bare
// absolute path is accepted as is.
func ToPath(docURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(docURI)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := filepath.FromSlash(u.Path)
		if u.Opaque != "" || !filepath.IsAbs(path) {
			return "", fmt.Errorf("%w: file uri %q has no absolute path", ErrUnsupportedScheme, docURI)
		}
		return Normalize(path), nil
	case "untitled":
		name := u.Opaque
		if name == "" {
			name = u.Path
		}
		name = strings.TrimLeft(name, "/")
		if name == "" {
			return "", fmt.Errorf("untitled uri %q has no name", docURI)
		}
		return Normalize(UntitledRoot + "/" + name), nil
	case "":
		if filepath.IsAbs(docURI) || IsUntitled(docURI) {
			return Normalize(docURI), nil
		}
		return "", fmt.Errorf("%w: %q is neither a uri nor an absolute path", ErrUnsupportedScheme, docURI)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// IsUntitled reports whether path lives under the virtual untitled directory.
func IsUntitled(path string) bool {
	p := filepath.ToSlash(path)
	return p == UntitledRoot || strings.HasPrefix(p, UntitledRoot+"/")
}

// Normalize cleans path and brings it into Unicode NFC, so that the same file
// reported in decomposed form (as macOS does) maps onto one key.
func Normalize(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}
