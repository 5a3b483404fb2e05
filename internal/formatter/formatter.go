// Package formatter formats Typst documents on request.
package formatter

import (
	"strings"
	"sync"

	"github.com/hongjr03/tinymist/internal/config"

	"github.com/tliron/commonlog"
)

// Formatter holds the formatter settings and applies them.
type Formatter struct {
	mu  sync.RWMutex
	cfg config.FormatterConfig
	log commonlog.Logger
}

func New(cfg config.FormatterConfig) *Formatter {
	return &Formatter{cfg: cfg, log: commonlog.GetLogger("tinymist.formatter")}
}

func (f *Formatter) ChangeConfig(cfg config.FormatterConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.log.Infof("formatter changed: mode=%s width=%d", cfg.Mode, cfg.PrintWidth)
}

func (f *Formatter) Config() config.FormatterConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

func (f *Formatter) Enabled() bool {
	return f.Config().Enabled()
}

// Format returns the formatted text and whether it differs from text. It
// strips trailing whitespace from every line outside raw blocks and leaves
// exactly one newline at the end of a non-empty document. Line endings are
// kept. Multi-line string literals are not recognized and get trimmed too.
func (f *Formatter) Format(text string) (string, bool) {
	if !f.Enabled() {
		return text, false
	}

	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	fence := 0
	for i, line := range lines {
		// a line ending inside a raw block keeps its trailing whitespace
		fence = scanFences(line, fence)
		if fence == 0 {
			lines[i] = strings.TrimRight(line, " \t")
		}
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	out := ""
	if len(lines) > 0 {
		out = strings.Join(lines, eol) + eol
	}
	return out, out != text
}

// scanFences tracks the backtick run that opened the current raw block
// through line. A raw block opens with three or more backticks and closes
// with a run at least as long. It returns 0 outside a raw block.
func scanFences(line string, fence int) int {
	for i := 0; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		n := 0
		for i < len(line) && line[i] == '`' {
			n++
			i++
		}
		switch {
		case fence == 0 && n >= 3:
			fence = n
		case fence > 0 && n >= fence:
			fence = 0
		}
	}
	return fence
}
