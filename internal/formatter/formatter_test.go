package formatter_test

import (
	"testing"

	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/formatter"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	f := formatter.New(config.FormatterConfig{Mode: config.FormatterTypstyle, PrintWidth: 120})

	tests := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{"clean", "= Title\n", "= Title\n", false},
		{"trailing spaces", "= Title  \nbody\t\n", "= Title\nbody\n", true},
		{"missing newline", "body", "body\n", true},
		{"extra blank lines", "body\n\n\n", "body\n", true},
		{"crlf", "a \r\nb\r\n\r\n", "a\r\nb\r\n", true},
		{"empty", "", "", false},
		{"only blanks", "  \n\n", "", true},
		{"raw block kept", "```txt\ncode  \n  \n```  \nafter \n", "```txt\ncode  \n  \n```\nafter\n", true},
		{"longer fence", "````\n``` \n````\n", "````\n``` \n````\n", false},
		{"inline raw", "`x`  \n", "`x`\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := f.Format(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestFormatDisabled(t *testing.T) {
	f := formatter.New(config.FormatterConfig{Mode: config.FormatterDisable, PrintWidth: 120})

	got, changed := f.Format("body  ")
	assert.Equal(t, "body  ", got)
	assert.False(t, changed)
	assert.False(t, f.Enabled())

	f.ChangeConfig(config.FormatterConfig{Mode: config.FormatterTypstfmt, PrintWidth: 80})
	assert.True(t, f.Enabled())
	assert.Equal(t, 80, f.Config().PrintWidth)
}
