package position_test

import (
	"errors"
	"testing"

	"github.com/hongjr03/tinymist/internal/position"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func TestToOffset(t *testing.T) {
	// "é" is 2 bytes, 1 UTF-16 unit; "𝕏" is 4 bytes, 2 UTF-16 units.
	text := "ab\nxé𝕏y\r\nlast"

	tests := []struct {
		name string
		pos  protocol.Position
		enc  position.Encoding
		want int
	}{
		{"start", pos(0, 0), position.UTF16, 0},
		{"end of first line", pos(0, 2), position.UTF16, 2},
		{"utf16 after accent", pos(1, 2), position.UTF16, 6},
		{"utf16 after astral", pos(1, 4), position.UTF16, 10},
		{"utf16 end of crlf line", pos(1, 5), position.UTF16, 11},
		{"utf32 after astral", pos(1, 3), position.UTF32, 10},
		{"utf8 after astral", pos(1, 7), position.UTF8, 10},
		{"last line", pos(2, 4), position.UTF16, len(text)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := position.ToOffset(text, tt.pos, tt.enc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToOffsetRejectsOutOfRange(t *testing.T) {
	text := "ab\nx𝕏"

	tests := []struct {
		name string
		pos  protocol.Position
		enc  position.Encoding
	}{
		{"line past end", pos(2, 0), position.UTF16},
		{"character past end", pos(0, 3), position.UTF16},
		{"splits surrogate pair", pos(1, 2), position.UTF16},
		{"splits utf8 sequence", pos(1, 2), position.UTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := position.ToOffset(text, tt.pos, tt.enc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, position.ErrInvalidPosition))
		})
	}
}

func TestToRangeRequiresOrderedBounds(t *testing.T) {
	_, _, err := position.ToRange("hello", protocol.Range{Start: pos(0, 4), End: pos(0, 1)}, position.UTF16)
	assert.ErrorIs(t, err, position.ErrInvalidPosition)

	start, end, err := position.ToRange("hello", protocol.Range{Start: pos(0, 1), End: pos(0, 4)}, position.UTF16)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)
}

func TestToPositionRoundTrip(t *testing.T) {
	text := "one\ntwo é𝕏\nthree"
	for _, enc := range []position.Encoding{position.UTF8, position.UTF16, position.UTF32} {
		for offset := range len(text) + 1 {
			p, err := position.ToPosition(text, offset, enc)
			if err != nil {
				// only offsets inside a multi-byte sequence are rejected
				continue
			}
			back, err := position.ToOffset(text, p, enc)
			require.NoError(t, err)
			assert.Equal(t, offset, back, "encoding %s, offset %d", enc, offset)
		}
	}
}

func TestLineTerminators(t *testing.T) {
	text := "a\rbc\r\nd\ne"

	tests := []struct {
		pos  protocol.Position
		want int
	}{
		{pos(0, 1), 1},
		{pos(1, 0), 2},
		{pos(1, 2), 4},
		{pos(2, 0), 6},
		{pos(3, 1), 9},
	}
	for _, tt := range tests {
		got, err := position.ToOffset(text, tt.pos, position.UTF16)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d:%d", tt.pos.Line, tt.pos.Character)

		back, err := position.ToPosition(text, tt.want, position.UTF16)
		require.NoError(t, err)
		assert.Equal(t, tt.pos, back)
	}

	_, err := position.ToOffset(text, pos(0, 2), position.UTF16)
	assert.ErrorIs(t, err, position.ErrInvalidPosition)

	// between "\r" and "\n"
	_, err = position.ToPosition(text, 5, position.UTF16)
	assert.ErrorIs(t, err, position.ErrInvalidPosition)
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]position.Encoding{
		"":       position.UTF16,
		"utf-8":  position.UTF8,
		"UTF-16": position.UTF16,
		"utf-32": position.UTF32,
	} {
		got, err := position.ParseEncoding(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := position.ParseEncoding("latin1")
	assert.Error(t, err)
}

func TestEditFor(t *testing.T) {
	text := "ab\ncd"
	edit := position.EditFor(text, 1, 4, "X\nYZ")

	assert.Equal(t, sitter.EditInput{
		StartIndex:  1,
		OldEndIndex: 4,
		NewEndIndex: 5,
		StartPoint:  sitter.Point{Row: 0, Column: 1},
		OldEndPoint: sitter.Point{Row: 1, Column: 1},
		NewEndPoint: sitter.Point{Row: 1, Column: 2},
	}, edit)

	single := position.EditFor(text, 3, 3, "zz")
	assert.Equal(t, sitter.Point{Row: 1, Column: 2}, single.NewEndPoint)
}
