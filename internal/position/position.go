// Package position converts editor protocol positions into byte offsets of a
// UTF-8 document and back.
package position

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Encoding is the unit in which the client counts the character of a
// position.
type Encoding int

const (
	UTF16 Encoding = iota
	UTF8
	UTF32
)

var ErrInvalidPosition = errors.New("invalid position")

// ParseEncoding accepts the protocol names "utf-8", "utf-16" and "utf-32". An
// empty string selects UTF-16, the protocol default.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "utf-16", "utf16":
		return UTF16, nil
	case "utf-8", "utf8":
		return UTF8, nil
	case "utf-32", "utf32":
		return UTF32, nil
	}
	return UTF16, fmt.Errorf("unknown position encoding %q", s)
}

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF32:
		return "utf-32"
	default:
		return "utf-16"
	}
}

// ToOffset returns the byte offset of pos in text.
func ToOffset(text string, pos protocol.Position, enc Encoding) (int, error) {
	start, end, ok := lineBounds(text, pos.Line)
	if !ok {
		return 0, fmt.Errorf("%w: line %d is past the end of the document", ErrInvalidPosition, pos.Line)
	}
	n, err := unitsToBytes(text[start:end], pos.Character, enc)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %v", ErrInvalidPosition, pos.Line, err)
	}
	return start + n, nil
}

// ToRange returns the byte range [start, end) covered by rng in text.
func ToRange(text string, rng protocol.Range, enc Encoding) (int, int, error) {
	start, err := ToOffset(text, rng.Start, enc)
	if err != nil {
		return 0, 0, err
	}
	end, err := ToOffset(text, rng.End, enc)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, fmt.Errorf("%w: range start %d:%d is after its end %d:%d", ErrInvalidPosition,
			rng.Start.Line, rng.Start.Character, rng.End.Line, rng.End.Character)
	}
	return start, end, nil
}

// ToPosition converts a byte offset of text into a position.
func ToPosition(text string, offset int, enc Encoding) (protocol.Position, error) {
	if offset < 0 || offset > len(text) {
		return protocol.Position{}, fmt.Errorf("%w: offset %d is outside of [0, %d]", ErrInvalidPosition, offset, len(text))
	}
	if offset < len(text) && !utf8.RuneStart(text[offset]) {
		return protocol.Position{}, fmt.Errorf("%w: offset %d splits a code point", ErrInvalidPosition, offset)
	}
	if offset > 0 && offset < len(text) && text[offset-1] == '\r' && text[offset] == '\n' {
		return protocol.Position{}, fmt.Errorf("%w: offset %d splits a line terminator", ErrInvalidPosition, offset)
	}

	line, lineStart := 0, 0
	for {
		idx, width := nextLineBreak(text[lineStart:])
		if idx < 0 || lineStart+idx+width > offset {
			break
		}
		line++
		lineStart += idx + width
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(countUnits(text[lineStart:offset], enc)),
	}, nil
}

// nextLineBreak returns the index and width of the first line terminator in
// s, or -1. "\n", "\r\n" and a lone "\r" end a line.
func nextLineBreak(s string) (int, int) {
	i := strings.IndexAny(s, "\r\n")
	if i < 0 {
		return -1, 0
	}
	if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
		return i, 2
	}
	return i, 1
}

// lineBounds returns the byte span of the given line without its line
// terminator.
func lineBounds(text string, line uint32) (int, int, bool) {
	start := 0
	for i := uint32(0); i < line; i++ {
		idx, width := nextLineBreak(text[start:])
		if idx < 0 {
			return 0, 0, false
		}
		start += idx + width
	}
	end := len(text)
	if idx, _ := nextLineBreak(text[start:]); idx >= 0 {
		end = start + idx
	}
	return start, end, true
}

func unitsToBytes(line string, char uint32, enc Encoding) (int, error) {
	if enc == UTF8 {
		if int(char) > len(line) {
			return 0, fmt.Errorf("character %d is past the end of the line (%d bytes)", char, len(line))
		}
		if int(char) < len(line) && !utf8.RuneStart(line[char]) {
			return 0, fmt.Errorf("character %d splits a code point", char)
		}
		return int(char), nil
	}

	var units uint32
	for i, r := range line {
		if units == char {
			return i, nil
		}
		units += runeUnits(r, enc)
		if units > char {
			return 0, fmt.Errorf("character %d splits a code point", char)
		}
	}
	if units == char {
		return len(line), nil
	}
	return 0, fmt.Errorf("character %d is past the end of the line (%d units)", char, units)
}

func countUnits(s string, enc Encoding) int {
	if enc == UTF8 {
		return len(s)
	}
	var n uint32
	for _, r := range s {
		n += runeUnits(r, enc)
	}
	return int(n)
}

func runeUnits(r rune, enc Encoding) uint32 {
	if enc == UTF16 && r > 0xFFFF {
		return 2
	}
	return 1
}
