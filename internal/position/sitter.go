package position

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// EditFor describes replacing text[start:end] with newText as a tree-sitter
// edit, so that consumers holding a syntax tree can reparse incrementally.
func EditFor(text string, start, end int, newText string) sitter.EditInput {
	startPoint := pointAt(text, start)
	return sitter.EditInput{
		StartIndex:  uint32(start),
		OldEndIndex: uint32(end),
		NewEndIndex: uint32(start + len(newText)),
		StartPoint:  startPoint,
		OldEndPoint: pointAt(text, end),
		NewEndPoint: endPoint(startPoint, newText),
	}
}

// pointAt returns the row and byte column of offset.
func pointAt(text string, offset int) sitter.Point {
	prefix := text[:offset]
	row := strings.Count(prefix, "\n")
	col := offset - (strings.LastIndexByte(prefix, '\n') + 1)
	return sitter.Point{Row: uint32(row), Column: uint32(col)}
}

// endPoint computes the point reached after inserting newText at start.
func endPoint(start sitter.Point, newText string) sitter.Point {
	rows := strings.Count(newText, "\n")
	if rows == 0 {
		return sitter.Point{Row: start.Row, Column: start.Column + uint32(len(newText))}
	}
	last := newText[strings.LastIndexByte(newText, '\n')+1:]
	return sitter.Point{Row: start.Row + uint32(rows), Column: uint32(len(last))}
}
