package overlay

import (
	"bytes"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
)

// Insert carries the full content of one document after a synchronization
// event. Edits lists the tree-sitter edits that led from the previous
// snapshot to Content; it is empty for freshly opened documents.
type Insert struct {
	Path    string
	Content []byte
	Edits   []sitter.EditInput
}

// ChangeSet is an immutable batch of inserted and removed documents. The zero
// value is an empty change set. Accessors hand out copies.
type ChangeSet struct {
	inserts []Insert
	removes []string
}

// NewInserts builds a change set that inserts the given snapshots.
func NewInserts(inserts ...Insert) ChangeSet {
	cs := ChangeSet{inserts: make([]Insert, len(inserts))}
	for i, in := range inserts {
		cs.inserts[i] = cloneInsert(in)
	}
	return cs
}

// NewRemoves builds a change set that removes the given paths.
func NewRemoves(paths ...string) ChangeSet {
	return ChangeSet{removes: slices.Clone(paths)}
}

func (cs ChangeSet) Inserts() []Insert {
	out := make([]Insert, len(cs.inserts))
	for i, in := range cs.inserts {
		out[i] = cloneInsert(in)
	}
	return out
}

func (cs ChangeSet) Removes() []string {
	return slices.Clone(cs.removes)
}

func (cs ChangeSet) IsEmpty() bool {
	return len(cs.inserts) == 0 && len(cs.removes) == 0
}

// Paths lists every path touched by the change set, inserts first.
func (cs ChangeSet) Paths() []string {
	paths := make([]string, 0, len(cs.inserts)+len(cs.removes))
	for _, in := range cs.inserts {
		paths = append(paths, in.Path)
	}
	return append(paths, cs.removes...)
}

func cloneInsert(in Insert) Insert {
	return Insert{
		Path:    in.Path,
		Content: bytes.Clone(in.Content),
		Edits:   slices.Clone(in.Edits),
	}
}
