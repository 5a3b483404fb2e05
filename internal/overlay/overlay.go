// Package overlay keeps the in-memory contents of every document the client
// has opened. Each synchronization event yields one ChangeSet describing the
// resulting snapshots.
package overlay

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hongjr03/tinymist/internal/position"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	ErrNotOpen       = errors.New("document is not open")
	ErrDuplicateOpen = errors.New("document is already open")
	ErrInvalidRange  = errors.New("invalid change range")
)

// Change is one content change reported by the client. A nil Range replaces
// the whole document.
type Change struct {
	Range *protocol.Range
	Text  string
}

// Document is the overlay's record of one open file.
type Document struct {
	Path    string
	Text    string
	Version int32
}

type document struct {
	text    string
	version int32
}

// Overlay maps paths to the text the client holds for them.
type Overlay struct {
	mu   sync.RWMutex
	docs map[string]*document
	log  commonlog.Logger
}

func New() *Overlay {
	return &Overlay{
		docs: make(map[string]*document),
		log:  commonlog.GetLogger("tinymist.overlay"),
	}
}

// Open starts tracking path with the given text.
func (o *Overlay) Open(path, text string, version int32) (ChangeSet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.docs[path]; ok {
		return ChangeSet{}, fmt.Errorf("%w: %s", ErrDuplicateOpen, path)
	}
	o.docs[path] = &document{text: text, version: version}
	o.log.Debugf("opened %s (version %d, %d bytes)", path, version, len(text))

	return NewInserts(Insert{Path: path, Content: []byte(text)}), nil
}

// Close stops tracking path.
func (o *Overlay) Close(path string) (ChangeSet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.docs[path]; !ok {
		return ChangeSet{}, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	delete(o.docs, path)
	o.log.Debugf("closed %s", path)

	return NewRemoves(path), nil
}

// Edit applies changes in order, each against the result of the previous one.
// Either every change applies or the document is left untouched.
func (o *Overlay) Edit(path string, changes []Change, enc position.Encoding, version int32) (ChangeSet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	doc, ok := o.docs[path]
	if !ok {
		return ChangeSet{}, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}

	text := doc.text
	edits := make([]sitter.EditInput, 0, len(changes))
	for i, change := range changes {
		start, end := 0, len(text)
		if change.Range != nil {
			var err error
			start, end, err = position.ToRange(text, *change.Range, enc)
			if err != nil {
				return ChangeSet{}, fmt.Errorf("%w: change %d of %s: %w", ErrInvalidRange, i, path, err)
			}
		}
		edits = append(edits, position.EditFor(text, start, end, change.Text))
		text = text[:start] + change.Text + text[end:]
	}

	doc.text = text
	doc.version = version

	return NewInserts(Insert{Path: path, Content: []byte(text), Edits: edits}), nil
}

// Read returns the current text of path.
func (o *Overlay) Read(path string) (string, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	doc, ok := o.docs[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	return doc.text, nil
}

// Snapshot returns a copy of the record held for path.
func (o *Overlay) Snapshot(path string) (Document, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	doc, ok := o.docs[path]
	if !ok {
		return Document{}, false
	}
	return Document{Path: path, Text: doc.text, Version: doc.version}, true
}

// Query runs fn over the current text of path while holding a read lock.
func Query[T any](o *Overlay, path string, fn func(text string) (T, error)) (T, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	doc, ok := o.docs[path]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	return fn(doc.text)
}

// Paths lists the open documents in lexical order.
func (o *Overlay) Paths() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	paths := make([]string, 0, len(o.docs))
	for path := range o.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.docs)
}

// Contains reports whether path is open.
func (o *Overlay) Contains(path string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.docs[path]
	return ok
}
