// Package pending correlates requests the server sends to the client with
// their responses.
package pending

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Response is the outcome of a client request.
type Response struct {
	Result json.RawMessage
	Err    error
}

// Callback consumes a response.
type Callback func(Response)

type entry struct {
	method   string
	callback Callback
}

// Table holds the continuations of in-flight requests. Entries live until
// their response arrives.
type Table struct {
	mu      sync.Mutex
	entries map[string]entry
	log     commonlog.Logger
}

func NewTable() *Table {
	return &Table{entries: make(map[string]entry), log: commonlog.GetLogger("tinymist.pending")}
}

// Register stores cb for a new request to method and returns its id.
func (t *Table) Register(method string, cb Callback) string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = entry{method: method, callback: cb}
	t.log.Debugf("%s request %s pending", method, id)
	return id
}

// Resolve runs the continuation registered under id with resp. It reports
// false when id is unknown or was already resolved.
func (t *Table) Resolve(id string, resp Response) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()

	if !ok {
		t.log.Warningf("response to unknown request %s", id)
		return false
	}
	t.log.Debugf("%s request %s answered", e.method, id)
	e.callback(resp)
	return true
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
