package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/pending"
	"github.com/hongjr03/tinymist/internal/utils"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CallFunc issues a request to the client and decodes its result into
// result. It matches glsp.CallFunc.
type CallFunc func(method string, params any, result any)

var errNoResult = errors.New("client returned no configuration")

// SettingsMap extracts a settings object from a didChangeConfiguration
// payload. Settings nested under the "tinymist" section are unwrapped.
func SettingsMap(settings any) (map[string]any, bool) {
	m, ok := settings.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	if nested, ok := m[config.Section].(map[string]any); ok {
		return nested, true
	}
	return m, true
}

// OnDidChangeConfiguration applies pushed settings. It reports false when the
// payload carries no settings and they have to be pulled instead.
func (r *Reconciler) OnDidChangeConfiguration(settings any) (bool, error) {
	values, ok := SettingsMap(settings)
	if !ok {
		return false, nil
	}
	return true, r.Apply(values)
}

// RequestConfiguration asks the client for the current settings. The request
// is sent from a new goroutine; its response is applied while holding
// exclusive. It returns the id of the pending request.
func (r *Reconciler) RequestConfiguration(call CallFunc, exclusive sync.Locker) string {
	id := r.opts.Pending.Register(string(protocol.ServerWorkspaceConfiguration), func(resp pending.Response) {
		exclusive.Lock()
		defer exclusive.Unlock()
		utils.LogError(r.log, r.Complete(resp), "could not apply pulled configuration")
	})

	go func() {
		var result json.RawMessage
		call(protocol.ServerWorkspaceConfiguration, protocol.ConfigurationParams{Items: config.Items()}, &result)

		var err error
		if len(result) == 0 {
			err = errNoResult
		}
		r.opts.Pending.Resolve(id, pending.Response{Result: result, Err: err})
	}()
	return id
}

// Complete applies a workspace/configuration response.
func (r *Reconciler) Complete(resp pending.Response) error {
	if resp.Err != nil {
		return fmt.Errorf("workspace/configuration failed: %w", resp.Err)
	}

	var values []any
	if err := json.Unmarshal(resp.Result, &values); err != nil {
		return fmt.Errorf("%w: malformed workspace/configuration result: %w", config.ErrInvalidConfiguration, err)
	}
	if values == nil {
		return errNoResult
	}

	m, err := config.ValuesToMap(values)
	if err != nil {
		return err
	}
	return r.Apply(m)
}
