package reconcile_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hongjr03/tinymist/internal/config"
	"github.com/hongjr03/tinymist/internal/pending"
	"github.com/hongjr03/tinymist/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// recorder implements every collaborator of the reconciler and logs the
// reactions in call order.
type recorder struct {
	mu        sync.Mutex
	events    []string
	restart   error
	capsError error
	export    config.ExportConfig
	formatter config.FormatterConfig
	fontDirs  []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) ChangeConfig(cfg config.ExportConfig) {
	r.export = cfg
	r.add("export")
}

func (r *recorder) RestartPrimary() error {
	r.add("restart")
	return r.restart
}

func (r *recorder) Invalidate(dirs []string, system bool) {
	r.fontDirs = dirs
	r.add("fonts")
}

func (r *recorder) EnableSemanticTokens(enable bool) error {
	if enable {
		r.add("tokens:on")
	} else {
		r.add("tokens:off")
	}
	return r.capsError
}

func (r *recorder) EnableFormatter(enable bool) error {
	if enable {
		r.add("formatter:on")
	} else {
		r.add("formatter:off")
	}
	return r.capsError
}

type formatterRecorder struct{ *recorder }

func (f formatterRecorder) ChangeConfig(cfg config.FormatterConfig) {
	f.formatter = cfg
	f.add("formatter:config")
}

func setupReconciler(t *testing.T) (*reconcile.Reconciler, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := reconcile.New(config.Default(), reconcile.Options{
		Exporter:     rec,
		Compiler:     rec,
		Fonts:        rec,
		Capabilities: rec,
		Formatter:    formatterRecorder{rec},
	})
	return r, rec
}

func TestFormatterOnlyChange(t *testing.T) {
	r, rec := setupReconciler(t)

	require.NoError(t, r.Apply(map[string]any{"formatterMode": "typstyle"}))

	assert.Equal(t, []string{"formatter:on", "formatter:config"}, rec.Events())
	assert.Equal(t, config.FormatterConfig{Mode: "typstyle", PrintWidth: 120}, rec.formatter)
	assert.Equal(t, "typstyle", r.Config().FormatterMode)
}

func TestReactionsRunInOrder(t *testing.T) {
	r, rec := setupReconciler(t)

	require.NoError(t, r.Apply(map[string]any{
		"formatterMode":  "typstfmt",
		"semanticTokens": "disable",
		"fontPaths":      []any{"/fonts"},
		"exportPdf":      "onSave",
	}))

	assert.Equal(t, []string{"export", "fonts", "restart", "tokens:off", "formatter:on", "formatter:config"}, rec.Events())
	assert.Equal(t, config.ExportOnSave, rec.export.Mode)
	assert.Equal(t, []string{"/fonts"}, rec.fontDirs)
}

func TestApplyIsIdempotent(t *testing.T) {
	r, rec := setupReconciler(t)
	values := map[string]any{"exportPdf": "onType", "typstExtraArgs": []any{"--input", "a=b"}}

	require.NoError(t, r.Apply(values))
	first := len(rec.Events())
	require.NotZero(t, first)

	require.NoError(t, r.Apply(values))
	assert.Len(t, rec.Events(), first)
}

func TestInvalidConfigurationRollsBack(t *testing.T) {
	r, rec := setupReconciler(t)
	require.NoError(t, r.Apply(map[string]any{"exportPdf": "onSave"}))
	before := r.Config()
	events := len(rec.Events())

	err := r.Apply(map[string]any{"exportPdf": "onType", "formatterMode": "bogus"})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	assert.Equal(t, before.ExportPDF, r.Config().ExportPDF)
	assert.Equal(t, before.FormatterMode, r.Config().FormatterMode)
	assert.Len(t, rec.Events(), events)
}

func TestReactionFailuresAreLogged(t *testing.T) {
	r, rec := setupReconciler(t)
	rec.restart = errors.New("compiler gone")
	rec.capsError = errors.New("client refused")

	err := r.Apply(map[string]any{"systemFonts": false, "semanticTokens": "disable", "formatterMode": "typstyle"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fonts", "restart", "tokens:off", "formatter:on", "formatter:config"}, rec.Events())
	assert.False(t, r.Config().SystemFonts)
}

func TestSettingsMap(t *testing.T) {
	m, ok := reconcile.SettingsMap(map[string]any{"tinymist": map[string]any{"exportPdf": "onSave"}})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"exportPdf": "onSave"}, m)

	m, ok = reconcile.SettingsMap(map[string]any{"exportPdf": "onSave"})
	require.True(t, ok)
	assert.Equal(t, "onSave", m["exportPdf"])

	for _, settings := range []any{nil, "x", map[string]any{}} {
		_, ok = reconcile.SettingsMap(settings)
		assert.False(t, ok)
	}
}

func TestOnDidChangeConfiguration(t *testing.T) {
	r, _ := setupReconciler(t)

	handled, err := r.OnDidChangeConfiguration(map[string]any{"tinymist": map[string]any{"exportPdf": "onSave"}})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, config.ExportOnSave, r.Config().ExportPDF)

	handled, err = r.OnDidChangeConfiguration(nil)
	require.NoError(t, err)
	assert.False(t, handled)
}

func pulledValues(overrides map[string]any) []any {
	values := make([]any, len(config.Keys))
	for i, key := range config.Keys {
		values[i] = overrides[key]
	}
	return values
}

func TestRequestConfiguration(t *testing.T) {
	table := pending.NewTable()
	rec := &recorder{}
	r := reconcile.New(config.Default(), reconcile.Options{
		Exporter:     rec,
		Compiler:     rec,
		Fonts:        rec,
		Capabilities: rec,
		Formatter:    formatterRecorder{rec},
		Pending:      table,
	})

	var gotMethod string
	var gotItems int
	call := func(method string, params any, result any) {
		gotMethod = method
		gotItems = len(params.(protocol.ConfigurationParams).Items)
		data, _ := json.Marshal(pulledValues(map[string]any{"exportPdf": "onSave"}))
		*result.(*json.RawMessage) = data
	}

	var mu sync.Mutex
	r.RequestConfiguration(call, &mu)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return r.Config().ExportPDF == config.ExportOnSave
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "workspace/configuration", gotMethod)
	assert.Equal(t, len(config.Keys), gotItems)
	assert.Zero(t, table.Len())
}

func TestCompleteRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name string
		resp pending.Response
	}{
		{"client error", pending.Response{Err: errors.New("timeout")}},
		{"malformed", pending.Response{Result: json.RawMessage(`{"exportPdf":"onSave"}`)}},
		{"null", pending.Response{Result: json.RawMessage(`null`)}},
		{"wrong length", pending.Response{Result: json.RawMessage(`["onSave"]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := setupReconciler(t)
			assert.Error(t, r.Complete(tt.resp))
			assert.Empty(t, rec.Events())
			assert.Equal(t, config.ExportNever, r.Config().ExportPDF)
		})
	}
}

func TestCompleteResetsNulls(t *testing.T) {
	r, _ := setupReconciler(t)
	require.NoError(t, r.Apply(map[string]any{"exportPdf": "onSave"}))

	data, err := json.Marshal(pulledValues(nil))
	require.NoError(t, err)
	require.NoError(t, r.Complete(pending.Response{Result: data}))
	assert.Equal(t, config.ExportNever, r.Config().ExportPDF)
}
