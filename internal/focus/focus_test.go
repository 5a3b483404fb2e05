package focus_test

import (
	"testing"

	"github.com/hongjr03/tinymist/internal/focus"
	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	changes []project.ChangeTaskInterrupt
}

func (s *recordingSender) ChangeTask(id project.TaskID, inputs project.TaskInputs) {
	s.changes = append(s.changes, project.ChangeTaskInterrupt{ID: id, Inputs: inputs})
}

func (s *recordingSender) mains() []string {
	mains := make([]string, 0, len(s.changes))
	for _, c := range s.changes {
		mains = append(mains, c.Inputs.Entry.Main)
	}
	return mains
}

type testEnv struct {
	machine *focus.Machine
	sender  *recordingSender
	policy  *resolver.Policy
}

func setupMachine(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{sender: &recordingSender{}, policy: &resolver.Policy{Roots: []string{"/ws"}}}
	bridge := resolver.NewBridge(
		func() resolver.EntryPolicy { return *env.policy },
		func() bool { return false },
		nil, nil,
	)
	env.machine = focus.New(focus.Options{
		Resolver:        bridge,
		Sender:          env.sender,
		HasDefaultEntry: func() bool { return env.policy.Entry != "" },
	})
	return env
}

func constPath(path string) func() string {
	return func() string { return path }
}

func TestChangeMainFile(t *testing.T) {
	env := setupMachine(t)

	ok, err := env.machine.ChangeMainFile("/ws/a.typ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.machine.ChangeMainFile("/untitled/Untitled-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.machine.ChangeMainFile("")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, env.sender.changes, 3)
	assert.Equal(t, project.PrimaryTask, env.sender.changes[0].ID)
	assert.Equal(t, []string{"/ws/a.typ", "/untitled/Untitled-1", ""}, env.sender.mains())
	assert.Equal(t, "/ws", env.sender.changes[2].Inputs.Entry.Root)
}

func TestChangeMainFileRejectsRelative(t *testing.T) {
	env := setupMachine(t)

	ok, err := env.machine.ChangeMainFile("docs/a.typ")
	assert.ErrorIs(t, err, focus.ErrInvalidEntryPath)
	assert.False(t, ok)
	assert.Empty(t, env.sender.changes)
}

func TestFocusIsNoopWhilePinned(t *testing.T) {
	env := setupMachine(t)

	require.NoError(t, env.machine.Pin("/ws/a.typ"))
	ok, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"/ws/a.typ"}, env.sender.mains())
	state := env.machine.State()
	assert.True(t, state.Pinning)
	assert.Equal(t, "/ws/b.typ", state.Focusing)
}

func TestUnpinFallsBackToFocused(t *testing.T) {
	env := setupMachine(t)

	require.NoError(t, env.machine.Pin("/ws/a.typ"))
	_, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	require.NoError(t, env.machine.Pin(""))

	assert.False(t, env.machine.State().Pinning)
	assert.Equal(t, []string{"/ws/a.typ", "/ws/b.typ"}, env.sender.mains())
}

func TestUnpinPrefersDefaultEntry(t *testing.T) {
	env := setupMachine(t)

	require.NoError(t, env.machine.Pin("/ws/a.typ"))
	_, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	env.policy.Entry = "main.typ"
	require.NoError(t, env.machine.Pin(""))

	assert.Equal(t, []string{"/ws/a.typ", "/ws/main.typ"}, env.sender.mains())
}

func TestFocusIsNoopWithDefaultEntry(t *testing.T) {
	env := setupMachine(t)
	env.policy.Entry = "main.typ"

	ok, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, env.sender.changes)
}

func TestActivityBeatsLaterOpen(t *testing.T) {
	env := setupMachine(t)

	env.machine.ImplicitFocus(constPath("/ws/a.typ"), focus.SiteOpen)
	env.machine.ImplicitFocus(constPath("/ws/b.typ"), focus.SiteHover)

	opened := false
	env.machine.ImplicitFocus(func() string {
		opened = true
		return "/ws/c.typ"
	}, focus.SiteOpen)

	assert.False(t, opened)
	assert.Equal(t, []string{"/ws/a.typ", "/ws/b.typ"}, env.sender.mains())
	assert.True(t, env.machine.State().EverFocusingByActivities)
}

func TestReadOnlySitesKeepFocusing(t *testing.T) {
	env := setupMachine(t)

	for _, site := range []focus.Site{focus.SiteFoldingRange, focus.SiteSemanticTokens, focus.SiteHover} {
		assert.True(t, site.ReadOnly())
		env.machine.ImplicitFocus(constPath("/ws/"+site.String()+".typ"), site)
	}
	assert.False(t, focus.SiteOpen.ReadOnly())

	assert.Equal(t, []string{
		"/ws/folding_range.typ",
		"/ws/semantic_tokens.typ",
		"/ws/hover.typ",
	}, env.sender.mains())
}

func TestManualFocusDisablesImplicitFocus(t *testing.T) {
	env := setupMachine(t)

	ok, err := env.machine.ManualFocus("/ws/a.typ")
	require.NoError(t, err)
	assert.True(t, ok)

	env.machine.ImplicitFocus(constPath("/ws/b.typ"), focus.SiteHover)
	env.machine.ImplicitFocus(constPath("/ws/c.typ"), focus.SiteOpen)

	assert.Equal(t, []string{"/ws/a.typ"}, env.sender.mains())
	assert.True(t, env.machine.State().EverManualFocusing)
}

func TestManualPin(t *testing.T) {
	env := setupMachine(t)

	require.NoError(t, env.machine.ManualPin("/ws/a.typ"))
	env.machine.ImplicitFocus(constPath("/ws/b.typ"), focus.SiteHover)

	state := env.machine.State()
	assert.True(t, state.EverManualFocusing)
	assert.True(t, state.Pinning)
	assert.Equal(t, []string{"/ws/a.typ"}, env.sender.mains())
}

func TestImplicitFocusLogsInvalidPath(t *testing.T) {
	env := setupMachine(t)

	assert.NotPanics(t, func() {
		env.machine.ImplicitFocus(constPath("relative.typ"), focus.SiteOpen)
	})
	assert.Empty(t, env.sender.changes)
}

func TestRejectedPinKeepsState(t *testing.T) {
	env := setupMachine(t)

	err := env.machine.ManualPin("docs/a.typ")
	assert.ErrorIs(t, err, focus.ErrInvalidEntryPath)
	assert.Equal(t, focus.State{}, env.machine.State())

	ok, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"/ws/b.typ"}, env.sender.mains())
}

func TestRejectedFocusKeepsState(t *testing.T) {
	env := setupMachine(t)
	require.NoError(t, env.machine.Pin("/ws/a.typ"))
	_, err := env.machine.Focus("/ws/b.typ")
	require.NoError(t, err)
	before := env.machine.State()

	ok, err := env.machine.ManualFocus("b.typ")
	assert.ErrorIs(t, err, focus.ErrInvalidEntryPath)
	assert.False(t, ok)
	assert.Equal(t, before, env.machine.State())

	// the remembered document is still a valid fallback
	require.NoError(t, env.machine.Pin(""))
	assert.Equal(t, []string{"/ws/a.typ", "/ws/b.typ"}, env.sender.mains())
}
