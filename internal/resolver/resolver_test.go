package resolver_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hongjr03/tinymist/internal/lockdb"
	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	res   lockdb.ProjectResolution
	err   error
	calls int
}

func (r *fakeRouter) Resolve(string) (lockdb.ProjectResolution, error) {
	r.calls++
	return r.res, r.err
}

type fakeLocks struct {
	lock *lockdb.LockFile
	err  error
}

func (l *fakeLocks) Locate(lockdb.ProjectResolution) (*lockdb.LockFile, error) {
	return l.lock, l.err
}

func setupBridge(t *testing.T, policy resolver.Policy, lockMode bool, router *fakeRouter, locks *fakeLocks) *resolver.Bridge {
	t.Helper()
	return resolver.NewBridge(
		func() resolver.EntryPolicy { return policy },
		func() bool { return lockMode },
		router,
		locks,
	)
}

func TestPolicyResolve(t *testing.T) {
	tests := []struct {
		name   string
		policy resolver.Policy
		path   string
		want   project.Entry
	}{
		{
			name:   "explicit root",
			policy: resolver.Policy{Root: "/proj", Roots: []string{"/ws"}},
			path:   "/ws/a.typ",
			want:   project.Entry{Root: "/proj", Main: "/ws/a.typ"},
		},
		{
			name:   "innermost workspace root",
			policy: resolver.Policy{Roots: []string{"/ws", "/ws/book"}},
			path:   "/ws/book/ch1.typ",
			want:   project.Entry{Root: "/ws/book", Main: "/ws/book/ch1.typ"},
		},
		{
			name:   "sibling prefix is not a parent",
			policy: resolver.Policy{Roots: []string{"/ws/book"}},
			path:   "/ws/bookish/a.typ",
			want:   project.Entry{Root: "/ws/bookish", Main: "/ws/bookish/a.typ"},
		},
		{
			name:   "file directory",
			policy: resolver.Policy{},
			path:   "/home/u/doc/a.typ",
			want:   project.Entry{Root: "/home/u/doc", Main: "/home/u/doc/a.typ"},
		},
		{
			name:   "untitled without workspace",
			policy: resolver.Policy{},
			path:   "/untitled/Untitled-1",
			want:   project.Entry{Root: "/untitled", Main: "/untitled/Untitled-1"},
		},
		{
			name:   "untitled with workspace",
			policy: resolver.Policy{Roots: []string{"/ws"}},
			path:   "/untitled/Untitled-1",
			want:   project.Entry{Root: "/ws", Main: "/untitled/Untitled-1"},
		},
		{
			name:   "detached",
			policy: resolver.Policy{Roots: []string{"/ws"}},
			path:   "",
			want:   project.Entry{Root: "/ws"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Resolve(tt.path))
		})
	}
}

func TestPolicyResolveDefault(t *testing.T) {
	assert.Equal(t, "", resolver.Policy{Root: "/proj"}.ResolveDefault())
	assert.Equal(t, "/proj/main.typ", resolver.Policy{Root: "/proj", Entry: "main.typ"}.ResolveDefault())
	assert.Equal(t, "/ws/main.typ", resolver.Policy{Roots: []string{"/ws"}, Entry: "main.typ"}.ResolveDefault())
	assert.Equal(t, "/abs/main.typ", resolver.Policy{Entry: "/abs/main.typ"}.ResolveDefault())
	assert.Equal(t, "", resolver.Policy{Entry: "main.typ"}.ResolveDefault())
}

func TestResolveTaskThroughLock(t *testing.T) {
	router := &fakeRouter{res: lockdb.ProjectResolution{LockDir: "/proj", ProjectID: "p1"}}
	locks := &fakeLocks{lock: &lockdb.LockFile{
		Documents: []lockdb.DocumentRecord{{ID: "p1", Main: "file:main.typ"}},
	}}
	b := setupBridge(t, resolver.Policy{}, true, router, locks)

	inputs := b.ResolveTask("/proj/chapters/intro.typ")
	require.NotNil(t, inputs.Entry)
	assert.Equal(t, project.Entry{Root: "/proj", Main: "/proj/main.typ"}, *inputs.Entry)
}

func TestResolveTaskUsesRecordedRoot(t *testing.T) {
	router := &fakeRouter{res: lockdb.ProjectResolution{LockDir: "/proj", ProjectID: "p1"}}
	locks := &fakeLocks{lock: &lockdb.LockFile{
		Documents: []lockdb.DocumentRecord{{ID: "p1", Root: "file:src"}},
	}}
	b := setupBridge(t, resolver.Policy{}, true, router, locks)

	inputs := b.ResolveTask("/proj/src/a.typ")
	assert.Equal(t, project.Entry{Root: "/proj/src", Main: "/proj/src/a.typ"}, *inputs.Entry)
}

func TestResolveTaskFallsBack(t *testing.T) {
	policy := resolver.Policy{Roots: []string{"/ws"}}
	want := project.Entry{Root: "/ws", Main: "/ws/a.typ"}

	tests := []struct {
		name   string
		router *fakeRouter
		locks  *fakeLocks
	}{
		{
			name:   "no route",
			router: &fakeRouter{err: lockdb.ErrResolutionUnavailable},
			locks:  &fakeLocks{},
		},
		{
			name:   "broken lock",
			router: &fakeRouter{res: lockdb.ProjectResolution{LockDir: "/ws", ProjectID: "p1"}},
			locks:  &fakeLocks{err: errors.New("disk on fire")},
		},
		{
			name:   "missing record",
			router: &fakeRouter{res: lockdb.ProjectResolution{LockDir: "/ws", ProjectID: "p1"}},
			locks:  &fakeLocks{lock: &lockdb.LockFile{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBridge(t, policy, true, tt.router, tt.locks)
			inputs := b.ResolveTask("/ws/a.typ")
			assert.Equal(t, want, *inputs.Entry)
		})
	}
}

func TestResolveTaskSkipsLockWhenDisabled(t *testing.T) {
	router := &fakeRouter{res: lockdb.ProjectResolution{LockDir: "/proj", ProjectID: "p1"}}
	b := setupBridge(t, resolver.Policy{}, false, router, &fakeLocks{})

	inputs := b.ResolveTask("/proj/a.typ")
	assert.Equal(t, project.Entry{Root: "/proj", Main: "/proj/a.typ"}, *inputs.Entry)
	assert.Zero(t, router.calls)
}

func TestResolveTaskOrEmptyPath(t *testing.T) {
	router := &fakeRouter{}
	b := setupBridge(t, resolver.Policy{Root: "/proj"}, true, router, &fakeLocks{})

	inputs := b.ResolveTaskOr("")
	assert.Equal(t, project.Entry{Root: "/proj"}, *inputs.Entry)
	assert.Zero(t, router.calls)
}

func TestBridgeReadsPolicyPerCall(t *testing.T) {
	policy := resolver.Policy{Entry: "a.typ", Root: "/one"}
	b := resolver.NewBridge(func() resolver.EntryPolicy { return policy }, nil, nil, nil)

	assert.Equal(t, "/one/a.typ", b.DefaultEntry())
	policy.Root = "/two"
	assert.Equal(t, "/two/a.typ", b.DefaultEntry())
}

func TestResolveTaskWithLockDatabase(t *testing.T) {
	dir := t.TempDir()
	lock := `[[document]]
id = "file:main.typ"
main = "file:main.typ"

[[route]]
input = "file:intro.typ"
project = "file:main.typ"
priority = 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockdb.LockFileName), []byte(lock), 0644))

	db := lockdb.NewDatabase()
	b := resolver.NewBridge(
		func() resolver.EntryPolicy { return resolver.Policy{} },
		func() bool { return true },
		db, db,
	)

	inputs := b.ResolveTask(filepath.Join(dir, "intro.typ"))
	assert.Equal(t, project.Entry{Root: dir, Main: filepath.Join(dir, "main.typ")}, *inputs.Entry)
}
