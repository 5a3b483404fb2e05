package resolver

import (
	"errors"

	"github.com/hongjr03/tinymist/internal/lockdb"
	"github.com/hongjr03/tinymist/internal/project"
	"github.com/hongjr03/tinymist/internal/utils"

	"github.com/tliron/commonlog"
)

// ProjectRouter attributes a file to a project in a lock directory.
type ProjectRouter interface {
	Resolve(path string) (lockdb.ProjectResolution, error)
}

// LockDatabase loads the lock describing a resolved project.
type LockDatabase interface {
	Locate(res lockdb.ProjectResolution) (*lockdb.LockFile, error)
}

// Bridge resolves task inputs for a path. Its collaborators are consulted on
// every call so that configuration and lock changes apply immediately.
type Bridge struct {
	Policy   func() EntryPolicy
	LockMode func() bool
	Router   ProjectRouter
	Locks    LockDatabase

	log commonlog.Logger
}

func NewBridge(policy func() EntryPolicy, lockMode func() bool, router ProjectRouter, locks LockDatabase) *Bridge {
	return &Bridge{
		Policy:   policy,
		LockMode: lockMode,
		Router:   router,
		Locks:    locks,
		log:      commonlog.GetLogger("tinymist.resolver"),
	}
}

// ResolveTaskWithoutLock resolves path through the entry policy alone.
func (b *Bridge) ResolveTaskWithoutLock(path string) project.TaskInputs {
	entry := b.Policy().Resolve(path)
	return project.TaskInputs{Entry: &entry}
}

// ResolveTaskOr resolves path, or builds a detached task when path is empty.
func (b *Bridge) ResolveTaskOr(path string) project.TaskInputs {
	if path == "" {
		return b.ResolveTaskWithoutLock("")
	}
	return b.ResolveTask(path)
}

// ResolveTask resolves path through the lock database when lock mode is on,
// falling back to the entry policy whenever the lock has no answer.
func (b *Bridge) ResolveTask(path string) project.TaskInputs {
	if b.LockMode != nil && b.LockMode() {
		if inputs, ok := b.resolveLocked(path); ok {
			return inputs
		}
	}
	return b.ResolveTaskWithoutLock(path)
}

// DefaultEntry returns the configured default entry path, or "".
func (b *Bridge) DefaultEntry() string {
	return b.Policy().ResolveDefault()
}

func (b *Bridge) resolveLocked(path string) (project.TaskInputs, bool) {
	if b.Router == nil || b.Locks == nil {
		return project.TaskInputs{}, false
	}

	res, err := b.Router.Resolve(path)
	if err != nil {
		b.logMiss(err, "route "+path)
		return project.TaskInputs{}, false
	}
	lock, err := b.Locks.Locate(res)
	if err != nil {
		b.logMiss(err, "locate "+res.LockDir)
		return project.TaskInputs{}, false
	}
	doc, ok := lock.Document(res.ProjectID)
	if !ok {
		b.log.Debugf("project %s is not recorded in %s", res.ProjectID, res.LockDir)
		return project.TaskInputs{}, false
	}

	root := res.LockDir
	if abs, ok := lockdb.ToAbsPath(doc.Root, res.LockDir); doc.Root != "" && ok {
		root = abs
	}
	main := path
	if abs, ok := lockdb.ToAbsPath(doc.Main, res.LockDir); doc.Main != "" && ok {
		main = abs
	}

	entry := b.Policy().ResolveWithRoot(root, main)
	b.log.Infof("resolved task with lock: %s -> %s -> %+v", path, res.ProjectID, entry)
	return project.TaskInputs{Entry: &entry}, true
}

func (b *Bridge) logMiss(err error, msg string) {
	if errors.Is(err, lockdb.ErrResolutionUnavailable) {
		b.log.Debugf("%s: %v", msg, err)
		return
	}
	utils.LogError(b.log, err, msg)
}
