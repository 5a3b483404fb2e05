// Package project describes compilation tasks and carries interrupts from the
// state layer to the compile subsystem.
package project

import (
	"github.com/hongjr03/tinymist/internal/overlay"
)

// TaskID identifies a compilation task. The primary task follows the focused
// document.
type TaskID string

const PrimaryTask TaskID = "primary"

// Entry is the resolved compilation entry point of a task.
type Entry struct {
	Root string
	Main string
}

// IsDetached reports whether the entry has no main file. Compiling a detached
// entry produces nothing.
func (e Entry) IsDetached() bool {
	return e.Main == ""
}

// TaskInputs is the set of inputs a task is asked to switch to. A nil Entry
// keeps the task's current entry.
type TaskInputs struct {
	Entry *Entry
}

// Interrupt is a message for the compile subsystem.
type Interrupt interface {
	Kind() string
}

// MemoryInterrupt reports overlay changes.
type MemoryInterrupt struct {
	Changes overlay.ChangeSet
}

func (MemoryInterrupt) Kind() string { return "memory" }

// ChangeTaskInterrupt asks the compile subsystem to retarget a task.
type ChangeTaskInterrupt struct {
	ID     TaskID
	Inputs TaskInputs
}

func (ChangeTaskInterrupt) Kind() string { return "change_task" }

// Compiler is the contract of the compile subsystem as seen from the state
// layer.
type Compiler interface {
	Interrupt(Interrupt)
	RestartPrimary() error
	PrimaryID() TaskID
}
