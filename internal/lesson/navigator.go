// Package lesson tracks the learner's position within a module's ordered steps.
package lesson

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/unlock"
)

var (
	// ErrModuleLocked is returned when the unlock policy denies access to a module.
	ErrModuleLocked = errors.New("module locked: complete the previous module first")
	// ErrInvalidStepIndex is returned for a jump outside the module's steps.
	ErrInvalidStepIndex = errors.New("invalid step index")
	// ErrNoActiveModule is returned when navigating before a module was started.
	ErrNoActiveModule = errors.New("no module started")
)

// Outcome says where a Next call left the learner.
type Outcome int

const (
	// Stayed means the navigator moved to the following step.
	Stayed Outcome = iota
	// EnterQuiz means Next was called on the last step and the quiz takes over.
	EnterQuiz
)

// Navigator is the step pointer for the active module. The zero value has no module.
type Navigator struct {
	moduleID int
	step     int
	last     int
	active   bool
}

// Start opens module m at step 0, or fails with ErrModuleLocked.
// A failed start leaves the navigator unchanged.
func (n *Navigator) Start(m catalog.Module, completed []int) error {
	if !unlock.IsUnlocked(m.ID, completed) {
		return fmt.Errorf("%w: module %d", ErrModuleLocked, m.ID)
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("module %d has no steps", m.ID)
	}
	*n = Navigator{
		moduleID: m.ID,
		step:     0,
		last:     m.LastStep(),
		active:   true,
	}
	return nil
}

// Next moves forward one step. On the last step it returns EnterQuiz and leaves
// the pointer where it is.
func (n *Navigator) Next() (Outcome, error) {
	if !n.active {
		return Stayed, ErrNoActiveModule
	}
	if n.step < n.last {
		n.step++
		return Stayed, nil
	}
	return EnterQuiz, nil
}

// Previous moves back one step. At step 0 it does nothing.
func (n *Navigator) Previous() error {
	if !n.active {
		return ErrNoActiveModule
	}
	if n.step > 0 {
		n.step--
	}
	return nil
}

// JumpTo moves directly to index. Out-of-range indexes are rejected and ignored.
func (n *Navigator) JumpTo(index int) error {
	if !n.active {
		return ErrNoActiveModule
	}
	if index < 0 || index > n.last {
		return fmt.Errorf("%w: %d (module has %d steps)", ErrInvalidStepIndex, index, n.last+1)
	}
	n.step = index
	return nil
}

// Reset returns the navigator to its zero state.
func (n *Navigator) Reset() {
	*n = Navigator{}
}

// ModuleID returns the active module, or 0.
func (n *Navigator) ModuleID() int { return n.moduleID }

// Step returns the current step index.
func (n *Navigator) Step() int { return n.step }

// Total returns the number of steps in the active module.
func (n *Navigator) Total() int {
	if !n.active {
		return 0
	}
	return n.last + 1
}

// Active reports whether a module has been started.
func (n *Navigator) Active() bool { return n.active }

// OnLastStep reports whether the pointer is on the module's final step.
func (n *Navigator) OnLastStep() bool { return n.active && n.step == n.last }
