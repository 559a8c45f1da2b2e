// Package progress persists learner progress (completed modules and per-module records)
// in a key-value backend that outlives the session.
package progress

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// Storage keys. The values are JSON text.
const (
	KeyCompletedModules = "completedModules"
	KeyUserProgress     = "userProgress"
)

// ErrStorageUnavailable wraps every failure of the durable backend.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Progress is everything that survives a restart.
type Progress struct {
	CompletedModules []int
	UserProgress     UserProgress
}

// UserProgress is the auxiliary per-module record map plus the overall completion percentage.
type UserProgress struct {
	Modules       map[int]ModuleProgress `json:"modules"`
	TotalProgress float64                `json:"totalProgress"`
}

// ModuleProgress records how a module was completed.
type ModuleProgress struct {
	Score             int       `json:"score"`
	Questions         int       `json:"questions"`
	Percentage        int       `json:"percentage"`
	CompletionMinutes float64   `json:"completionMinutes"`
	CompletedAt       time.Time `json:"completedAt"`
}

// Empty returns first-run progress.
func Empty() Progress {
	return Progress{
		CompletedModules: []int{},
		UserProgress: UserProgress{
			Modules: map[int]ModuleProgress{},
		},
	}
}

// Clone returns a deep copy of p.
func (p Progress) Clone() Progress {
	out := Progress{
		CompletedModules: slices.Clone(p.CompletedModules),
		UserProgress: UserProgress{
			Modules:       maps.Clone(p.UserProgress.Modules),
			TotalProgress: p.UserProgress.TotalProgress,
		},
	}
	return out.normalized()
}

func (p Progress) normalized() Progress {
	if p.CompletedModules == nil {
		p.CompletedModules = []int{}
	}
	if p.UserProgress.Modules == nil {
		p.UserProgress.Modules = map[int]ModuleProgress{}
	}
	return p
}
