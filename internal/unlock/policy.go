// Package unlock decides which modules a learner may open given their completion history.
package unlock

import "slices"

// IsUnlocked reports whether moduleID is accessible. Module 1 is always open;
// any later module opens once its predecessor is completed.
func IsUnlocked(moduleID int, completed []int) bool {
	if moduleID == 1 {
		return true
	}
	return moduleID > 1 && slices.Contains(completed, moduleID-1)
}

// Complete returns completed with moduleID appended if it was absent.
// Existing entries keep their order. The input slice is never modified.
func Complete(moduleID int, completed []int) []int {
	out := slices.Clone(completed)
	if slices.Contains(out, moduleID) {
		return out
	}
	return append(out, moduleID)
}

// IsCompleted reports whether moduleID is in the completed set.
func IsCompleted(moduleID int, completed []int) bool {
	return slices.Contains(completed, moduleID)
}
