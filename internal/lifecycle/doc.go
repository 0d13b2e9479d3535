// Package lifecycle holds the pure rules of a task's life: identifier
// generation, status derivation, recurrence expansion and viewer-list
// normalization. Nothing here touches storage; the task service decides
// when each rule runs.
package lifecycle
