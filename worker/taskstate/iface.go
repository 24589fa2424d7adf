// Package taskstate models the worker's task lifecycle as a sum type:
// exactly one of Available, Copying or Working is active at a time, and each
// arm owns its resource handles outright. Transitions construct the next
// state fully before the previous one is released.
//
// This state pattern follows https://refactoring.guru/design-patterns/state/go/example
package taskstate

import (
	"github.com/EigenDog/dawg/types/msgworker"
)

// State is one arm of the task lifecycle.
//
// The reply-returning methods each produce exactly one response; the
// transition methods additionally return the state to continue with, which
// is the receiver itself when nothing changes. Callers are serialized by the
// service loop's fold discipline, so no method needs a lock.
type State interface {
	// Name returns a lower-case name used in logging.
	Name() string

	// Query answers a best-split query. It never mutates the state: any
	// outcome leaves the worker exactly where it was.
	Query(taskID uint64) *msgworker.BestSplitResult

	// Assign starts setup for a new task.
	Assign(req *msgworker.AssignTask) (State, msgworker.WorkerMessage)

	// AddFeature stores one feature column during setup.
	AddFeature(req *msgworker.AddFeature) (State, msgworker.WorkerMessage)

	// Finish completes setup, entering Working once all declared columns
	// have arrived.
	Finish(req *msgworker.FinishSetup) (State, msgworker.WorkerMessage)

	// Drop abandons the current task, releasing its handles.
	Drop(req *msgworker.DropTask) (State, msgworker.WorkerMessage)
}
