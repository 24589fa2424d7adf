package taskstate

import (
	"fmt"
	"log/slog"

	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/msgworker"
)

// DefaultSampleFrac is the row fraction split queries run over when the
// worker is not configured otherwise.
const DefaultSampleFrac = 0.7

// StateCommon carries what every state shares: the feature store columns
// are written into, and the sampling configuration a Working state is built
// with.
type StateCommon struct {
	Store      *feat.Store
	SampleSeed int64
	SampleFrac float64
}

// L stands for Log
func L(s State) *slog.Logger {
	return slog.With("task-state", s.Name())
}

func LogTransition(from, to State) State {
	L(from).Info("transitioning state", "to-state", to.Name())

	return to
}

func rejectBusy(requested, holding uint64) *msgworker.TaskRejected {
	return &msgworker.TaskRejected{
		TaskID: requested,
		Reason: fmt.Sprintf("busy with task %d", holding),
	}
}

func rejectNoTask(requested uint64) *msgworker.TaskRejected {
	return &msgworker.TaskRejected{
		TaskID: requested,
		Reason: "no task assigned",
	}
}
