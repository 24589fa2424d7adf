package taskstate

import (
	"fmt"

	"github.com/EigenDog/dawg/types/msgworker"
)

// Available is the resting state: no task assigned, no handles held.
type Available struct {
	*StateCommon
}

func NewAvailable(sc *StateCommon) *Available {
	return &Available{StateCommon: sc}
}

func (a *Available) Name() string {
	return "available"
}

func (a *Available) Query(taskID uint64) *msgworker.BestSplitResult {
	return &msgworker.BestSplitResult{Outcome: msgworker.OutcomeNotReady}
}

func (a *Available) Assign(req *msgworker.AssignTask) (State, msgworker.WorkerMessage) {
	if !req.Loss.Valid() {
		return a, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("unknown loss %q", req.Loss),
		}
	}

	// A negative row count can never be matched by any column.
	if req.NumRows < 0 {
		return a, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("invalid row count %d", req.NumRows),
		}
	}

	fmap, err := a.Store.CreateMap(req.TaskID)
	if err != nil {
		L(a).Error("could not create feature map", "task", req.TaskID, "err", err)
		return a, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: "feature store failure",
		}
	}

	next := &Copying{
		StateCommon:   a.StateCommon,
		taskID:        req.TaskID,
		yFeatureID:    req.YFeatureID,
		foldFeatureID: req.FoldFeatureID,
		loss:          req.Loss,
		numRows:       req.NumRows,
		fmap:          fmap,
	}

	return LogTransition(a, next), &msgworker.TaskAck{TaskID: req.TaskID}
}

func (a *Available) AddFeature(req *msgworker.AddFeature) (State, msgworker.WorkerMessage) {
	return a, rejectNoTask(req.TaskID)
}

func (a *Available) Finish(req *msgworker.FinishSetup) (State, msgworker.WorkerMessage) {
	return a, rejectNoTask(req.TaskID)
}

func (a *Available) Drop(req *msgworker.DropTask) (State, msgworker.WorkerMessage) {
	return a, rejectNoTask(req.TaskID)
}
