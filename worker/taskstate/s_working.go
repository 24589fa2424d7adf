package taskstate

import (
	"github.com/EigenDog/dawg/engine"
	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/msgworker"
)

// Working is the serving state: setup is complete and split queries for the
// held task are answered by the engine. The worker is pinned to its task; a
// query naming any other task id never triggers a switch.
type Working struct {
	*StateCommon

	taskID        uint64
	yFeatureID    uint32
	foldFeatureID *uint32

	engine  engine.Engine
	fmap    *feat.Map
	sampler *feat.Sampler

	// Per-row cross-validation membership; nil when folds are not in use.
	foldMembership []bool
}

func (w *Working) Name() string {
	return "working"
}

func (w *Working) Query(taskID uint64) *msgworker.BestSplitResult {
	if taskID != w.taskID {
		return &msgworker.BestSplitResult{
			Outcome: msgworker.OutcomeBusy,
			TaskID:  w.taskID,
		}
	}

	split, ok := w.engine.BestSplit(w.fmap, w.yFeatureID, w.excludedColumns(), w.queryRows())
	if !ok {
		return &msgworker.BestSplitResult{Outcome: msgworker.OutcomeNotFound}
	}

	return &msgworker.BestSplitResult{
		Outcome: msgworker.OutcomeFound,
		Split:   &split,
	}
}

func (w *Working) excludedColumns() []uint32 {
	if w.foldFeatureID == nil {
		return nil
	}
	return []uint32{*w.foldFeatureID}
}

// queryRows samples the rows a query runs over, restricted to in-fold rows
// when folds are in use.
func (w *Working) queryRows() []int {
	rows := w.sampler.Rows(w.fmap.NumRows())
	if w.foldMembership == nil {
		return rows
	}

	inFold := rows[:0]
	for _, r := range rows {
		if r < len(w.foldMembership) && w.foldMembership[r] {
			inFold = append(inFold, r)
		}
	}
	return inFold
}

func (w *Working) Assign(req *msgworker.AssignTask) (State, msgworker.WorkerMessage) {
	return w, rejectBusy(req.TaskID, w.taskID)
}

func (w *Working) AddFeature(req *msgworker.AddFeature) (State, msgworker.WorkerMessage) {
	return w, rejectBusy(req.TaskID, w.taskID)
}

func (w *Working) Finish(req *msgworker.FinishSetup) (State, msgworker.WorkerMessage) {
	return w, rejectBusy(req.TaskID, w.taskID)
}

func (w *Working) Drop(req *msgworker.DropTask) (State, msgworker.WorkerMessage) {
	if req.TaskID != w.taskID {
		return w, rejectBusy(req.TaskID, w.taskID)
	}

	if err := w.fmap.Close(); err != nil {
		L(w).Warn("error releasing feature map", "err", err)
	}

	return LogTransition(w, NewAvailable(w.StateCommon)), &msgworker.TaskAck{TaskID: req.TaskID}
}
