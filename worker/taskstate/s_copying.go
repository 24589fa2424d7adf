package taskstate

import (
	"fmt"

	"github.com/EigenDog/dawg/engine"
	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/msgworker"
)

// Copying is the setup state: the worker is receiving the feature data
// required for its task. Queries are answered busy unconditionally; setup in
// progress counts as busy no matter which task id is asked about.
type Copying struct {
	*StateCommon

	taskID        uint64
	yFeatureID    uint32
	foldFeatureID *uint32
	loss          msgworker.Loss

	// Row count every column must have. 0 until the assignment declares it
	// or the first stored column pins it.
	numRows int

	fmap *feat.Map
}

func (c *Copying) Name() string {
	return "copying"
}

func (c *Copying) Query(uint64) *msgworker.BestSplitResult {
	return &msgworker.BestSplitResult{
		Outcome: msgworker.OutcomeBusy,
		TaskID:  c.taskID,
	}
}

func (c *Copying) Assign(req *msgworker.AssignTask) (State, msgworker.WorkerMessage) {
	return c, rejectBusy(req.TaskID, c.taskID)
}

func (c *Copying) AddFeature(req *msgworker.AddFeature) (State, msgworker.WorkerMessage) {
	if req.TaskID != c.taskID {
		return c, rejectBusy(req.TaskID, c.taskID)
	}

	vals := req.Values()
	if len(vals) == 0 {
		return c, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("column %d is empty", req.FeatureID),
		}
	}

	// Every column must share one row count; an assignment that left it
	// undeclared gets it pinned by the first column that arrives.
	if c.numRows == 0 {
		c.numRows = len(vals)
	} else if len(vals) != c.numRows {
		return c, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("column %d has %d rows, task expects %d", req.FeatureID, len(vals), c.numRows),
		}
	}

	if err := c.fmap.Put(req.FeatureID, vals); err != nil {
		L(c).Error("could not store column", "feature", req.FeatureID, "err", err)
		return c, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("could not store feature %d", req.FeatureID),
		}
	}

	return c, &msgworker.TaskAck{TaskID: req.TaskID}
}

// Finish enters Working, but only once every column the assignment declared
// has arrived; an early finish leaves the worker Copying.
func (c *Copying) Finish(req *msgworker.FinishSetup) (State, msgworker.WorkerMessage) {
	if req.TaskID != c.taskID {
		return c, rejectBusy(req.TaskID, c.taskID)
	}

	if !c.fmap.Has(c.yFeatureID) {
		return c, &msgworker.TaskRejected{
			TaskID: req.TaskID,
			Reason: fmt.Sprintf("target column %d has not arrived", c.yFeatureID),
		}
	}

	var foldMembership []bool
	if c.foldFeatureID != nil {
		foldCol, ok := c.fmap.Get(*c.foldFeatureID)
		if !ok {
			return c, &msgworker.TaskRejected{
				TaskID: req.TaskID,
				Reason: fmt.Sprintf("fold column %d has not arrived", *c.foldFeatureID),
			}
		}
		foldMembership = feat.FoldMembership(foldCol)
	}

	next := &Working{
		StateCommon:    c.StateCommon,
		taskID:         c.taskID,
		yFeatureID:     c.yFeatureID,
		foldFeatureID:  c.foldFeatureID,
		engine:         engine.ForLoss(c.loss),
		fmap:           c.fmap,
		sampler:        feat.NewSampler(c.SampleSeed, c.SampleFrac),
		foldMembership: foldMembership,
	}

	return LogTransition(c, next), &msgworker.TaskAck{TaskID: req.TaskID}
}

func (c *Copying) Drop(req *msgworker.DropTask) (State, msgworker.WorkerMessage) {
	if req.TaskID != c.taskID {
		return c, rejectBusy(req.TaskID, c.taskID)
	}

	if err := c.fmap.Close(); err != nil {
		L(c).Warn("error releasing feature map", "err", err)
	}

	return LogTransition(c, NewAvailable(c.StateCommon)), &msgworker.TaskAck{TaskID: req.TaskID}
}
