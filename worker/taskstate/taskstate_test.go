package taskstate

import (
	"testing"

	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/msgworker"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func newCommon(t *testing.T) *StateCommon {
	t.Helper()

	store, err := feat.OpenStore(t.TempDir())
	assert.NoError(t, err)

	return &StateCommon{
		Store:      store,
		SampleSeed: 1,
		SampleFrac: 1,
	}
}

// setupCopying drives Available through Assign for taskID.
func setupCopying(t *testing.T, sc *StateCommon, taskID uint64) State {
	t.Helper()

	s, resp := NewAvailable(sc).Assign(&msgworker.AssignTask{
		TaskID:     taskID,
		YFeatureID: 0,
		Loss:       msgworker.LossSquared,
		NumRows:    6,
	})
	assert.IsType(t, &msgworker.TaskAck{}, resp)
	assert.IsType(t, &Copying{}, s)

	return s
}

// setupWorking drives the full setup: target column 0, one informative
// feature column 1.
func setupWorking(t *testing.T, sc *StateCommon, taskID uint64, y []float64) State {
	t.Helper()

	s := setupCopying(t, sc, taskID)

	add := &msgworker.AddFeature{TaskID: taskID, FeatureID: 0}
	add.SetValues(y)
	s, resp := s.AddFeature(add)
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	add = &msgworker.AddFeature{TaskID: taskID, FeatureID: 1}
	add.SetValues([]float64{1, 2, 3, 4, 5, 6})
	s, resp = s.AddFeature(add)
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	s, resp = s.Finish(&msgworker.FinishSetup{TaskID: taskID})
	assert.IsType(t, &msgworker.TaskAck{}, resp)
	assert.IsType(t, &Working{}, s)

	return s
}

func TestAvailableQueryNotReady(t *testing.T) {
	// Scenario: fresh worker receives QueryBestSplit(42).
	s := NewAvailable(newCommon(t))

	res := s.Query(42)
	assert.Equal(t, msgworker.OutcomeNotReady, res.Outcome)
	assert.Nil(t, res.Split)
}

func TestCopyingQueryAlwaysBusy(t *testing.T) {
	s := setupCopying(t, newCommon(t), 7)

	// Even the task being set up counts as busy.
	for _, q := range []uint64{7, 8, 0} {
		res := s.Query(q)
		assert.Equal(t, msgworker.OutcomeBusy, res.Outcome)
		assert.Equal(t, uint64(7), res.TaskID)
	}
}

func TestWorkingQueryMatchingTask(t *testing.T) {
	s := setupWorking(t, newCommon(t), 7, []float64{10, 10, 10, 20, 20, 20})

	res := s.Query(7)
	assert.Equal(t, msgworker.OutcomeFound, res.Outcome)
	assert.NotNil(t, res.Split)
	assert.Equal(t, uint32(1), res.Split.FeatureID)
}

func TestWorkingQueryNoImprovingSplit(t *testing.T) {
	s := setupWorking(t, newCommon(t), 7, []float64{5, 5, 5, 5, 5, 5})

	res := s.Query(7)
	assert.Equal(t, msgworker.OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Split)
}

func TestWorkingQueryMismatchedTask(t *testing.T) {
	s := setupWorking(t, newCommon(t), 7, []float64{10, 10, 10, 20, 20, 20})

	res := s.Query(8)
	assert.Equal(t, msgworker.OutcomeBusy, res.Outcome)
	assert.Equal(t, uint64(7), res.TaskID)
}

func TestQueryNeverMutates(t *testing.T) {
	s := setupWorking(t, newCommon(t), 7, []float64{10, 10, 10, 20, 20, 20})

	first := s.Query(7)
	for _, q := range []uint64{7, 8, 7} {
		s.Query(q)
	}

	// Same state, same answer.
	assert.Equal(t, first, s.Query(7))
}

func TestSetupRequestsWhileAvailable(t *testing.T) {
	s := NewAvailable(newCommon(t))

	next, resp := s.AddFeature(&msgworker.AddFeature{TaskID: 1, FeatureID: 0})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)

	next, resp = s.Finish(&msgworker.FinishSetup{TaskID: 1})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)

	next, resp = s.Drop(&msgworker.DropTask{TaskID: 1})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestAssignRejectsUnknownLoss(t *testing.T) {
	s := NewAvailable(newCommon(t))

	next, resp := s.Assign(&msgworker.AssignTask{TaskID: 1, Loss: "hinge"})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestCopyingRejectsOtherTask(t *testing.T) {
	s := setupCopying(t, newCommon(t), 7)

	next, resp := s.AddFeature(&msgworker.AddFeature{TaskID: 8, FeatureID: 0})
	assert.Same(t, s, next)
	rej := resp.(*msgworker.TaskRejected)
	assert.Equal(t, uint64(8), rej.TaskID)

	next, resp = s.Assign(&msgworker.AssignTask{TaskID: 8, Loss: msgworker.LossSquared})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestAddFeatureChecksRowCount(t *testing.T) {
	s := setupCopying(t, newCommon(t), 7)

	add := &msgworker.AddFeature{TaskID: 7, FeatureID: 0}
	add.SetValues([]float64{1, 2}) // task declared 6 rows
	next, resp := s.AddFeature(add)
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestUndeclaredRowCountPinnedByFirstColumn(t *testing.T) {
	// Assignment without a declared row count: the first column fixes it.
	s, resp := NewAvailable(newCommon(t)).Assign(&msgworker.AssignTask{
		TaskID:     7,
		YFeatureID: 0,
		Loss:       msgworker.LossSquared,
	})
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	add := &msgworker.AddFeature{TaskID: 7, FeatureID: 0}
	add.SetValues([]float64{10, 10, 10, 20, 20, 20})
	s, resp = s.AddFeature(add)
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	// A column of any other length is refused, never stored.
	add = &msgworker.AddFeature{TaskID: 7, FeatureID: 1}
	add.SetValues([]float64{1, 2})
	next, resp := s.AddFeature(add)
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)

	add = &msgworker.AddFeature{TaskID: 7, FeatureID: 1}
	add.SetValues([]float64{1, 2, 3, 4, 5, 6})
	s, resp = s.AddFeature(add)
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	s, resp = s.Finish(&msgworker.FinishSetup{TaskID: 7})
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	// Serving is unharmed by the refused column.
	res := s.Query(7)
	assert.Equal(t, msgworker.OutcomeFound, res.Outcome)
}

func TestAddFeatureRejectsEmptyColumn(t *testing.T) {
	s := setupCopying(t, newCommon(t), 7)

	next, resp := s.AddFeature(&msgworker.AddFeature{TaskID: 7, FeatureID: 0})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestAssignRejectsNegativeRowCount(t *testing.T) {
	s := NewAvailable(newCommon(t))

	next, resp := s.Assign(&msgworker.AssignTask{
		TaskID:  1,
		Loss:    msgworker.LossSquared,
		NumRows: -1,
	})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestFinishRequiresTargetColumn(t *testing.T) {
	s := setupCopying(t, newCommon(t), 7)

	next, resp := s.Finish(&msgworker.FinishSetup{TaskID: 7})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)
}

func TestFinishRequiresFoldColumn(t *testing.T) {
	fold := uint32(2)
	s, resp := NewAvailable(newCommon(t)).Assign(&msgworker.AssignTask{
		TaskID:        7,
		YFeatureID:    0,
		FoldFeatureID: &fold,
		Loss:          msgworker.LossLogistic,
	})
	assert.IsType(t, &msgworker.TaskAck{}, resp)

	add := &msgworker.AddFeature{TaskID: 7, FeatureID: 0}
	add.SetValues([]float64{0, 1, 0, 1})
	s, _ = s.AddFeature(add)

	// Target arrived, fold column did not.
	next, resp := s.Finish(&msgworker.FinishSetup{TaskID: 7})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)

	add = &msgworker.AddFeature{TaskID: 7, FeatureID: 2}
	add.SetValues([]float64{1, 1, 1, 0})
	s, _ = s.AddFeature(add)

	s, resp = s.Finish(&msgworker.FinishSetup{TaskID: 7})
	assert.IsType(t, &msgworker.TaskAck{}, resp)
	assert.IsType(t, &Working{}, s)
}

func TestDropReturnsToAvailable(t *testing.T) {
	s := setupWorking(t, newCommon(t), 7, []float64{10, 10, 10, 20, 20, 20})

	next, resp := s.Drop(&msgworker.DropTask{TaskID: 8})
	assert.Same(t, s, next)
	assert.IsType(t, &msgworker.TaskRejected{}, resp)

	next, resp = s.Drop(&msgworker.DropTask{TaskID: 7})
	assert.IsType(t, &msgworker.TaskAck{}, resp)
	assert.IsType(t, &Available{}, next)

	assert.Equal(t, msgworker.OutcomeNotReady, next.Query(7).Outcome)
}

// TestQueryDispatchTable checks the full state x query-id reply table: a
// Working worker answers Found/NotFound for its own task and Busy for any
// other, Copying answers Busy regardless, Available answers NotReady
// regardless.
func TestQueryDispatchTable(t *testing.T) {
	sc := newCommon(t)

	available := State(NewAvailable(sc))
	copying := setupCopying(t, sc, 7)
	working := setupWorking(t, newCommon(t), 7, []float64{10, 10, 10, 20, 20, 20})

	rapid.Check(t, func(t *rapid.T) {
		q := rapid.Uint64().Draw(t, "q")

		res := available.Query(q)
		assert.Equal(t, msgworker.OutcomeNotReady, res.Outcome)

		res = copying.Query(q)
		assert.Equal(t, msgworker.OutcomeBusy, res.Outcome)
		assert.Equal(t, uint64(7), res.TaskID)

		res = working.Query(q)
		if q == 7 {
			assert.Contains(t, []msgworker.SplitOutcome{
				msgworker.OutcomeFound,
				msgworker.OutcomeNotFound,
			}, res.Outcome)
		} else {
			assert.Equal(t, msgworker.OutcomeBusy, res.Outcome)
			assert.Equal(t, uint64(7), res.TaskID)
		}
	})
}
