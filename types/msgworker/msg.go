// Package msgworker contains the worker wire message definitions and the
// codec that maps them to channel payloads.
//
// A payload is one type byte followed by a JSON body. The length prefix that
// frames a payload on the wire belongs to the message channel, not to this
// package.
package msgworker

import (
	"fmt"

	"github.com/EigenDog/dawg/types/bin"
)

type WorkerMessageType byte

// Requests a master may send.
const (
	IdentifyType WorkerMessageType = iota
	QueryBestSplitType
)

// Task-setup requests. These drive the Available -> Copying -> Working
// transitions and are numbered apart from the query surface.
const (
	AssignTaskType WorkerMessageType = 0x10 + iota
	AddFeatureType
	FinishSetupType
	DropTaskType
)

// Responses the worker sends back.
const (
	IdentifiedType WorkerMessageType = 0x80 + iota
	BestSplitResultType
	TaskAckType
	TaskRejectedType
)

// Loss selects the split engine variant for a task.
type Loss string

const (
	LossSquared  Loss = "squared"
	LossLogistic Loss = "logistic"
)

func (l Loss) Valid() bool {
	return l == LossSquared || l == LossLogistic
}

// === requests

type Identify struct{}

type QueryBestSplit struct {
	TaskID uint64
}

type AssignTask struct {
	TaskID uint64

	// Target column the task will train against.
	YFeatureID uint32

	// Cross-validation fold column; nil when folds are not in use.
	FoldFeatureID *uint32 `json:",omitempty"`

	Loss    Loss
	NumRows int
}

type AddFeature struct {
	TaskID    uint64
	FeatureID uint32

	// Raw is the column as little-endian float64 bytes.
	Raw []byte
}

func (a *AddFeature) Values() []float64 {
	return bin.ParseFloat64s(a.Raw)
}

func (a *AddFeature) SetValues(vals []float64) {
	a.Raw = bin.PutFloat64s(vals)
}

type FinishSetup struct {
	TaskID uint64
}

type DropTask struct {
	TaskID uint64
}

// === responses

type Identified struct {
	WorkerID string
	User     string
}

type SplitOutcome byte

const (
	OutcomeFound SplitOutcome = iota
	OutcomeNotFound
	OutcomeBusy
	OutcomeNotReady
)

func (o SplitOutcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeBusy:
		return "busy"
	case OutcomeNotReady:
		return "not-ready"
	default:
		return fmt.Sprintf("outcome(%d)", byte(o))
	}
}

// SplitDescriptor describes the best partition of rows a split engine found.
type SplitDescriptor struct {
	FeatureID  uint32
	Threshold  float64
	Gain       float64
	LeftValue  float64
	RightValue float64
}

type BestSplitResult struct {
	Outcome SplitOutcome

	// Split is set only when Outcome is OutcomeFound.
	Split *SplitDescriptor `json:",omitempty"`

	// TaskID is the task the worker is committed to,
	// set only when Outcome is OutcomeBusy.
	TaskID uint64 `json:",omitempty"`
}

type TaskAck struct {
	TaskID uint64
}

type TaskRejected struct {
	TaskID uint64
	Reason string
}
