package tasks

import (
	"errors"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// Kind names a job that can be started on demand.
type Kind string

const (
	KindOverdueScan  Kind = "overdue_scan"
	KindAuditCleanup Kind = "audit_cleanup"
)

// KindInfo describes a job for operators.
type KindInfo struct {
	Kind        Kind   `json:"type"`
	Description string `json:"description"`
}

// Kinds lists every job that can be triggered.
var Kinds = []KindInfo{
	{Kind: KindOverdueScan, Description: "Count and log open borrowings past their due time"},
	{Kind: KindAuditCleanup, Description: "Delete audit events older than the retention period"},
}

var ErrUnknownKind = errors.New("unknown task type")

// ParseKind validates a job name.
func ParseKind(s string) (Kind, error) {
	for _, info := range Kinds {
		if string(info.Kind) == s {
			return info.Kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// State is the lifecycle position of an enqueued job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateNotFound  State = "not_found"
)

func stateOf(status backlite.TaskStatus) State {
	switch status {
	case backlite.TaskStatusPending:
		return StatePending
	case backlite.TaskStatusRunning:
		return StateRunning
	case backlite.TaskStatusSuccess:
		return StateSucceeded
	case backlite.TaskStatusFailure:
		return StateFailed
	default:
		return StateNotFound
	}
}
