package entity

import "time"

// ApprovalHistory is one row of the audit trail written for every transition.
type ApprovalHistory struct {
	ID             int64      `json:"id"`
	RecordID       int64      `json:"record_id"`
	ActorID        string     `json:"actor_id"`
	Department     Department `json:"department"`
	Action         Action     `json:"action"`
	PreviousStatus Status     `json:"previous_status"`
	NewStatus      Status     `json:"new_status"`
	Timestamp      time.Time  `json:"timestamp"`
}
