package types

import "time"

// Operation is the boot transition a session drives its components
// towards.
type Operation string

const (
	OperationBoot     Operation = "boot"
	OperationReboot   Operation = "reboot"
	OperationShutdown Operation = "shutdown"
)

// SessionState is the session lifecycle stage. It only ever advances
// forward: pending -> running -> complete.
type SessionState string

const (
	SessionPending  SessionState = "pending"
	SessionRunning  SessionState = "running"
	SessionComplete SessionState = "complete"
)

// SessionStatus is the session's own progress record, distinct from the
// extended status the aggregator computes on request.
type SessionStatus struct {
	Status    SessionState `json:"status"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Session is a user-initiated request to move a set of components to a
// declared target state using a template. Keyed tenant-aware by Name,
// which is a UUID.
type Session struct {
	Name            string        `json:"name"`
	Tenant          string        `json:"tenant,omitempty"`
	Operation       Operation     `json:"operation"`
	TemplateName    string        `json:"template_name"`
	Limit           string        `json:"limit,omitempty"`
	Stage           bool          `json:"stage"`
	IncludeDisabled bool          `json:"include_disabled"`
	Components      string        `json:"components"`
	Status          SessionStatus `json:"status"`
}
