package domain

import "time"

// AuditRecord is one handled action as written to the audit trail.
type AuditRecord struct {
	SessionID string         `json:"session_id"`
	Workflow  string         `json:"workflow"`
	Stage     string         `json:"stage"`
	Action    ActionType     `json:"action"`
	Task      string         `json:"task,omitempty"`
	Status    Status         `json:"status"`
	Args      map[string]any `json:"args,omitempty"`
	Result    Result         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	At        time.Time      `json:"at"`
}
