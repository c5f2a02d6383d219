package model

import "time"

// Source names where a pass got its reservations from.
type Source string

const (
	SourceDownload Source = "download"
	SourceSnapshot Source = "snapshot"
	SourceNone     Source = "none"
)

// SyncStatus records one updater pass end to end.
type SyncStatus struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Source     Source      `json:"source"`
	Records    int         `json:"records"`
	Skipped    int         `json:"skipped"`
	Resolution *Resolution `json:"resolution,omitempty"`
	Message    string      `json:"message,omitempty"`
	Published  bool        `json:"published"`
	Error      string      `json:"error,omitempty"`
}

// OK reports whether the pass published without error.
func (s SyncStatus) OK() bool {
	return s.Error == "" && s.Published
}
