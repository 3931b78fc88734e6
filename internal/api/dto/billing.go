package dto

import (
	"time"
)

// SweepResponse summarizes one scheduler sweep run.
type SweepResponse struct {
	StartAt      time.Time `json:"start_at"`
	TotalScanned int       `json:"total_scanned"`
	TotalEmitted int       `json:"total_emitted"`
	TotalExpired int       `json:"total_expired"`
	TotalSkipped int       `json:"total_skipped"`
	TotalFailed  int       `json:"total_failed"`
}

// SchedulerCheck is one independent diagnostic check result.
type SchedulerCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SchedulerDiagnostics reports every renewal precondition for one scheduler
// independently, without mutating anything.
type SchedulerDiagnostics struct {
	SchedulerID string           `json:"scheduler_id"`
	Checks      []SchedulerCheck `json:"checks"`
}

// Passed reports whether every check passed.
func (d *SchedulerDiagnostics) Passed() bool {
	for _, c := range d.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
