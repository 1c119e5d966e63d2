package domain

import "time"

// LoopStatus is the observable in-memory state of one scheduled loop.
type LoopStatus struct {
	Name        string        `json:"name"`
	Active      bool          `json:"active"`
	Running     bool          `json:"running"`
	Destination string        `json:"destination,omitempty"`
	Interval    time.Duration `json:"interval_ns"`
	LastRunAt   *time.Time    `json:"last_run_at,omitempty"`
	NextRun     *time.Time    `json:"next_run,omitempty"`
	Runs        int64         `json:"runs"`
	Skipped     int64         `json:"skipped"`
}
