package model

import "time"

type WatchSnapshot struct {
	Host        string     `json:"host"`
	TargetRoot  string     `json:"target_root"`
	SourceRoot  string     `json:"source_root"`
	StartedAt   time.Time  `json:"started_at"`
	Runs        int        `json:"runs"`
	Uploaded    int        `json:"uploaded"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	LastRun     *time.Time `json:"last_run"`
	LastOutcome string     `json:"last_outcome"`
}
