package daemon

import (
	"sync"
	"time"

	"github.com/sagebind/robo-ftp/internal/deploy"
	"github.com/sagebind/robo-ftp/internal/model"
)

type State struct {
	mu          sync.RWMutex
	host        string
	targetRoot  string
	sourceRoot  string
	startedAt   time.Time
	runs        int
	uploaded    int
	skipped     int
	failed      int
	lastRun     *time.Time
	lastOutcome string
}

func NewState(cfg deploy.Config) *State {
	return &State{
		host:       cfg.Host,
		targetRoot: cfg.TargetRoot,
		sourceRoot: cfg.SourceRoot,
		startedAt:  time.Now(),
	}
}

func (s *State) Record(report *deploy.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.lastRun = &now
	s.runs++
	s.uploaded += report.Uploaded
	s.skipped += report.Skipped
	s.failed += report.Failed
	s.lastOutcome = string(report.Outcome())
}

func (s *State) Snapshot() model.WatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.WatchSnapshot{
		Host:        s.host,
		TargetRoot:  s.targetRoot,
		SourceRoot:  s.sourceRoot,
		StartedAt:   s.startedAt,
		Runs:        s.runs,
		Uploaded:    s.uploaded,
		Skipped:     s.skipped,
		Failed:      s.failed,
		LastRun:     s.lastRun,
		LastOutcome: s.lastOutcome,
	}
}
