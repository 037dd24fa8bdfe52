package deploy

import (
	"errors"
	"time"

	"github.com/zeebo/errs"
)

var (
	ConnectionError = errs.Class("connection")
	TargetRootError = errs.Class("target root")
	RevisionError   = errs.Class("revision query")
)

// ErrUnknownRevision marks a revision id that cannot be resolved in the
// local repository. A marker pointing at an unknown revision falls back to
// the full tracked-file listing.
var ErrUnknownRevision = errors.New("unknown revision")

type Entry struct {
	RelPath   string
	LocalPath string
	IsDir     bool
	Size      int64
	ModTime   time.Time
}

type Action string

const (
	ActionUpload Action = "UPLOAD"
	ActionSkip   Action = "SKIP"
	ActionMkdir  Action = "MKDIR"
)

type Result struct {
	Entry  Entry
	Action Action
	Reason string
	Err    error
}

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeFatal   Outcome = "FATAL"
)

type Report struct {
	Results       []Result
	Uploaded      int
	Skipped       int
	CreatedDirs   int
	Failed        int
	Revision      string
	MarkerWritten bool
	Fatal         error
}

func (r *Report) Record(res Result) {
	r.Results = append(r.Results, res)

	if res.Err != nil {
		r.Failed++
		return
	}

	switch res.Action {
	case ActionUpload:
		r.Uploaded++
	case ActionSkip:
		r.Skipped++
	case ActionMkdir:
		r.CreatedDirs++
	}
}

func (r *Report) FailedResults() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	return failed
}

func (r *Report) Outcome() Outcome {
	switch {
	case r.Fatal != nil:
		return OutcomeFatal
	case r.Failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}
