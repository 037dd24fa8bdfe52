package deploy

import (
	"io"
	"time"
)

// Session is the single control connection to the remote store. All calls
// are strictly sequential; the deployer is the sole user of a session for
// the duration of a run.
type Session interface {
	ChangeDir(path string) error
	DirExists(path string) (bool, error)
	MakeDirAll(path string) error
	NameList(path string) ([]string, error)
	FileSize(path string) (int64, error)
	ModTime(path string) (time.Time, error)
	SetPassive(enabled bool)
	Upload(name string, r io.Reader) error
	ReadFile(path string) (string, error)
	WriteFile(path string, content string) error
	Quit() error
}

// Revisions answers version-control queries for incremental mode.
type Revisions interface {
	Head() (string, error)
	DiffPaths(from, to string) ([]string, error)
	TrackedPaths() ([]string, error)
}
