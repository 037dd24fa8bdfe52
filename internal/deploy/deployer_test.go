package deploy

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeFile struct {
	size    int64
	modTime time.Time
}

// fakeSession is an in-memory remote store that records every mutating
// call issued against it.
type fakeSession struct {
	dirs   map[string]bool
	files  map[string]fakeFile
	texts  map[string]string
	curDir string

	mkdirCalls  []string
	uploadCalls []string
	writeCalls  []string
	failUploads map[string]error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		dirs:        map[string]bool{"/": true},
		files:       make(map[string]fakeFile),
		texts:       make(map[string]string),
		curDir:      "/",
		failUploads: make(map[string]error),
	}
}

func (s *fakeSession) addDir(dir string) {
	cur := ""
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		cur += "/" + seg
		s.dirs[cur] = true
	}
}

func (s *fakeSession) addFile(p string, size int64, modTime time.Time) {
	s.addDir(path.Dir(p))
	s.files[p] = fakeFile{size: size, modTime: modTime}
}

func (s *fakeSession) ChangeDir(p string) error {
	if !s.dirs[p] {
		return fmt.Errorf("550 %s: no such directory", p)
	}
	s.curDir = p
	return nil
}

func (s *fakeSession) DirExists(p string) (bool, error) {
	return s.dirs[p], nil
}

func (s *fakeSession) MakeDirAll(p string) error {
	s.mkdirCalls = append(s.mkdirCalls, p)
	s.addDir(p)
	return nil
}

func (s *fakeSession) NameList(p string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	prefix := p
	if prefix != "/" {
		prefix += "/"
	}
	for d := range s.dirs {
		if strings.HasPrefix(d, prefix) && !strings.Contains(d[len(prefix):], "/") && d != p {
			add(path.Base(d))
		}
	}
	for f := range s.files {
		if path.Dir(f) == p {
			add(path.Base(f))
		}
	}
	for f := range s.texts {
		if path.Dir(f) == p {
			add(path.Base(f))
		}
	}

	return names, nil
}

func (s *fakeSession) FileSize(p string) (int64, error) {
	f, ok := s.files[p]
	if !ok {
		return 0, fmt.Errorf("550 %s: no such file", p)
	}
	return f.size, nil
}

func (s *fakeSession) ModTime(p string) (time.Time, error) {
	f, ok := s.files[p]
	if !ok {
		return time.Time{}, fmt.Errorf("550 %s: no such file", p)
	}
	return f.modTime, nil
}

func (s *fakeSession) SetPassive(enabled bool) {}

func (s *fakeSession) Upload(name string, r io.Reader) error {
	full := path.Join(s.curDir, name)
	s.uploadCalls = append(s.uploadCalls, full)

	if err, ok := s.failUploads[full]; ok {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.files[full] = fakeFile{size: int64(len(data)), modTime: time.Now()}
	return nil
}

func (s *fakeSession) ReadFile(p string) (string, error) {
	content, ok := s.texts[p]
	if !ok {
		return "", fmt.Errorf("550 %s: no such file", p)
	}
	return content, nil
}

func (s *fakeSession) WriteFile(p string, content string) error {
	s.writeCalls = append(s.writeCalls, p)
	s.texts[p] = content
	return nil
}

func (s *fakeSession) Quit() error {
	return nil
}

type fakeRevisions struct {
	head    string
	diffs   map[string][]string
	tracked []string
}

func (r *fakeRevisions) Head() (string, error) {
	return r.head, nil
}

func (r *fakeRevisions) DiffPaths(from, to string) ([]string, error) {
	paths, ok := r.diffs[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, from)
	}
	return paths, nil
}

func (r *fakeRevisions) TrackedPaths() ([]string, error) {
	return r.tracked, nil
}

func writeLocalFile(t *testing.T, root, rel string, size int, modTime time.Time) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, make([]byte, size), 0644))
	require.NoError(t, os.Chtimes(full, modTime, modTime))
}

func testConfig(t *testing.T, src string) Config {
	t.Helper()

	cfg, err := NewBuilder().
		Host("ftp.example.com").
		Credentials("deploy", "secret").
		SourceRoot(src).
		TargetRoot("/site").
		Build()
	require.NoError(t, err)
	return cfg
}

func TestRunCreatesMissingDirsAndSkipsEqualSize(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "a/file1", 100, base.Add(10*time.Second))
	writeLocalFile(t, src, "a/b/file2", 50, base.Add(20*time.Second))

	sess := newFakeSession()
	sess.addFile("/site/a/file1", 100, base.Add(5*time.Second))

	cfg := testConfig(t, src)
	cfg.SkipEqualSize = true

	report := New(cfg, sess, nil).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, 1, report.Uploaded)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.CreatedDirs)

	// a/ existed and must not be re-created; only a/b is new.
	require.Equal(t, []string{"/site/a/b"}, sess.mkdirCalls)
	require.Equal(t, []string{"/site/a/b/file2"}, sess.uploadCalls)
}

func TestRunCreatesTargetRootBeforeProcessing(t *testing.T) {
	src := t.TempDir()
	writeLocalFile(t, src, "index.html", 10, time.Now())

	sess := newFakeSession()
	cfg := testConfig(t, src)

	report := New(cfg, sess, nil).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.NotEmpty(t, sess.mkdirCalls)
	require.Equal(t, "/site", sess.mkdirCalls[0])
	require.Contains(t, sess.files, "/site/index.html")
}

func TestRunSecondPassUploadsNothing(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "a/one.txt", 10, base)
	writeLocalFile(t, src, "b/two.txt", 20, base)

	sess := newFakeSession()
	cfg := testConfig(t, src)
	cfg.SkipEqualSize = true
	cfg.SkipUnmodified = true

	first := New(cfg, sess, nil).Run()
	require.Equal(t, OutcomeSuccess, first.Outcome())
	require.Equal(t, 2, first.Uploaded)

	second := New(cfg, sess, nil).Run()
	require.Equal(t, OutcomeSuccess, second.Outcome())
	require.Equal(t, 0, second.Uploaded)
	require.Equal(t, 2, second.Skipped)
}

func TestRunDryRunIssuesNoMutations(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "a/file1", 100, base.Add(10*time.Second))
	writeLocalFile(t, src, "a/b/file2", 50, base.Add(20*time.Second))

	live := newFakeSession()
	live.addFile("/site/a/file1", 100, base.Add(5*time.Second))
	dry := newFakeSession()
	dry.addFile("/site/a/file1", 100, base.Add(5*time.Second))

	cfg := testConfig(t, src)
	cfg.SkipEqualSize = true

	liveReport := New(cfg, live, nil).Run()

	cfg.DryRun = true
	dryReport := New(cfg, dry, nil).Run()

	require.Empty(t, dry.mkdirCalls)
	require.Empty(t, dry.uploadCalls)
	require.Empty(t, dry.writeCalls)

	// Decisions and counts match the live run exactly.
	require.Equal(t, liveReport.Uploaded, dryReport.Uploaded)
	require.Equal(t, liveReport.Skipped, dryReport.Skipped)
	require.Equal(t, liveReport.CreatedDirs, dryReport.CreatedDirs)
	require.Equal(t, OutcomeSuccess, dryReport.Outcome())
}

func TestRunContinuesPastFailedUpload(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "bad.txt", 10, base)
	writeLocalFile(t, src, "good.txt", 10, base)

	sess := newFakeSession()
	sess.addDir("/site")
	sess.failUploads["/site/bad.txt"] = fmt.Errorf("552 quota exceeded")

	cfg := testConfig(t, src)

	report := New(cfg, sess, nil).Run()

	require.Equal(t, OutcomePartial, report.Outcome())
	require.Equal(t, 1, report.Uploaded)
	require.Equal(t, 1, report.Failed)

	failed := report.FailedResults()
	require.Len(t, failed, 1)
	require.Equal(t, "bad.txt", failed[0].Entry.RelPath)
	require.Contains(t, sess.files, "/site/good.txt")
}

func TestRunMirrorModeLeavesExistingFiles(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "page.html", 10, base)

	sess := newFakeSession()
	sess.addFile("/site/page.html", 99, base.Add(-time.Hour))

	cfg := testConfig(t, src)
	cfg.Overwrite = false

	report := New(cfg, sess, nil).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, 0, report.Uploaded)
	require.Equal(t, 1, report.Skipped)
	require.Empty(t, sess.uploadCalls)
}

func TestIncrementalFirstRunDeploysTrackedFiles(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "a/one.txt", 10, base)
	writeLocalFile(t, src, "two.txt", 20, base)

	sess := newFakeSession()
	sess.addDir("/site")

	rev := &fakeRevisions{
		head:    "feedc0de",
		tracked: []string{"a/one.txt", "two.txt"},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, 2, report.Uploaded)
	require.True(t, report.MarkerWritten)
	require.Equal(t, "feedc0de\n", sess.texts["/site/"+MarkerFileName])
}

func TestIncrementalUsesDiffFromMarker(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "changed.txt", 10, base)
	writeLocalFile(t, src, "untouched.txt", 20, base)

	sess := newFakeSession()
	sess.addDir("/site")
	sess.texts["/site/"+MarkerFileName] = "oldrev\n"

	rev := &fakeRevisions{
		head:    "newrev",
		diffs:   map[string][]string{"oldrev": {"changed.txt"}},
		tracked: []string{"changed.txt", "untouched.txt"},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, []string{"/site/changed.txt"}, sess.uploadCalls)
	require.Equal(t, "newrev\n", sess.texts["/site/"+MarkerFileName])
}

func TestIncrementalFailureLeavesMarkerUntouched(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "bad.txt", 10, base)
	writeLocalFile(t, src, "good.txt", 10, base)

	sess := newFakeSession()
	sess.addDir("/site")
	sess.texts["/site/"+MarkerFileName] = "oldrev\n"
	sess.failUploads["/site/bad.txt"] = fmt.Errorf("550 permission denied")

	rev := &fakeRevisions{
		head:  "newrev",
		diffs: map[string][]string{"oldrev": {"bad.txt", "good.txt"}},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomePartial, report.Outcome())
	require.False(t, report.MarkerWritten)
	require.Equal(t, "oldrev\n", sess.texts["/site/"+MarkerFileName])
}

func TestIncrementalEmptyDiffStillAdvancesMarker(t *testing.T) {
	src := t.TempDir()

	sess := newFakeSession()
	sess.addDir("/site")
	sess.texts["/site/"+MarkerFileName] = "oldrev\n"

	rev := &fakeRevisions{
		head:  "newrev",
		diffs: map[string][]string{"oldrev": {}},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, 0, report.Uploaded)
	require.Equal(t, "newrev\n", sess.texts["/site/"+MarkerFileName])
}

func TestIncrementalUnknownMarkerFallsBackToTrackedFiles(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "one.txt", 10, base)

	sess := newFakeSession()
	sess.addDir("/site")
	sess.texts["/site/"+MarkerFileName] = "garbage\n"

	rev := &fakeRevisions{
		head:    "newrev",
		tracked: []string{"one.txt"},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, []string{"/site/one.txt"}, sess.uploadCalls)
}

func TestIncrementalMissingLocalPathIsSkipped(t *testing.T) {
	src := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeLocalFile(t, src, "kept.txt", 10, base)

	sess := newFakeSession()
	sess.addDir("/site")

	rev := &fakeRevisions{
		head:    "rev",
		tracked: []string{"kept.txt", "removed.txt"},
	}

	cfg := testConfig(t, src)
	cfg.Incremental = true

	report := New(cfg, sess, rev).Run()

	require.Equal(t, OutcomeSuccess, report.Outcome())
	require.Equal(t, []string{"/site/kept.txt"}, sess.uploadCalls)
}
