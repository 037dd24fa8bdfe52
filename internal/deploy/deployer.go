package deploy

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/sagebind/robo-ftp/internal/logger"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Deployer pushes one local tree onto the remote target root over a single
// session. Entries are processed strictly in selector order; a per-entry
// failure is recorded and the run continues.
type Deployer struct {
	cfg    Config
	sess   Session
	rev    Revisions
	prober *prober

	// curDir tracks the expected remote working directory. Every change
	// is issued by the deployer, so the session is never assumed to be
	// anywhere it was not explicitly sent.
	curDir string
}

func New(cfg Config, sess Session, rev Revisions) *Deployer {
	return &Deployer{
		cfg:    cfg,
		sess:   sess,
		rev:    rev,
		prober: newProber(sess),
	}
}

func (d *Deployer) Run() *Report {
	report := &Report{}

	if err := d.ensureRoot(); err != nil {
		report.Fatal = TargetRootError.Wrap(err)
		return report
	}

	entries, err := d.selectEntries(report)
	if err != nil {
		report.Fatal = err
		return report
	}

	for _, entry := range entries {
		d.process(entry, report)
	}

	if d.cfg.Incremental && report.Failed == 0 {
		d.advanceMarker(report)
	}

	return report
}

// ensureRoot is the one-time preflight: the target root must exist before
// any file processing begins.
func (d *Deployer) ensureRoot() error {
	root := d.cfg.TargetRoot

	exists, err := d.sess.DirExists(root)
	if err != nil {
		return fmt.Errorf("failed to probe target root: %w", err)
	}
	if exists {
		return nil
	}

	if d.cfg.DryRun {
		logger.Log.Info("would create target root",
			zap.String("path", root))
	} else {
		if err := d.sess.MakeDirAll(root); err != nil {
			return fmt.Errorf("failed to create target root: %w", err)
		}
		logger.Log.Info("created target root",
			zap.String("path", root))
	}

	d.prober.markCreated(root)
	return nil
}

func (d *Deployer) selectEntries(report *Report) ([]Entry, error) {
	if !d.cfg.Incremental {
		entries, err := selectFull(d.cfg)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		return entries, nil
	}

	head, err := d.rev.Head()
	if err != nil {
		return nil, RevisionError.Wrap(err)
	}
	report.Revision = head

	var paths []string
	if marker := readMarker(d.sess, d.cfg.TargetRoot); marker != "" {
		paths, err = d.rev.DiffPaths(marker, head)
		if errors.Is(err, ErrUnknownRevision) {
			logger.Log.Warn("revision marker does not resolve, deploying all tracked files",
				zap.String("marker", marker))
			paths, err = d.rev.TrackedPaths()
		}
	} else {
		paths, err = d.rev.TrackedPaths()
	}
	if err != nil {
		return nil, RevisionError.Wrap(err)
	}

	return selectPaths(d.cfg, paths), nil
}

func (d *Deployer) process(entry Entry, report *Report) {
	if entry.IsDir {
		dir := path.Join(d.cfg.TargetRoot, entry.RelPath)
		created, err := d.prober.ensureDir(d.cfg.TargetRoot, dir, d.cfg.DryRun)
		d.recordCreated(created, report)
		if err != nil {
			// Non-fatal: a dependent file upload will surface its
			// own failure.
			report.Record(Result{Entry: entry, Action: ActionMkdir, Err: err})
		}
		return
	}

	parent := path.Join(d.cfg.TargetRoot, path.Dir(entry.RelPath))
	created, err := d.prober.ensureDir(d.cfg.TargetRoot, parent, d.cfg.DryRun)
	d.recordCreated(created, report)
	if err != nil {
		report.Record(Result{Entry: entry, Action: ActionUpload, Err: err})
		return
	}

	st, err := d.prober.state(parent)
	if err != nil {
		report.Record(Result{Entry: entry, Action: ActionUpload, Err: err})
		return
	}

	name := path.Base(entry.RelPath)
	_, present := st.names[name]

	dec := evaluate(d.cfg, entry, path.Join(parent, name), present, d.sess)
	if !dec.upload {
		logger.Log.Info("skipped",
			zap.String("path", entry.RelPath),
			zap.String("reason", dec.reason))
		report.Record(Result{Entry: entry, Action: ActionSkip, Reason: dec.reason})
		return
	}

	if d.cfg.DryRun {
		logger.Log.Info("would upload",
			zap.String("path", entry.RelPath),
			zap.Int64("size", entry.Size))
		report.Record(Result{Entry: entry, Action: ActionUpload, Reason: dec.reason})
		d.prober.noteUploaded(parent, name)
		return
	}

	if err := d.transfer(parent, name, entry.LocalPath); err != nil {
		logger.Log.Error("upload failed",
			zap.String("path", entry.RelPath),
			zap.Error(err))
		report.Record(Result{Entry: entry, Action: ActionUpload, Reason: dec.reason, Err: err})
		return
	}

	logger.Log.Info("uploaded",
		zap.String("path", entry.RelPath),
		zap.Int64("size", entry.Size))
	report.Record(Result{Entry: entry, Action: ActionUpload, Reason: dec.reason})
	d.prober.noteUploaded(parent, name)
}

// recordCreated turns each directory the materializer created (or
// announced, under dry-run) into a MKDIR result. Confirming an existing
// directory records nothing.
func (d *Deployer) recordCreated(created []string, report *Report) {
	for _, dir := range created {
		rel := strings.TrimPrefix(strings.TrimPrefix(dir, d.cfg.TargetRoot), "/")
		report.Record(Result{
			Entry:  Entry{RelPath: rel, IsDir: true},
			Action: ActionMkdir,
		})
	}
}

func (d *Deployer) transfer(dir, name, localPath string) error {
	// Passive mode must be asserted before each directory-change and
	// transfer cycle; transfers address files by basename relative to
	// the current directory.
	d.sess.SetPassive(true)

	if d.curDir != dir {
		if err := d.sess.ChangeDir(dir); err != nil {
			return fmt.Errorf("failed to change directory to %s: %w", dir, err)
		}
		d.curDir = dir
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := d.sess.Upload(name, f); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	return nil
}

// advanceMarker records the deployed revision after a clean incremental
// run. A run with any per-entry failure must not advance the marker, or
// the unsent files would vanish from every future diff.
func (d *Deployer) advanceMarker(report *Report) {
	if report.Revision == "" {
		return
	}

	if d.cfg.DryRun {
		logger.Log.Info("would write revision marker",
			zap.String("revision", report.Revision))
		return
	}

	if err := writeMarker(d.sess, d.cfg.TargetRoot, report.Revision); err != nil {
		// Leaving the marker behind is safe: the next incremental run
		// re-sends this diff.
		logger.Log.Error("failed to write revision marker",
			zap.String("revision", report.Revision),
			zap.Error(err))
		return
	}

	logger.Log.Info("revision marker written",
		zap.String("revision", report.Revision))
	report.MarkerWritten = true
}
