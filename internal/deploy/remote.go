package deploy

import (
	"fmt"
	"path"
	"strings"

	"github.com/sagebind/robo-ftp/internal/logger"
	"go.uber.org/zap"
)

type dirState struct {
	exists bool
	names  map[string]struct{}
}

// prober answers remote directory existence and listing queries, at most
// one probe per distinct directory per run. The remote tree does not change
// underneath a run, so cached state stays valid; the materializer updates
// the cache as it creates directories.
type prober struct {
	sess  Session
	cache map[string]*dirState
}

func newProber(sess Session) *prober {
	return &prober{
		sess:  sess,
		cache: make(map[string]*dirState),
	}
}

func (p *prober) state(dir string) (*dirState, error) {
	if st, ok := p.cache[dir]; ok {
		return st, nil
	}

	exists, err := p.sess.DirExists(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", dir, err)
	}

	st := &dirState{exists: exists, names: make(map[string]struct{})}
	if exists {
		names, err := p.sess.NameList(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, name := range names {
			st.names[path.Base(name)] = struct{}{}
		}
	}

	p.cache[dir] = st
	return st, nil
}

// markCreated records a directory the run just created (or would create,
// under dry-run) so children are resolved against the same state either way.
func (p *prober) markCreated(dir string) {
	p.cache[dir] = &dirState{exists: true, names: make(map[string]struct{})}
	parent := path.Dir(dir)
	if st, ok := p.cache[parent]; ok {
		st.names[path.Base(dir)] = struct{}{}
	}
}

// noteUploaded records a freshly uploaded basename in its parent listing.
func (p *prober) noteUploaded(dir, name string) {
	if st, ok := p.cache[dir]; ok {
		st.names[name] = struct{}{}
	}
}

// ensureDir guarantees every segment of dir below root exists remotely,
// creating missing ones in order. Returns the directories it created
// (announced only, under dry-run). Idempotent: existing segments are left
// alone.
func (p *prober) ensureDir(root, dir string, dryRun bool) ([]string, error) {
	if dir == root || dir == "." {
		return nil, nil
	}

	rel := strings.TrimPrefix(dir, root)
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return nil, nil
	}

	var created []string
	cur := root

	for _, seg := range strings.Split(rel, "/") {
		parent := cur
		cur = path.Join(cur, seg)

		if st, ok := p.cache[cur]; ok && st.exists {
			continue
		}

		pst, err := p.state(parent)
		if err != nil {
			return created, err
		}

		if _, ok := pst.names[seg]; ok {
			continue
		}

		if dryRun {
			logger.Log.Info("would create directory",
				zap.String("path", cur))
		} else {
			if err := p.sess.MakeDirAll(cur); err != nil {
				return created, fmt.Errorf("failed to create %s: %w", cur, err)
			}
			logger.Log.Info("created directory",
				zap.String("path", cur))
		}

		p.markCreated(cur)
		created = append(created, cur)
	}

	return created, nil
}
