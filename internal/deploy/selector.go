package deploy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sagebind/robo-ftp/internal/logger"
	"go.uber.org/zap"
)

// selectFull walks the source root and yields one entry per filesystem
// object, parents before descendants. Directory entries are emitted so the
// materializer sees every directory before anything beneath it.
func selectFull(cfg Config) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(cfg.SourceRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if p == cfg.SourceRoot {
			return nil
		}

		rel, err := filepath.Rel(cfg.SourceRoot, p)
		if err != nil {
			return fmt.Errorf("failed to resolve relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(cfg.Excludes, rel) || excludedSegment(cfg.Excludes, rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			entries = append(entries, Entry{RelPath: rel, LocalPath: p, IsDir: true})
			return nil
		}

		if len(cfg.Includes) > 0 && !matchesAny(cfg.Includes, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}

		entries = append(entries, Entry{
			RelPath:   rel,
			LocalPath: p,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source root: %w", err)
	}

	extras, err := extraEntries(cfg)
	if err != nil {
		return nil, err
	}

	return append(entries, extras...), nil
}

// selectPaths turns a list of version-control paths (relative to the source
// root) into file entries. No directory entries are synthesized; needed
// parents are derived at upload time. Paths missing locally are treated as
// deletions, which are never propagated.
func selectPaths(cfg Config, paths []string) []Entry {
	var entries []Entry

	for _, rel := range paths {
		rel = filepath.ToSlash(rel)

		if matchesAny(cfg.Excludes, rel) || excludedSegment(cfg.Excludes, rel) {
			continue
		}
		if len(cfg.Includes) > 0 && !matchesAny(cfg.Includes, rel) {
			continue
		}

		local := filepath.Join(cfg.SourceRoot, filepath.FromSlash(rel))
		info, err := os.Stat(local)
		if err != nil {
			logger.Log.Warn("tracked path missing locally, skipping",
				zap.String("path", rel))
			continue
		}
		if info.IsDir() {
			continue
		}

		entries = append(entries, Entry{
			RelPath:   rel,
			LocalPath: local,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	return entries
}

func extraEntries(cfg Config) ([]Entry, error) {
	var entries []Entry

	for _, extra := range cfg.ExtraFiles {
		abs, err := filepath.Abs(extra)
		if err != nil {
			return nil, fmt.Errorf("invalid extra file %s: %w", extra, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("extra file not found: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("extra file %s is a directory", abs)
		}

		rel, err := filepath.Rel(cfg.SourceRoot, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(abs)
		}

		entries = append(entries, Entry{
			RelPath:   filepath.ToSlash(rel),
			LocalPath: abs,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	return entries, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}

	return false
}

// excludedSegment matches single-segment exclude patterns (".git", "*.tmp")
// against every path component, the way ignore lists are usually written.
func excludedSegment(patterns []string, rel string) bool {
	parts := strings.Split(rel, "/")

	for _, pattern := range patterns {
		if strings.Contains(pattern, "/") {
			continue
		}
		for _, part := range parts {
			if ok, err := filepath.Match(pattern, part); err == nil && ok {
				return true
			}
		}
	}

	return false
}
