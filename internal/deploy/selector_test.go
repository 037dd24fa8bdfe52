package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, rels ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, rel := range rels {
		writeLocalFile(t, root, rel, 1, time.Now())
	}

	return root
}

func relPaths(entries []Entry) []string {
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	return paths
}

func TestSelectFullYieldsParentsBeforeDescendants(t *testing.T) {
	root := buildTree(t,
		"a/one.txt",
		"a/b/two.txt",
		"c/three.txt",
	)

	cfg := testConfig(t, root)
	entries, err := selectFull(cfg)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range entries {
		if parent := filepath.ToSlash(filepath.Dir(e.RelPath)); parent != "." {
			require.True(t, seen[parent],
				"entry %s yielded before its parent %s", e.RelPath, parent)
		}
		if e.IsDir {
			seen[e.RelPath] = true
		}
	}

	require.ElementsMatch(t,
		[]string{"a", "a/b", "a/b/two.txt", "a/one.txt", "c", "c/three.txt"},
		relPaths(entries))
}

func TestSelectFullPopulatesFileMetadata(t *testing.T) {
	root := t.TempDir()
	modTime := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeLocalFile(t, root, "doc.txt", 42, modTime)

	cfg := testConfig(t, root)
	entries, err := selectFull(cfg)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	require.False(t, e.IsDir)
	require.Equal(t, int64(42), e.Size)
	require.True(t, e.ModTime.Equal(modTime))
	require.Equal(t, filepath.Join(root, "doc.txt"), e.LocalPath)
}

func TestSelectFullIncludePatternsLimitFiles(t *testing.T) {
	root := buildTree(t,
		"site/index.html",
		"site/app.js",
		"notes.txt",
	)

	cfg := testConfig(t, root)
	cfg.Includes = []string{"**/*.html", "**/*.js"}

	entries, err := selectFull(cfg)
	require.NoError(t, err)

	var files []string
	for _, e := range entries {
		if !e.IsDir {
			files = append(files, e.RelPath)
		}
	}
	require.ElementsMatch(t, []string{"site/index.html", "site/app.js"}, files)
}

func TestSelectFullExcludesSubtrees(t *testing.T) {
	root := buildTree(t,
		"src/main.go",
		".git/config",
		"build/out.bin",
	)

	cfg := testConfig(t, root)
	cfg.Excludes = []string{".git", "build/**"}

	entries, err := selectFull(cfg)
	require.NoError(t, err)

	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.RelPath, ".git"), "excluded: %s", e.RelPath)
		require.False(t, strings.HasPrefix(e.RelPath, "build/"), "excluded: %s", e.RelPath)
	}
}

func TestSelectFullAppendsExtraFiles(t *testing.T) {
	root := buildTree(t, "a/inside.txt")

	outside := filepath.Join(t.TempDir(), "robots.txt")
	require.NoError(t, os.WriteFile(outside, []byte("User-agent: *\n"), 0644))

	cfg := testConfig(t, root)
	cfg.ExtraFiles = []string{outside}

	entries, err := selectFull(cfg)
	require.NoError(t, err)

	// A file outside the source root lands at the target root under its
	// basename.
	last := entries[len(entries)-1]
	require.Equal(t, "robots.txt", last.RelPath)
	require.Equal(t, outside, last.LocalPath)
}

func TestSelectPathsFiltersAndStats(t *testing.T) {
	root := buildTree(t, "keep/a.txt", "skip/b.tmp")

	cfg := testConfig(t, root)
	cfg.Excludes = []string{"*.tmp"}

	entries := selectPaths(cfg, []string{"keep/a.txt", "skip/b.tmp", "gone.txt"})

	require.Equal(t, []string{"keep/a.txt"}, relPaths(entries))
	require.False(t, entries[0].IsDir)
	require.Equal(t, int64(1), entries[0].Size)
}
