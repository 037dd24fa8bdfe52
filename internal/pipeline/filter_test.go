package pipeline

import (
	"testing"
	"time"

	"github.com/sagebind/robo-ftp/internal/model"
	"github.com/stretchr/testify/require"
)

func sendEvents(paths ...string) <-chan model.FileEvent {
	ch := make(chan model.FileEvent, len(paths))
	for _, p := range paths {
		ch <- model.FileEvent{Type: model.EventWrite, Path: p, Timestamp: time.Now()}
	}
	close(ch)
	return ch
}

func collect(ch <-chan model.FileEvent) []string {
	var paths []string
	for ev := range ch {
		paths = append(paths, ev.Path)
	}
	return paths
}

func TestFilterPassesUnmatchedEvents(t *testing.T) {
	out := Filter(sendEvents("src/main.go", "docs/readme.md"), []string{".git", "*.tmp"})
	require.Equal(t, []string{"src/main.go", "docs/readme.md"}, collect(out))
}

func TestFilterDropsIgnoredSegments(t *testing.T) {
	out := Filter(sendEvents(
		"project/.git/objects/ab",
		"project/src/main.go",
		"project/build/out.bin",
		"project/cache.tmp",
	), []string{".git", "build", "*.tmp"})

	require.Equal(t, []string{"project/src/main.go"}, collect(out))
}

func TestFilterMatchesAnyPathSegment(t *testing.T) {
	require.True(t, shouldIgnore("a/node_modules/b/c.js", []string{"node_modules"}))
	require.True(t, shouldIgnore("a/b/debug.log", []string{"*.log"}))
	require.False(t, shouldIgnore("a/b/changelog", []string{"*.log"}))
}

func TestFilterEmptyIgnoreList(t *testing.T) {
	out := Filter(sendEvents("anything/at/all"), nil)
	require.Equal(t, []string{"anything/at/all"}, collect(out))
}
