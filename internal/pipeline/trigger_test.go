package pipeline

import (
	"testing"
	"time"

	"github.com/sagebind/robo-ftp/internal/model"
	"github.com/stretchr/testify/require"
)

func event(path string) model.FileEvent {
	return model.FileEvent{Type: model.EventWrite, Path: path, Timestamp: time.Now()}
}

func TestTriggerCoalescesBurst(t *testing.T) {
	in := make(chan model.FileEvent)
	out := Trigger(in, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		in <- event("a.txt")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("expected a trigger after the quiet period")
	}

	// No further events, so no second trigger.
	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("unexpected second trigger")
		}
	case <-time.After(150 * time.Millisecond):
	}

	close(in)
}

func TestTriggerFiresPerQuietWindow(t *testing.T) {
	in := make(chan model.FileEvent)
	out := Trigger(in, 30*time.Millisecond)

	in <- event("a.txt")
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("expected first trigger")
	}

	in <- event("b.txt")
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("expected second trigger")
	}

	close(in)
}

func TestTriggerFlushesPendingOnClose(t *testing.T) {
	in := make(chan model.FileEvent, 1)
	out := Trigger(in, time.Hour)

	in <- event("a.txt")
	time.Sleep(20 * time.Millisecond)
	close(in)

	count := 0
	for range out {
		count++
	}
	require.Equal(t, 1, count)
}

func TestTriggerClosesWithoutEvents(t *testing.T) {
	in := make(chan model.FileEvent)
	out := Trigger(in, 10*time.Millisecond)
	close(in)

	_, ok := <-out
	require.False(t, ok)
}
