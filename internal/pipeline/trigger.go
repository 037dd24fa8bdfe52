package pipeline

import (
	"time"

	"github.com/sagebind/robo-ftp/internal/model"
)

// Trigger coalesces bursts of file events into deploy triggers: one trigger
// fires once the quiet period elapses with no further events. The output is
// buffered with capacity one, so events arriving while a run is in flight
// collapse into a single follow-up trigger.
func Trigger(inCh <-chan model.FileEvent, quiet time.Duration) <-chan struct{} {
	outCh := make(chan struct{}, 1)

	go func() {
		defer close(outCh)

		var timer *time.Timer
		var timerCh <-chan time.Time

		fire := func() {
			select {
			case outCh <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case _, ok := <-inCh:
				if !ok {
					if timerCh != nil {
						fire()
					}
					return
				}

				if timer == nil {
					timer = time.NewTimer(quiet)
					timerCh = timer.C
				} else {
					if !timer.Stop() {
						<-timerCh
					}
					timer.Reset(quiet)
				}

			case <-timerCh:
				timer = nil
				timerCh = nil
				fire()
			}
		}
	}()

	return outCh
}
