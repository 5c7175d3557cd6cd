package scrape

import (
	"context"
	"sync"
	"time"
)

// pauseController abstracts how the pipeline waits between requests.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// forEachBatch runs fn for every index in [0,n) in fixed-width batches of
// concurrent goroutines, pausing between batches. This is the only place the
// pipeline performs parallel I/O.
func forEachBatch(ctx context.Context, n, width int, delay time.Duration, pause pauseController, fn func(i int)) {
	if width <= 0 {
		width = 1
	}
	for start := 0; start < n; start += width {
		end := min(start+width, n)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fn(i)
			}(i)
		}
		wg.Wait()
		if end < n {
			pause.Pause(ctx, delay)
		}
	}
}
