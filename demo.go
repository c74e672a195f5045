package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/astralkn/termprogress/progress"
)

// step is one unit of simulated work.
type step struct {
	size  uint64
	delay time.Duration
	name  string
}

// plan splits length into steps of random size. The average delay of a step
// is avgDelay.
func plan(rnd *rand.Rand, length uint64, avgDelay time.Duration) []step {
	maxSize := max(length/20, 1)
	var steps []step
	for done := uint64(0); done < length; {
		size := min(uint64(rnd.Int63n(int64(maxSize)))+1, length-done)
		var delay time.Duration
		if avgDelay > 0 {
			delay = time.Duration(rnd.Int63n(int64(2 * avgDelay)))
		}
		done += size
		steps = append(steps, step{size: size, delay: delay, name: fmt.Sprintf("chunk-%04d", len(steps))})
	}
	return steps
}

// runDemo draws one bar per worker, above a spinner that waits for all of
// them. Each worker is removed from mp when it is done.
func runDemo(ctx context.Context, opts *options, mp *progress.Multi) error {
	spinner, err := progress.New(progress.Options{
		UnknownLength: true,
		Template:      opts.spinnerTemplate,
		Message:       fmt.Sprintf("waiting for %d workers", opts.bars),
	})
	if err != nil {
		return err
	}
	mp.Add(spinner)
	if opts.tick > 0 {
		mp.EnableSteadyTick(opts.tick)
		defer mp.DisableSteadyTick()
	}

	rnd := rand.New(rand.NewSource(opts.seed))
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.bars; i++ {
		bar, err := progress.New(progress.Options{
			Length:   opts.length,
			Template: opts.template,
			Prefix:   fmt.Sprintf("[%d/%d]", i+1, opts.bars),
		})
		if err != nil {
			return err
		}
		mp.InsertBefore(spinner, bar)

		steps := plan(rnd, opts.length, opts.step)
		g.Go(func() error {
			defer mp.Remove(bar)
			return work(ctx, bar, steps)
		})
	}

	err = g.Wait()
	if err != nil {
		spinner.AbandonWithMessage(err.Error())
	} else {
		spinner.FinishWithMessage("all workers done")
	}
	mp.Remove(spinner)
	return err
}

func work(ctx context.Context, bar *progress.Bar, steps []step) error {
	for _, s := range steps {
		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				bar.AbandonWithMessage("interrupted")
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			bar.AbandonWithMessage("interrupted")
			return err
		}
		bar.SetMessage(s.name)
		bar.Inc(s.size)
	}
	bar.FinishWithMessage("done")
	return nil
}
