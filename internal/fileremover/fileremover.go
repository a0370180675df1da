// Package fileremover deletes attachments in the background. Names are
// queued by the service after a transaction settles and removed in batches;
// a removal that fails is retried on later ticks.
package fileremover

import (
	"context"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
)

type remover interface {
	Remove(ctx context.Context, name string) error
}

type task struct {
	name     string
	attempts int
}

// FileRemover batches attachment removals.
type FileRemover struct {
	queue                    chan string
	files                    remover
	delayBetweenQueueFetches time.Duration
	maxAttempts              int
	errorChannel             chan error
	done                     chan struct{}
}

// New returns a FileRemover whose queue holds channelCapacity names. A file
// is given up on after maxAttempts failed removals.
func New(
	files remover,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
	maxAttempts int,
) *FileRemover {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FileRemover{
		files:                    files,
		queue:                    make(chan string, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		maxAttempts:              maxAttempts,
		errorChannel:             make(chan error, channelCapacity),
		done:                     make(chan struct{}),
	}
}

// Enqueue schedules name for removal. It returns false when the queue is
// full; the caller removes the file itself then.
func (r *FileRemover) Enqueue(name string) bool {
	select {
	case r.queue <- name:
		return true
	default:
		return false
	}
}

// ListenErrors passes every abandoned removal to callback. The listener
// returns once Run has stopped.
func (r *FileRemover) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

// Run processes the queue until ctx is done, then makes one last pass over
// whatever is pending, closes the error channel and closes Done.
func (r *FileRemover) Run(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case name := <-r.queue:
				tasks = append(tasks, task{name: name})
			case <-ticker.C:
				tasks = r.process(context.Background(), tasks)
			case <-ctx.Done():
				for {
					select {
					case name := <-r.queue:
						tasks = append(tasks, task{name: name})
						continue
					default:
					}
					break
				}
				r.process(context.Background(), tasks)
				close(r.errorChannel)
				return
			}
		}
	}()
}

// Done is closed once Run has returned.
func (r *FileRemover) Done() <-chan struct{} {
	return r.done
}

// process removes every queued file and returns the ones to retry.
func (r *FileRemover) process(ctx context.Context, tasks []task) []task {
	if len(tasks) == 0 {
		return nil
	}

	var pending []task
	removed := 0
	for _, t := range tasks {
		err := r.files.Remove(ctx, t.name)
		if err == nil {
			removed++
			continue
		}

		t.attempts++
		if t.attempts >= r.maxAttempts {
			r.report(fmt.Errorf("in internal/fileremover/fileremover.go/process(): giving up on %q after %d attempts: %w", t.name, t.attempts, err))
			continue
		}
		pending = append(pending, t)
	}

	if removed > 0 {
		logger.Log.Infof("processed removing of %d attachments", removed)
	}

	return pending
}

func (r *FileRemover) report(err error) {
	select {
	case r.errorChannel <- err:
	default:
		logger.Log.Errorw("attachment removal abandoned", "error", err)
	}
}
