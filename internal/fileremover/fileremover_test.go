package fileremover

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
)

type fakeFiles struct {
	mu       sync.Mutex
	failures map[string]int
	removed  []string
	calls    map[string]int
}

func newFakeFiles(failures map[string]int) *fakeFiles {
	return &fakeFiles{failures: failures, calls: map[string]int{}}
}

func (f *fakeFiles) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[name]++
	if f.failures[name] > 0 {
		f.failures[name]--
		return errors.New("storage unavailable")
	}
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeFiles) removedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeFiles) callsOf(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func TestFileRemover(t *testing.T) {
	require.NoError(t, logger.Init("error"))

	t.Run("removes queued files and retries failures", func(t *testing.T) {
		files := newFakeFiles(map[string]int{"surat-2.pdf": 2})
		remover := New(files, 10, 5*time.Millisecond, 5)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		remover.Run(ctx)

		require.True(t, remover.Enqueue("surat-1.pdf"))
		require.True(t, remover.Enqueue("surat-2.pdf"))

		require.Eventually(t, func() bool {
			return len(files.removedNames()) == 2
		}, time.Second, 5*time.Millisecond)
		assert.ElementsMatch(t, []string{"surat-1.pdf", "surat-2.pdf"}, files.removedNames())
		assert.Equal(t, 3, files.callsOf("surat-2.pdf"))
	})

	t.Run("reports files it gives up on", func(t *testing.T) {
		files := newFakeFiles(map[string]int{"surat-3.pdf": 100})
		remover := New(files, 10, 5*time.Millisecond, 2)

		errs := make(chan error, 1)
		remover.ListenErrors(func(err error) { errs <- err })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		remover.Run(ctx)
		require.True(t, remover.Enqueue("surat-3.pdf"))

		select {
		case err := <-errs:
			assert.Contains(t, err.Error(), `giving up on "surat-3.pdf" after 2 attempts`)
		case <-time.After(time.Second):
			t.Fatal("no error reported")
		}
		assert.Equal(t, 2, files.callsOf("surat-3.pdf"))
	})

	t.Run("flushes pending files on shutdown", func(t *testing.T) {
		files := newFakeFiles(nil)
		remover := New(files, 10, time.Hour, 3)

		ctx, cancel := context.WithCancel(context.Background())
		remover.Run(ctx)
		require.True(t, remover.Enqueue("surat-4.pdf"))
		cancel()

		select {
		case <-remover.Done():
		case <-time.After(time.Second):
			t.Fatal("remover did not stop")
		}
		assert.Equal(t, []string{"surat-4.pdf"}, files.removedNames())
	})

	t.Run("error channel is closed once the remover stops", func(t *testing.T) {
		files := newFakeFiles(map[string]int{"surat-5.pdf": 100})
		remover := New(files, 10, time.Hour, 1)

		ctx, cancel := context.WithCancel(context.Background())
		remover.Run(ctx)
		require.True(t, remover.Enqueue("surat-5.pdf"))
		cancel()

		select {
		case <-remover.Done():
		case <-time.After(time.Second):
			t.Fatal("remover did not stop")
		}

		err, open := <-remover.errorChannel
		require.True(t, open)
		assert.Contains(t, err.Error(), `giving up on "surat-5.pdf"`)

		_, open = <-remover.errorChannel
		assert.False(t, open)
	})

	t.Run("error listener returns after shutdown", func(t *testing.T) {
		remover := New(newFakeFiles(nil), 10, time.Hour, 1)
		var calls atomic.Int32
		remover.ListenErrors(func(error) { calls.Add(1) })

		ctx, cancel := context.WithCancel(context.Background())
		remover.Run(ctx)
		cancel()
		<-remover.Done()

		require.Eventually(t, func() bool {
			_, open := <-remover.errorChannel
			return !open
		}, time.Second, 5*time.Millisecond)
		assert.Zero(t, calls.Load())
	})

	t.Run("full queue is reported to the caller", func(t *testing.T) {
		remover := New(newFakeFiles(nil), 1, time.Hour, 3)

		assert.True(t, remover.Enqueue("a.pdf"))
		assert.False(t, remover.Enqueue("b.pdf"))
	})
}
