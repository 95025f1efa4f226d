package background

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs functions in tracked goroutines so the server can wait
// for them during shutdown. A panicking task is logged, never fatal.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Add(fn func()) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(debug.Stack()))
				b.log.WithField("message", err).Error("background task failed")
			}
		}()

		fn()
	}()
}

// Shutdown waits for all tasks to finish or for the context to expire,
// whichever comes first.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
