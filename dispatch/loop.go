package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"databind/internal/diagnostic"
)

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("dispatch: loop already running")

// Loop is an executor owned by the goroutine that calls Run.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	owner  atomic.Int64
	logger *slog.Logger
}

// NewLoop creates a loop whose queue starts with the given capacity and
// grows as needed. A nil logger discards panic reports.
func NewLoop(capacity int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Loop{
		tasks:  make([]func(), 0, max(capacity, 0)),
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post enqueues fn without waiting for the loop. Tasks run in the order
// they were posted.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// InContext reports whether the caller is the goroutine running the loop.
func (l *Loop) InContext() bool {
	id := l.owner.Load()
	return id != 0 && id == goid()
}

// Run executes posted tasks on the calling goroutine until ctx is done.
// Tasks that panic are recovered and logged.
func (l *Loop) Run(ctx context.Context) error {
	if !l.owner.CompareAndSwap(0, goid()) {
		return ErrRunning
	}
	defer l.owner.Store(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for fn := l.next(); fn != nil; fn = l.next() {
			l.run(fn)

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil
	}

	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]

	return fn
}

func (l *Loop) run(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)

	if r := pc.Recovered(); r != nil {
		l.logger.Error("dispatch: task panicked",
			slog.String(diagnostic.CodeKey, diagnostic.CodeTaskPanic),
			slog.Any("error", r.AsError()))
	}
}

// goid returns the id of the current goroutine. The runtime does not expose
// it, so it is read from the header line of the goroutine's stack trace.
func goid() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))

	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}

	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}

	return id
}
