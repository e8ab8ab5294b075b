package binding

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"databind/internal/diagnostic"
	"databind/property"
)

// FailureEvent describes one binding failure. Subscribers may set Ignore to
// keep the binding running after an update error; path errors are always
// fatal.
type FailureEvent struct {
	Target     any
	TargetPath property.Path
	// Binding is the child that failed inside a MultiBinding, or nil.
	Binding *Binding
	Err     error
	Status  Status
	Ignore  bool
}

// Failures is a failure channel. The zero value is ready to use and drops
// subscriber panics silently.
type Failures struct {
	mu     sync.Mutex
	nextID int
	subs   []failureSub
	logger *slog.Logger
}

type failureSub struct {
	id int
	fn func(*FailureEvent)
}

// NewFailures creates a failure channel logging subscriber panics.
func NewFailures(logger *slog.Logger) *Failures {
	return &Failures{logger: logger}
}

// Subscribe adds fn and returns a function removing it.
func (f *Failures) Subscribe(fn func(*FailureEvent)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, failureSub{id: id, fn: fn})

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.subs = slices.DeleteFunc(f.subs, func(s failureSub) bool { return s.id == id })
	}
}

// Publish delivers ev to every subscriber in subscription order. A panicking
// subscriber is logged and skipped.
func (f *Failures) Publish(ev *FailureEvent) {
	f.mu.Lock()
	subs := slices.Clone(f.subs)
	logger := f.logger
	f.mu.Unlock()

	for _, s := range subs {
		var pc panics.Catcher
		pc.Try(func() { s.fn(ev) })

		if r := pc.Recovered(); r != nil && logger != nil {
			logger.Error("failure subscriber panicked",
				slog.String(diagnostic.CodeKey, diagnostic.CodeSubscriberPanic),
				slog.Any("error", r.AsError()))
		}
	}
}

// Len returns the number of subscribers.
func (f *Failures) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}
