package binding

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"databind/property"
	"databind/tree"
	"databind/weakref"
)

// Base is implemented by Binding and MultiBinding.
type Base interface {
	ID() uuid.UUID
	Activate(target any, targetPath string) error
	Deactivate()
	Status() Status
}

// Registration is one binding installed on a target property.
type Registration struct {
	Path    string
	Binding Base
}

type entry struct {
	registrations []Registration
}

// Operations associates bindings with target properties. Targets are held
// weakly and their entries go away once they are collected.
//
// Activation is gated on liveness: targets implementing tree.Liveness get
// their bindings activated only while live, and targets implementing
// tree.Lifecycle are observed so that attach and detach activate and
// deactivate them. Other targets count as live.
type Operations struct {
	mu       sync.Mutex
	entries  map[weakref.Key]*entry
	failures *Failures
	logger   *slog.Logger
}

// NewOperations creates an empty registry. A nil logger discards.
func NewOperations(logger *slog.Logger) *Operations {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Operations{
		entries:  make(map[weakref.Key]*entry),
		failures: NewFailures(logger),
		logger:   logger,
	}
}

// Failures returns a failure channel for bindings created for this registry
// through WithFailures.
func (o *Operations) Failures() *Failures {
	return o.failures
}

// SetBinding installs b on the target property, replacing and deactivating
// any binding already at that path. b is deactivated first and activated
// right away only if the target is live.
func (o *Operations) SetBinding(target any, targetPath string, b Base) error {
	p, err := property.ParsePath(targetPath)
	if err != nil {
		return err
	}

	key, err := weakref.KeyOf(target)
	if err != nil {
		return err
	}

	b.Deactivate()

	path := p.String()

	o.mu.Lock()
	o.sweepLocked()

	e, ok := o.entries[key]
	if !ok {
		e = &entry{}
		o.entries[key] = e
		weakref.OnCollect(target, o.collected, key)
	}

	var replaced Base

	if i := slices.IndexFunc(e.registrations, func(r Registration) bool { return r.Path == path }); i >= 0 {
		replaced = e.registrations[i].Binding
		e.registrations[i].Binding = b
	} else {
		e.registrations = append(e.registrations, Registration{Path: path, Binding: b})
	}
	o.mu.Unlock()

	if replaced != nil && replaced != b {
		replaced.Deactivate()
	}

	if lc, ok := target.(tree.Lifecycle); ok {
		lc.AddLifecycleObserver(o)
	}

	if !isLive(target) {
		o.logger.Debug("binding deferred until target is live", slog.String("target_path", path))
		return nil
	}

	return b.Activate(target, path)
}

// Binding returns the binding installed on the target property.
func (o *Operations) Binding(target any, targetPath string) (Base, bool) {
	p, err := property.ParsePath(targetPath)
	if err != nil {
		return nil, false
	}

	for _, r := range o.Bindings(target) {
		if r.Path == p.String() {
			return r.Binding, true
		}
	}

	return nil, false
}

// Bindings returns the registrations of target in installation order.
func (o *Operations) Bindings(target any) []Registration {
	key, err := weakref.KeyOf(target)
	if err != nil {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[key]
	if !ok {
		return nil
	}

	return slices.Clone(e.registrations)
}

// ClearBinding deactivates and removes the binding on the target property.
// It reports whether there was one.
func (o *Operations) ClearBinding(target any, targetPath string) bool {
	p, err := property.ParsePath(targetPath)
	if err != nil {
		return false
	}

	key, err := weakref.KeyOf(target)
	if err != nil {
		return false
	}

	path := p.String()

	o.mu.Lock()

	e, ok := o.entries[key]
	if !ok {
		o.mu.Unlock()
		return false
	}

	i := slices.IndexFunc(e.registrations, func(r Registration) bool { return r.Path == path })
	if i < 0 {
		o.mu.Unlock()
		return false
	}

	removed := e.registrations[i].Binding
	e.registrations = slices.Delete(e.registrations, i, i+1)

	empty := len(e.registrations) == 0
	if empty {
		delete(o.entries, key)
	}
	o.mu.Unlock()

	removed.Deactivate()

	if lc, ok := target.(tree.Lifecycle); ok && empty {
		lc.RemoveLifecycleObserver(o)
	}

	return true
}

// ClearAllBindings deactivates and removes every binding of target.
func (o *Operations) ClearAllBindings(target any) {
	key, err := weakref.KeyOf(target)
	if err != nil {
		return
	}

	o.mu.Lock()
	e, ok := o.entries[key]
	delete(o.entries, key)
	o.mu.Unlock()

	if !ok {
		return
	}

	for _, r := range e.registrations {
		r.Binding.Deactivate()
	}

	if lc, ok := target.(tree.Lifecycle); ok {
		lc.RemoveLifecycleObserver(o)
	}
}

// ActivateBindings activates every dormant binding of target. It is called
// when target becomes live.
func (o *Operations) ActivateBindings(target any) error {
	var errs error

	for _, r := range o.Bindings(target) {
		if r.Binding.Status() == Active {
			continue
		}

		errs = multierr.Append(errs, r.Binding.Activate(target, r.Path))
	}

	return errs
}

// DeactivateBindings deactivates every binding of target but keeps them
// registered so that ActivateBindings can bring them back.
func (o *Operations) DeactivateBindings(target any) {
	for _, r := range o.Bindings(target) {
		r.Binding.Deactivate()
	}
}

// Len returns the number of targets with bindings.
func (o *Operations) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sweepLocked()

	return len(o.entries)
}

// Attached implements tree.Observer.
func (o *Operations) Attached(target any) {
	if err := o.ActivateBindings(target); err != nil {
		o.logger.Debug("activation on attach failed", slog.Any("error", err))
	}
}

// Detached implements tree.Observer.
func (o *Operations) Detached(target any) {
	o.DeactivateBindings(target)
}

func (o *Operations) collected(key weakref.Key) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.entries, key)
}

// sweepLocked drops entries whose target has been collected but whose
// cleanup has not run yet.
func (o *Operations) sweepLocked() {
	for key := range o.entries {
		if !key.Alive() {
			delete(o.entries, key)
		}
	}
}

func isLive(target any) bool {
	if l, ok := target.(tree.Liveness); ok {
		return l.IsLive()
	}

	return true
}
