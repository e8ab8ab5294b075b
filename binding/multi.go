package binding

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"databind/convert"
	"databind/internal/diagnostic"
	"databind/property"
	"databind/weakref"
)

// MultiBinding links the sources of several child bindings to one target
// property through a MultiConverter. Children share the target chain of
// the MultiBinding; only their sources differ.
type MultiBinding struct {
	cfg       config
	id        uuid.UUID
	converter convert.MultiConverter
	logger    *slog.Logger
	children  []*Binding

	status      Status
	target      weakref.Ref
	targetPath  property.Path
	targetChain *property.Chain
	targets     *watcher
	updating    bool
	// bulk suppresses per-child syncs while a batch of children changes.
	bulk bool
}

// NewMulti creates an inactive multi binding.
func NewMulti(converter convert.MultiConverter, opts ...Option) (*MultiBinding, error) {
	if converter == nil {
		return nil, ErrNoConverter
	}

	cfg := newConfig(opts)
	id := uuid.New()

	return &MultiBinding{
		cfg:       cfg,
		id:        id,
		converter: converter,
		logger:    cfg.logger.With(slog.String(diagnostic.BindingKey, id.String())),
	}, nil
}

// ID identifies the binding in logs.
func (m *MultiBinding) ID() uuid.UUID { return m.id }

// Mode returns the configured mode.
func (m *MultiBinding) Mode() Mode { return m.cfg.mode }

// Status returns the current status.
func (m *MultiBinding) Status() Status { return m.status }

// Failures returns the failure channel.
func (m *MultiBinding) Failures() *Failures { return m.cfg.failures }

// EffectiveMode resolves Default through the target property metadata.
func (m *MultiBinding) EffectiveMode() Mode {
	if m.cfg.mode != Default {
		return m.cfg.mode
	}

	return defaultMode(m.targetChain)
}

// Bindings returns a copy of the children.
func (m *MultiBinding) Bindings() []*Binding {
	return slices.Clone(m.children)
}

// Len returns the number of children.
func (m *MultiBinding) Len() int {
	return len(m.children)
}

// Add appends children as one batch: the target is synced once after all
// of them are attached.
func (m *MultiBinding) Add(children ...*Binding) {
	m.batch(func() {
		for _, c := range children {
			m.insert(len(m.children), c)
		}
	})
}

// Insert places c at index i.
func (m *MultiBinding) Insert(i int, c *Binding) {
	m.batch(func() { m.insert(i, c) })
}

// Replace swaps the child at index i for c with a single sync.
func (m *MultiBinding) Replace(i int, c *Binding) {
	m.batch(func() {
		m.detach(m.children[i])
		m.children[i] = c
		m.attach(c)
	})
}

// RemoveAt removes the child at index i.
func (m *MultiBinding) RemoveAt(i int) {
	m.batch(func() {
		c := m.children[i]
		m.children = slices.Delete(m.children, i, i+1)
		m.detach(c)
	})
}

// Remove removes c and reports whether it was a child.
func (m *MultiBinding) Remove(c *Binding) bool {
	i := slices.Index(m.children, c)
	if i < 0 {
		return false
	}

	m.RemoveAt(i)

	return true
}

// Clear removes every child.
func (m *MultiBinding) Clear() {
	m.batch(func() {
		for _, c := range m.children {
			m.detach(c)
		}

		m.children = nil
	})
}

func (m *MultiBinding) batch(fn func()) {
	if m.bulk {
		fn()
		return
	}

	m.bulk = true
	fn()
	m.bulk = false

	if m.status == Active {
		m.sync()
	}
}

func (m *MultiBinding) insert(i int, c *Binding) {
	m.children = slices.Insert(m.children, i, c)
	m.attach(c)
}

func (m *MultiBinding) attach(c *Binding) {
	if c.parent != nil && c.parent != m {
		c.parent.Remove(c)
	}

	c.Deactivate()
	c.parent = m

	if m.status != Active {
		return
	}

	if err := m.activateChild(c); err != nil {
		m.report(SourcePathError, err, c)
	}
}

func (m *MultiBinding) detach(c *Binding) {
	c.Deactivate()
	c.parent = nil
}

// activateChild hands the resolved target chain to c and registers its
// source listeners. The child does not sync on its own.
func (m *MultiBinding) activateChild(c *Binding) error {
	c.Deactivate()

	c.target = m.target
	c.targetPath = m.targetPath
	c.targetChain = m.targetChain
	c.status = Active

	if err := c.registerSourceListeners(); err != nil {
		c.status = SourcePathError
		return err
	}

	return nil
}

// Activate binds the target property at targetPath on target and activates
// every child against it.
func (m *MultiBinding) Activate(target any, targetPath string) error {
	m.Deactivate()

	m.target = refOf(target)

	p, err := property.ParsePath(targetPath)
	if err != nil {
		m.report(TargetPathError, err, nil)
		return err
	}

	m.targetPath = p

	chain, err := resolveTarget(target, p)
	if err != nil {
		m.report(TargetPathError, err, nil)
		return err
	}

	m.targetChain = chain
	m.status = Active

	m.targets = newWatcher(m, targetSide, chain)
	if err := m.targets.watch(0); err != nil {
		m.report(TargetPathError, err, nil)
		return err
	}

	for _, c := range m.children {
		if err := m.activateChild(c); err != nil {
			m.report(SourcePathError, err, c)
			return err
		}
	}

	m.sync()

	return nil
}

// Deactivate drops every subscription, including those of the children.
func (m *MultiBinding) Deactivate() {
	if m.status == Inactive {
		return
	}

	m.teardown()

	for _, c := range m.children {
		c.Deactivate()
	}

	m.target = weakref.Ref{}
	m.targetChain = nil
	m.status = Inactive
}

func (m *MultiBinding) teardown() {
	m.targets.unwatch()
	m.targets = nil

	for _, c := range m.children {
		c.teardown()
	}
}

func (m *MultiBinding) linkChanged(w *watcher, index int) {
	if m.status != Active {
		return
	}

	if index < w.chain.Len()-1 {
		if err := w.relink(index); err != nil {
			m.report(TargetPathError, err, nil)
			return
		}

		m.sync()

		return
	}

	if !m.updating && m.EffectiveMode().toSource() {
		m.pushToSource()
	}
}

// childChanged combines again after a contributing child source changed.
func (m *MultiBinding) childChanged(c *Binding) {
	if m.status != Active || m.bulk || c.EffectiveMode() == OneWayToSource {
		return
	}

	if m.EffectiveMode().toTarget() {
		m.deliver()
	}
}

func (m *MultiBinding) sync() {
	mode := m.EffectiveMode()

	switch {
	case mode == OneWayToSource:
		m.pushToSource()
	case mode.toTarget():
		m.deliver()
	}
}

// deliver combines and pushes to the target. A one-time binding
// deactivates after the first push that succeeds.
func (m *MultiBinding) deliver() {
	if m.pushToTarget() && m.status == Active && m.EffectiveMode() == OneTime {
		m.Deactivate()
	}
}

// UpdateTarget combines the children and writes the target.
func (m *MultiBinding) UpdateTarget() {
	if m.status == Active {
		m.deliver()
	}
}

// UpdateSource splits the target value back into the children.
func (m *MultiBinding) UpdateSource() {
	if m.status == Active {
		m.pushToSource()
	}
}

func (m *MultiBinding) pushToTarget() bool {
	owner, d, idx, err := m.targetChain.Leaf()
	if err != nil {
		m.report(TargetUpdateError, err, nil)
		return false
	}

	contributing := lo.Filter(m.children, func(c *Binding, _ int) bool {
		return c.EffectiveMode() != OneWayToSource
	})

	values := make([]any, len(contributing))

	for i, c := range contributing {
		v, err := c.sourceValue(d.PropertyType)
		if err != nil {
			m.report(TargetUpdateError, &UpdateError{Direction: "target", Property: d.Name, Value: v, Err: err}, c)
			return false
		}

		values[i] = v
	}

	v, err := convert.Call(func() (any, error) {
		return m.converter.Convert(values, d.PropertyType, m.cfg.parameter, m.cfg.culture)
	})
	if err != nil {
		m.report(TargetUpdateError, &UpdateError{Direction: "target", Property: d.Name, Value: values, Err: err}, nil)
		return false
	}

	return write(&m.cfg, &m.updating, owner, d, idx, v, func(v any, err error) {
		m.report(TargetUpdateError, &UpdateError{Direction: "target", Property: d.Name, Value: v, Err: err}, nil)
	})
}

func (m *MultiBinding) pushToSource() {
	v, err := m.targetChain.Value()
	if err != nil {
		m.report(SourceUpdateError, &UpdateError{Direction: "source", Property: m.targetPath.String(), Err: err}, nil)
		return
	}

	affected := lo.Filter(m.children, func(c *Binding, _ int) bool {
		return c.EffectiveMode().toSource()
	})

	types := lo.Map(affected, func(c *Binding, _ int) reflect.Type {
		return c.sourceType()
	})

	values, err := convert.Call(func() ([]any, error) {
		return m.converter.ConvertBack(v, types, m.cfg.parameter, m.cfg.culture)
	})
	if err != nil {
		m.report(SourceUpdateError, &UpdateError{Direction: "source", Property: m.targetPath.String(), Value: v, Err: err}, nil)
		return
	}

	switch {
	case len(values) > len(affected):
		m.logger.Info("converter returned more values than bindings",
			slog.String(diagnostic.CodeKey, diagnostic.CodeConvertBackExcess),
			slog.String(diagnostic.PathKey, m.targetPath.String()),
			slog.Int("values", len(values)),
			slog.Int("bindings", len(affected)))
	case len(values) < len(affected):
		m.logger.Info("converter returned fewer values than bindings",
			slog.String(diagnostic.CodeKey, diagnostic.CodeConvertBackMissing),
			slog.String(diagnostic.PathKey, m.targetPath.String()),
			slog.Int("values", len(values)),
			slog.Int("bindings", len(affected)))
	}

	for i, c := range affected[:min(len(values), len(affected))] {
		if m.status != Active {
			return
		}

		c.UpdateSourceValue(values[i])
	}
}

// report moves to status and publishes err with the failing child, if any.
// It returns true when a subscriber ignored an update error; otherwise
// every subscription is dropped. Update errors arriving while the binding
// is not active are stale and dropped.
func (m *MultiBinding) report(status Status, err error, child *Binding) bool {
	if status.IsUpdateError() && m.status != Active {
		return false
	}

	m.status = status

	logFailure(m.logger, status, m.targetPath, err)

	target, _ := m.target.Value()
	ev := &FailureEvent{
		Target:     target,
		TargetPath: m.targetPath,
		Binding:    child,
		Err:        err,
		Status:     status,
	}

	m.cfg.failures.Publish(ev)

	if status.IsUpdateError() && ev.Ignore {
		m.status = Active
		return true
	}

	m.teardown()

	return false
}
