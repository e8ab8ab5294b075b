package binding

import (
	"errors"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"databind/convert"
	"databind/internal/diagnostic"
	"databind/property"
	"databind/tree"
	"databind/weakref"
)

// ErrHasParent is returned when activating a binding owned by a
// MultiBinding; the MultiBinding activates its children.
var ErrHasParent = errors.New("binding belongs to a multi binding")

// Binding links one source property, reached through a path, to one target
// property.
//
// A Binding is not safe for concurrent Activate and Deactivate calls. Value
// writes go through the executor captured at construction.
type Binding struct {
	cfg    config
	id     uuid.UUID
	path   property.Path
	logger *slog.Logger
	parent *MultiBinding

	status      Status
	target      weakref.Ref
	targetPath  property.Path
	targetChain *property.Chain
	targets     *watcher
	sources     *watcher
	contexts    []*contextListener
	updating    bool
}

// New creates an inactive binding for the source path.
func New(path string, opts ...Option) (*Binding, error) {
	p, err := property.ParsePath(path)
	if err != nil {
		return nil, err
	}

	cfg := newConfig(opts)
	id := uuid.New()

	return &Binding{
		cfg:    cfg,
		id:     id,
		path:   p,
		logger: cfg.logger.With(slog.String(diagnostic.BindingKey, id.String())),
	}, nil
}

// ID identifies the binding in logs.
func (b *Binding) ID() uuid.UUID { return b.id }

// Path returns the source path.
func (b *Binding) Path() property.Path { return b.path }

// Mode returns the configured mode.
func (b *Binding) Mode() Mode { return b.cfg.mode }

// Status returns the current status.
func (b *Binding) Status() Status { return b.status }

// Converter returns the value converter, or nil.
func (b *Binding) Converter() convert.Converter { return b.cfg.converter }

// Failures returns the failure channel.
func (b *Binding) Failures() *Failures { return b.cfg.failures }

// Parent returns the owning MultiBinding, or nil.
func (b *Binding) Parent() *MultiBinding { return b.parent }

// EffectiveMode resolves Default: first to the parent MultiBinding mode,
// then to the target property metadata.
func (b *Binding) EffectiveMode() Mode {
	if b.cfg.mode != Default {
		return b.cfg.mode
	}

	if b.parent != nil {
		return b.parent.EffectiveMode()
	}

	return defaultMode(b.targetChain)
}

// Activate binds the target property at targetPath on target. Any previous
// state is dropped first. Failures are reported on the failure channel,
// reflected in Status and returned.
func (b *Binding) Activate(target any, targetPath string) error {
	if b.parent != nil {
		return ErrHasParent
	}

	b.Deactivate()

	b.target = refOf(target)

	p, err := property.ParsePath(targetPath)
	if err != nil {
		return b.fail(TargetPathError, err)
	}

	b.targetPath = p

	chain, err := resolveTarget(target, p)
	if err != nil {
		return b.fail(TargetPathError, err)
	}

	b.targetChain = chain
	b.status = Active

	b.targets = newWatcher(b, targetSide, chain)
	if err := b.targets.watch(0); err != nil {
		return b.fail(TargetPathError, err)
	}

	if err := b.registerSourceListeners(); err != nil {
		return b.fail(SourcePathError, err)
	}

	b.logger.Debug("binding activated",
		slog.String(diagnostic.PathKey, p.String()),
		slog.String("mode", b.EffectiveMode().String()))

	b.sync()

	return nil
}

// Deactivate drops every subscription and returns to Inactive. It is a
// no-op on an inactive binding.
func (b *Binding) Deactivate() {
	if b.status == Inactive {
		return
	}

	b.teardown()

	b.target = weakref.Ref{}
	b.targetChain = nil
	b.sources = nil
	b.status = Inactive
}

func (b *Binding) teardown() {
	b.targets.unwatch()
	b.targets = nil
	b.sources.unwatch()
	unwatchContext(b.contexts)
	b.contexts = nil
}

// registerSourceListeners watches the ambient data context of the target
// unless an explicit source is set, then resolves and watches the source
// chain.
func (b *Binding) registerSourceListeners() error {
	b.sources.unwatch()
	b.sources = nil
	unwatchContext(b.contexts)
	b.contexts = nil

	root, err := b.sourceRoot()
	if err != nil {
		return err
	}

	chain, err := property.Resolve(root, b.path)
	if err != nil {
		return err
	}

	b.sources = newWatcher(b, sourceSide, chain)

	return b.sources.watch(0)
}

// sourceRoot is the explicit source, else the ambient data context of the
// target, else the target itself.
func (b *Binding) sourceRoot() (any, error) {
	if b.cfg.hasSource {
		return b.cfg.source, nil
	}

	target, ok := b.target.Value()
	if !ok {
		return nil, ErrCollected
	}

	if node, ok := target.(tree.Node); ok {
		dc, listeners, err := watchContext(node, b.contextChanged)
		b.contexts = listeners

		if err != nil {
			return nil, err
		}

		if dc != nil {
			return dc, nil
		}
	}

	return target, nil
}

func (b *Binding) contextChanged() {
	if b.status != Active {
		return
	}

	if err := b.registerSourceListeners(); err != nil {
		b.fail(SourcePathError, err)
		return
	}

	if b.parent != nil {
		b.parent.childChanged(b)
		return
	}

	b.sync()
}

func (b *Binding) linkChanged(w *watcher, index int) {
	if b.status != Active {
		return
	}

	if index < w.chain.Len()-1 {
		if err := w.relink(index); err != nil {
			if w.side == sourceSide {
				b.fail(SourcePathError, err)
			} else {
				b.fail(TargetPathError, err)
			}

			return
		}

		if b.parent != nil {
			b.parent.childChanged(b)
			return
		}

		b.sync()

		return
	}

	if b.updating {
		return
	}

	switch {
	case w.side == sourceSide && b.parent != nil:
		b.parent.childChanged(b)
	case w.side == sourceSide && b.EffectiveMode().toTarget():
		b.deliver()
	case w.side == targetSide && b.EffectiveMode().toSource():
		b.pushToSource()
	}
}

// sync pushes once in the direction of the mode.
func (b *Binding) sync() {
	mode := b.EffectiveMode()

	switch {
	case mode == OneWayToSource:
		b.pushToSource()
	case mode.toTarget():
		b.deliver()
	}
}

// deliver pushes to the target. A one-time binding deactivates after the
// first push that succeeds.
func (b *Binding) deliver() {
	if b.pushToTarget() && b.status == Active && b.EffectiveMode() == OneTime {
		b.Deactivate()
	}
}

// UpdateTarget pushes the current source value to the target.
func (b *Binding) UpdateTarget() {
	if b.status != Active {
		return
	}

	if b.parent != nil {
		b.parent.childChanged(b)
		return
	}

	b.deliver()
}

// UpdateSource pushes the current target value to the source.
func (b *Binding) UpdateSource() {
	if b.status != Active {
		return
	}

	b.pushToSource()
}

func (b *Binding) pushToTarget() bool {
	owner, d, idx, err := b.targetChain.Leaf()
	if err != nil {
		b.fail(TargetUpdateError, err)
		return false
	}

	v, err := b.sourceValue(d.PropertyType)
	if err != nil {
		b.fail(TargetUpdateError, &UpdateError{Direction: "target", Property: d.Name, Value: v, Err: err})
		return false
	}

	return write(&b.cfg, &b.updating, owner, d, idx, v, func(v any, err error) {
		b.fail(TargetUpdateError, &UpdateError{Direction: "target", Property: d.Name, Value: v, Err: err})
	})
}

func (b *Binding) pushToSource() {
	v, err := b.targetChain.Value()
	if err != nil {
		b.fail(SourceUpdateError, &UpdateError{Direction: "source", Property: b.path.String(), Err: err})
		return
	}

	b.UpdateSourceValue(v)
}

// sourceValue reads the source leaf and converts it for targetType.
func (b *Binding) sourceValue(targetType reflect.Type) (any, error) {
	v, err := b.sources.chain.Value()
	if err != nil || b.cfg.converter == nil {
		return v, err
	}

	return convert.Call(func() (any, error) {
		return b.cfg.converter.Convert(v, targetType, b.cfg.parameter, b.cfg.culture)
	})
}

// sourceType is the source leaf property type, or nil for an identity path.
func (b *Binding) sourceType() reflect.Type {
	if b.sources == nil {
		return nil
	}

	if d := b.sources.chain.LeafDescriptor(); d != nil {
		return d.PropertyType
	}

	return nil
}

// UpdateSourceValue converts value back through the converter and writes it
// to the source property.
func (b *Binding) UpdateSourceValue(value any) {
	if b.status != Active || b.sources == nil {
		return
	}

	owner, d, idx, err := b.sources.chain.Leaf()
	if err != nil {
		b.fail(SourceUpdateError, &UpdateError{Direction: "source", Property: b.path.String(), Value: value, Err: err})
		return
	}

	v := value

	if b.cfg.converter != nil {
		v, err = convert.Call(func() (any, error) {
			return b.cfg.converter.ConvertBack(value, d.PropertyType, b.cfg.parameter, b.cfg.culture)
		})
		if err != nil {
			b.fail(SourceUpdateError, &UpdateError{Direction: "source", Property: d.Name, Value: value, Err: err})
			return
		}
	}

	write(&b.cfg, &b.updating, owner, d, idx, v, func(v any, err error) {
		b.fail(SourceUpdateError, &UpdateError{Direction: "source", Property: d.Name, Value: v, Err: err})
	})
}

// fail moves to status and reports err. Path errors and update errors
// nobody ignores tear down every subscription; the status stays until the
// next Activate or Deactivate. Update errors of a binding that is no longer
// active come from writes posted earlier and are dropped.
func (b *Binding) fail(status Status, err error) error {
	if status.IsUpdateError() && b.status != Active {
		return err
	}

	b.status = status

	if b.parent != nil {
		if b.parent.report(status, err, b) {
			b.status = Active
		}

		return err
	}

	logFailure(b.logger, status, b.targetPath, err)

	target, _ := b.target.Value()
	ev := &FailureEvent{
		Target:     target,
		TargetPath: b.targetPath,
		Err:        err,
		Status:     status,
	}

	b.cfg.failures.Publish(ev)

	if status.IsUpdateError() && ev.Ignore {
		b.status = Active
		return err
	}

	b.teardown()

	return err
}
