package binding

import (
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"databind/notify"
	"databind/property"
	"databind/tree"
	"databind/weakref"
)

type side int

const (
	sourceSide side = iota
	targetSide
)

// linkOwner receives changes of watched chain objects.
type linkOwner interface {
	linkChanged(w *watcher, index int)
}

// watcher keeps one listener on every observable object of a chain.
type watcher struct {
	owner linkOwner
	side  side
	chain *property.Chain
	links []*linkListener
}

func newWatcher(owner linkOwner, s side, chain *property.Chain) *watcher {
	return &watcher{owner: owner, side: s, chain: chain}
}

// watch subscribes to the chain objects from index on. Objects that cannot
// notify are static and skipped.
func (w *watcher) watch(from int) error {
	for i := from; i < w.chain.Len(); i++ {
		if w.chain.IsDerived(i) {
			continue
		}

		obj, err := w.chain.Object(i)
		if err != nil {
			return w.pathError(i, nil, err)
		}

		s, ok := notify.Bridge(obj)
		if !ok {
			continue
		}

		l := &linkListener{w: w, index: i, obj: refOf(obj)}
		w.links = append(w.links, l)

		if err := s.Subscribe(l); err != nil {
			return w.pathError(i, obj, err)
		}
	}

	return nil
}

// relink re-resolves the chain after index and moves the listeners to the
// new objects.
func (w *watcher) relink(index int) error {
	w.unwatchAfter(index)

	if err := w.chain.Relink(index); err != nil {
		return err
	}

	return w.watch(index + 1)
}

func (w *watcher) unwatchAfter(index int) {
	w.links = slices.DeleteFunc(w.links, func(l *linkListener) bool {
		if l.index <= index {
			return false
		}

		l.detach()

		return true
	})
}

func (w *watcher) unwatch() {
	if w == nil {
		return
	}

	w.unwatchAfter(-1)
}

func (w *watcher) pathError(i int, owner any, err error) error {
	return &property.PathError{
		Path:    w.chain.Path().String(),
		Step:    i,
		Segment: w.chain.Path().Step(i).String(),
		Owner:   reflect.TypeOf(owner),
		Err:     err,
	}
}

// linkListener is subscribed to the object at one chain index and reacts to
// the descriptor read from it at that index.
type linkListener struct {
	w        *watcher
	index    int
	obj      weakref.Ref
	detached atomic.Bool
}

func (l *linkListener) OnPropertyChanged(sender any, name string) {
	if l.detached.Load() {
		return
	}

	if !l.w.chain.Descriptor(l.index).Matches(name) || !l.isSender(sender) {
		return
	}

	l.w.owner.linkChanged(l.w, l.index)
}

func (l *linkListener) isSender(sender any) bool {
	if sender == nil {
		return true
	}

	obj, ok := l.obj.Value()
	if !ok {
		return false
	}

	if sameObject(obj, sender) {
		return true
	}

	// notifications of a peered object come from its native peer
	if p, ok := obj.(notify.Peered); ok {
		if peer := p.NativePeer(); peer != nil {
			return sameObject(peer, sender)
		}
	}

	return false
}

func (l *linkListener) detach() {
	l.detached.Store(true)
	unsubscribe(l.obj, l)
}

// contextListener watches one ambient tree node for data context changes.
type contextListener struct {
	onChange func()
	obj      weakref.Ref
	detached atomic.Bool
}

func (l *contextListener) OnPropertyChanged(_ any, name string) {
	if l.detached.Load() {
		return
	}

	if name == "" || name == tree.DataContextProperty {
		l.onChange()
	}
}

func (l *contextListener) detach() {
	l.detached.Store(true)
	unsubscribe(l.obj, l)
}

// watchContext subscribes to data context changes from node up to the
// nearest ancestor providing a non-nil context, and returns that context.
func watchContext(node tree.Node, onChange func()) (any, []*contextListener, error) {
	var listeners []*contextListener

	for n := range tree.Ancestors(node) {
		cp, ok := n.(tree.ContextProvider)
		if !ok {
			continue
		}

		if s, ok := notify.Bridge(n); ok {
			l := &contextListener{onChange: onChange, obj: refOf(n)}
			listeners = append(listeners, l)

			if err := s.Subscribe(l); err != nil {
				return nil, listeners, err
			}
		}

		if dc := cp.DataContext(); dc != nil {
			return dc, listeners, nil
		}
	}

	return nil, listeners, nil
}

func unwatchContext(listeners []*contextListener) {
	for _, l := range listeners {
		l.detach()
	}
}

func unsubscribe(ref weakref.Ref, l notify.Listener) {
	obj, ok := ref.Value()
	if !ok {
		return
	}

	if s, ok := notify.Bridge(obj); ok {
		s.Unsubscribe(l)
	}
}

// refOf holds pointers weakly. Other values are copies and are held as is.
func refOf(obj any) weakref.Ref {
	if ref, err := weakref.Of(obj); err == nil {
		return ref
	}

	return weakref.Strong(obj)
}

// sameObject compares pointers by address and other values with ==.
// Values that cannot be compared are never the same.
func sameObject(a, b any) bool {
	if weakref.IsPointer(a) && weakref.IsPointer(b) {
		return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
	}

	return sameValue(a, b)
}

// sameValue reports whether a == b without panicking on incomparable
// dynamic types.
func sameValue(a, b any) (same bool) {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	var pc panics.Catcher
	pc.Try(func() { same = a == b })

	return same && pc.Recovered() == nil
}
