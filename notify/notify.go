// Package notify normalizes "property X changed on this object" signals from
// different kinds of objects into one subscription API.
//
// Three capabilities are recognised, checked in order when a subscription is
// created:
//   - Native: objects of the framework itself, whose watching may fail
//   - Notifier: any object exposing property-changed listeners
//   - Peered: objects paired with a native counterpart that notifies for them
//
// The adapter is chosen once by Bridge; events are not re-dispatched.
package notify

// Listener receives property change notifications. An empty name means all
// properties of sender may have changed.
//
// Listeners are compared by identity, so they are usually pointers.
type Listener interface {
	OnPropertyChanged(sender any, name string)
}

// Native is implemented by framework objects. WatchProperties may refuse a
// listener, for example on a frozen object.
type Native interface {
	WatchProperties(l Listener) error
	UnwatchProperties(l Listener)
}

// Notifier is the generic notify-property-changed capability.
type Notifier interface {
	AddPropertyChangedListener(l Listener)
	RemovePropertyChangedListener(l Listener)
}

// Peered is implemented by objects whose notifications are raised by a
// paired native counterpart.
type Peered interface {
	NativePeer() any
}

// Subscribable is the uniform subscription API returned by Bridge.
type Subscribable interface {
	// Subscribe registers l at most once; subscribing twice never
	// doubles notifications.
	Subscribe(l Listener) error
	Unsubscribe(l Listener)
}

// Bridge selects the subscription adapter for obj. It reports false when obj
// cannot notify at all; such objects are treated as static.
func Bridge(obj any) (Subscribable, bool) {
	if s, ok := adapt(obj); ok {
		return s, true
	}

	if p, ok := obj.(Peered); ok {
		if peer := p.NativePeer(); peer != nil {
			return adapt(peer)
		}
	}

	return nil, false
}

func adapt(obj any) (Subscribable, bool) {
	switch o := obj.(type) {
	case Native:
		return nativeAdapter{o}, true
	case Notifier:
		return notifierAdapter{o}, true
	}

	return nil, false
}

type nativeAdapter struct {
	n Native
}

func (a nativeAdapter) Subscribe(l Listener) error {
	a.n.UnwatchProperties(l)
	return a.n.WatchProperties(l)
}

func (a nativeAdapter) Unsubscribe(l Listener) {
	a.n.UnwatchProperties(l)
}

type notifierAdapter struct {
	n Notifier
}

func (a notifierAdapter) Subscribe(l Listener) error {
	a.n.RemovePropertyChangedListener(l)
	a.n.AddPropertyChangedListener(l)

	return nil
}

func (a notifierAdapter) Unsubscribe(l Listener) {
	a.n.RemovePropertyChangedListener(l)
}
