package notify

import (
	"slices"
	"sync"
)

// Source is an embeddable Notifier. The zero value is ready to use.
type Source struct {
	mu        sync.Mutex
	listeners []Listener
}

// AddPropertyChangedListener registers l. Adding the same listener twice
// keeps a single registration.
func (s *Source) AddPropertyChangedListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.listeners, l) {
		return
	}

	s.listeners = append(s.listeners, l)
}

// RemovePropertyChangedListener removes l if present.
func (s *Source) RemovePropertyChangedListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = slices.DeleteFunc(s.listeners, func(x Listener) bool { return x == l })
}

// Notify tells every listener registered at call time that name changed on
// sender. Listeners may subscribe or unsubscribe while being notified.
func (s *Source) Notify(sender any, name string) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnPropertyChanged(sender, name)
	}
}

// Len returns the number of registered listeners.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.listeners)
}
