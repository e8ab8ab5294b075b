package binding

import (
	"runtime"
	"testing"
	"weak"

	"github.com/stretchr/testify/require"

	"databind/notify"
	"databind/property"
)

type address struct {
	notify.Source
	street string
}

func (a *address) Street() string { return a.street }

func (a *address) SetStreet(v string) {
	a.street = v
	a.Notify(a, "Street")
}

type person struct {
	notify.Source
	name string
	age  int
	id   int
	home *address
}

func newPerson(name string) *person {
	return &person{name: name, id: 7}
}

func (p *person) Name() string { return p.name }

func (p *person) SetName(v string) {
	if p.name == v {
		return
	}

	p.name = v
	p.Notify(p, "Name")
}

func (p *person) Age() int { return p.age }

func (p *person) SetAge(v int) {
	p.age = v
	p.Notify(p, "Age")
}

func (p *person) ID() int { return p.id }

func (p *person) Home() *address { return p.home }

func (p *person) SetHome(a *address) {
	p.home = a
	p.Notify(p, "Home")
}

// sink is a plain notifying target that counts binding writes.
type sink struct {
	notify.Source
	value  string
	writes int
	locked int
	calls  int
}

func (s *sink) Value() string { return s.value }

func (s *sink) SetValue(v string) {
	s.value = v
	s.writes++
	s.Notify(s, "Value")
}

// edit changes the value the way a user would, without counting a write.
func (s *sink) edit(v string) {
	s.value = v
	s.Notify(s, "Value")
}

// titled raises its notifications through a separate native peer.
type titled struct {
	native *notify.Source
	title  string
}

func newTitled(title string) *titled {
	return &titled{native: &notify.Source{}, title: title}
}

func (m *titled) NativePeer() any { return m.native }

func (m *titled) Title() string { return m.title }

func (m *titled) SetTitle(v string) {
	m.title = v
	m.native.Notify(m.native, "Title")
}

// brittle is a target whose setter always panics.
type brittle struct {
	value string
}

func (b *brittle) Value() string { return b.value }

func (b *brittle) SetValue(string) { panic("brittle setter") }

var lockedDescriptor = func() *property.Descriptor {
	d := property.Property("Locked",
		func(s *sink) int { return s.locked },
		func(s *sink, v int) { s.calls++; s.locked = v })
	d.ReadOnly = true

	return d
}()

var (
	_ = property.Register[address](
		property.Property("Street", (*address).Street, (*address).SetStreet),
	)
	_ = property.Register[person](
		property.Property("Name", (*person).Name, (*person).SetName),
		property.Property("Age", (*person).Age, (*person).SetAge),
		property.Property("ID", (*person).ID, nil),
		property.Property("Home", (*person).Home, (*person).SetHome),
	)
	_ = property.Register[sink](
		property.Property("Value", (*sink).Value, (*sink).SetValue),
		lockedDescriptor,
	)
	_ = property.Register[titled](
		property.Property("Title", (*titled).Title, (*titled).SetTitle),
	)
	_ = property.Register[brittle](
		property.Property("Value", (*brittle).Value, (*brittle).SetValue),
	)
)

func mustNew(t *testing.T, path string, opts ...Option) *Binding {
	t.Helper()

	b, err := New(path, opts...)
	require.NoError(t, err)

	return b
}

func collected[T any](w weak.Pointer[T]) bool {
	for range 5 {
		runtime.GC()

		if w.Value() == nil {
			return true
		}
	}

	return false
}

type failureLog struct {
	events []*FailureEvent
	ignore bool
}

func (l *failureLog) record(ev *FailureEvent) {
	ev.Ignore = l.ignore
	l.events = append(l.events, ev)
}

func watchFailures(f *Failures, ignore bool) *failureLog {
	l := &failureLog{ignore: ignore}
	f.Subscribe(l.record)

	return l
}
