package binding

import (
	"errors"
	"runtime"
	"testing"
	"weak"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"databind/convert"
	"databind/dispatch"
	"databind/primitive"
	"databind/property"
	"databind/tree"
)

func TestBinding_TwoWayScenario(t *testing.T) {
	p := newPerson("Ann")
	in := tree.NewInput("name")

	b := mustNew(t, "Name", WithSource(p), WithMode(TwoWay))
	require.NoError(t, b.Activate(in, "Text"))

	assert.Equal(t, Active, b.Status())
	assert.Equal(t, "Ann", in.Text())

	p.SetName("Bob")
	assert.Equal(t, "Bob", in.Text())

	in.SetText("Alice")
	assert.Equal(t, "Alice", p.Name())
	assert.Equal(t, "Alice", in.Text())
}

func TestBinding_NullRoot(t *testing.T) {
	b := mustNew(t, "Name")
	failures := watchFailures(b.Failures(), false)

	var err error

	require.NotPanics(t, func() { err = b.Activate(nil, "Text") })
	require.ErrorIs(t, err, property.ErrNilRoot)

	assert.Equal(t, TargetPathError, b.Status())
	require.Len(t, failures.events, 1)
	assert.Equal(t, TargetPathError, failures.events[0].Status)
	assert.Nil(t, failures.events[0].Target)
	assert.Nil(t, failures.events[0].Binding)
	assert.Equal(t, "Text", failures.events[0].TargetPath.String())
}

func TestBinding_DeactivateIdempotent(t *testing.T) {
	b := mustNew(t, "Name")

	b.Deactivate()
	b.Deactivate()
	assert.Equal(t, Inactive, b.Status())

	p := newPerson("Ann")
	s := &sink{}
	require.NoError(t, mustNew(t, "Name", WithSource(p)).Activate(s, "Value"))

	b = mustNew(t, "Name", WithSource(p))
	require.NoError(t, b.Activate(s, "Value"))
	b.Deactivate()
	b.Deactivate()

	assert.Equal(t, Inactive, b.Status())
}

func TestBinding_ActivateTwice(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{}

	b := mustNew(t, "Name", WithSource(p))
	require.NoError(t, b.Activate(s, "Value"))
	require.NoError(t, b.Activate(s, "Value"))

	assert.Equal(t, 1, p.Len(), "one source listener")
	assert.Equal(t, 1, s.Len(), "one target listener")
	assert.Equal(t, 1, s.writes, "second activation finds the value already in place")

	p.SetName("Bob")
	assert.Equal(t, 2, s.writes, "one change, one propagation")
	assert.Equal(t, "Bob", s.value)
}

func TestBinding_WeakChain(t *testing.T) {
	p := newPerson("Ann")
	p.home = &address{street: "Main"}
	w := weak.Make(p.home)

	s := &sink{}
	b := mustNew(t, "Home.Street", WithSource(p))
	require.NoError(t, b.Activate(s, "Value"))
	require.Equal(t, "Main", s.value)

	// drop the only strong reference without telling anyone
	p.home = nil

	assert.True(t, collected(w), "the binding keeps the intermediate object alive")
	assert.Equal(t, Active, b.Status())
}

func TestBinding_Relink(t *testing.T) {
	oldHome := &address{street: "Old"}
	p := newPerson("Ann")
	p.home = oldHome

	s := &sink{}
	b := mustNew(t, "Home.Street", WithSource(p))
	require.NoError(t, b.Activate(s, "Value"))
	require.Equal(t, "Old", s.value)

	newHome := &address{street: "New"}
	p.SetHome(newHome)
	assert.Equal(t, "New", s.value, "relink re-pushes the new leaf")
	assert.Equal(t, 0, oldHome.Len(), "old object no longer watched")
	assert.Equal(t, 1, newHome.Len())

	writes := s.writes

	oldHome.SetStreet("ignored")
	assert.Equal(t, "New", s.value)
	assert.Equal(t, writes, s.writes)

	newHome.SetStreet("Next")
	assert.Equal(t, "Next", s.value)
}

func TestBinding_RelinkToNil(t *testing.T) {
	p := newPerson("Ann")
	p.home = &address{street: "Main"}

	s := &sink{}
	b := mustNew(t, "Home.Street", WithSource(p))
	failures := watchFailures(b.Failures(), false)
	require.NoError(t, b.Activate(s, "Value"))

	p.SetHome(nil)

	assert.Equal(t, SourcePathError, b.Status())
	require.Len(t, failures.events, 1)
	require.ErrorIs(t, failures.events[0].Err, property.ErrNilValue)
	assert.Equal(t, 0, p.Len(), "fatal errors drop every listener")
	assert.Equal(t, 0, s.Len())
}

func TestBinding_OneTime(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{}

	b := mustNew(t, "Name", WithSource(p), WithMode(OneTime))
	require.NoError(t, b.Activate(s, "Value"))

	assert.Equal(t, "Ann", s.value)
	assert.Equal(t, 1, s.writes)
	assert.Equal(t, Inactive, b.Status())

	p.SetName("Bob")
	assert.Equal(t, "Ann", s.value)
	assert.Equal(t, 0, p.Len())
}

func TestBinding_OneTimeRetriesAfterIgnoredFailure(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{}

	calls := 0
	b := mustNew(t, "Name", WithSource(p), WithMode(OneTime), WithConverter(convert.Func{
		To: func(v any, _ any) (any, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("not ready")
			}

			return v, nil
		},
	}))
	failures := watchFailures(b.Failures(), true)
	require.NoError(t, b.Activate(s, "Value"))

	assert.Equal(t, Active, b.Status(), "nothing was delivered yet")
	assert.Len(t, failures.events, 1)
	assert.Empty(t, s.value)

	p.SetName("Bob")
	assert.Equal(t, "Bob", s.value)
	assert.Equal(t, Inactive, b.Status())
	assert.Equal(t, 0, p.Len())
}

func TestBinding_PeeredSource(t *testing.T) {
	m := newTitled("a")
	in := tree.NewInput("title")

	b := mustNew(t, "Title", WithSource(m), WithMode(OneWay))
	require.NoError(t, b.Activate(in, "Text"))
	assert.Equal(t, "a", in.Text())
	assert.Equal(t, 1, m.native.Len())

	m.SetTitle("b")
	assert.Equal(t, "b", in.Text())

	b.Deactivate()
	assert.Equal(t, 0, m.native.Len())
}

func TestBinding_OneWayToSource(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{value: "Zed"}

	b := mustNew(t, "Name", WithSource(p), WithMode(OneWayToSource))
	require.NoError(t, b.Activate(s, "Value"))

	assert.Equal(t, "Zed", p.Name(), "activation pushes target to source")

	p.SetName("Bob")
	assert.Equal(t, 0, s.writes, "source changes never reach the target")
	assert.Equal(t, "Zed", s.value)

	s.edit("Kim")
	assert.Equal(t, "Kim", p.Name())
}

func TestBinding_DefaultMode(t *testing.T) {
	p := newPerson("Ann")

	in := tree.NewInput("in")
	b := mustNew(t, "Name", WithSource(p))
	require.NoError(t, b.Activate(in, "Text"))
	assert.Equal(t, TwoWay, b.EffectiveMode(), "Text binds two-way by default")

	s := &sink{}
	b2 := mustNew(t, "Name", WithSource(p))
	require.NoError(t, b2.Activate(s, "Value"))
	assert.Equal(t, OneWay, b2.EffectiveMode())

	s.edit("changed")
	assert.Equal(t, "Ann", p.Name(), "one-way never writes back")
}

func TestBinding_ReadOnlyTarget(t *testing.T) {
	p := newPerson("Ann")
	p.age = 3
	s := &sink{}

	b := mustNew(t, "Age", WithSource(p))
	failures := watchFailures(b.Failures(), false)

	require.NoError(t, b.Activate(s, "Locked"))

	assert.Equal(t, TargetUpdateError, b.Status())
	assert.Zero(t, s.calls, "setter of a read-only property is never called")
	require.Len(t, failures.events, 1)

	var ro *property.ReadOnlyError
	require.ErrorAs(t, failures.events[0].Err, &ro, spew.Sdump(failures.events[0]))
	assert.Equal(t, "Locked", ro.Property)
	assert.Equal(t, 0, p.Len(), "not ignored: listeners dropped")

	b.Deactivate()
	assert.Equal(t, Inactive, b.Status())
}

func TestBinding_ReadOnlySource(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{value: "9"}

	b := mustNew(t, "ID", WithSource(p), WithMode(OneWayToSource))
	failures := watchFailures(b.Failures(), true)

	require.NoError(t, b.Activate(s, "Value"))

	require.Len(t, failures.events, 1)
	assert.Equal(t, SourceUpdateError, failures.events[0].Status)
	assert.Equal(t, Active, b.Status(), "ignored update errors keep the binding running")
	assert.Equal(t, 7, p.ID())

	s.edit("10")
	assert.Len(t, failures.events, 2)
}

func TestBinding_ThreadAffinity(t *testing.T) {
	q := &dispatch.Queue{}
	p := newPerson("Ann")
	in := tree.NewInput("in")

	b := mustNew(t, "Name", WithSource(p), WithMode(TwoWay), WithExecutor(q))
	require.NoError(t, b.Activate(in, "Text"))

	assert.Empty(t, in.Text(), "write posted, not run inline")
	assert.Equal(t, 1, q.Pending())

	q.Drain()
	assert.Equal(t, "Ann", in.Text())

	p.SetName("Bob")
	assert.Equal(t, "Ann", in.Text())

	q.Drain()
	assert.Equal(t, "Bob", in.Text())
	assert.Equal(t, "Bob", p.Name(), "no echo back to the source")
	assert.Equal(t, 0, q.Pending())

	// changes raised on the owning context are written inline
	q.Post(func() { p.SetName("Cid") })
	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, "Cid", in.Text())
}

func TestBinding_PostedFailureAfterDeactivate(t *testing.T) {
	q := &dispatch.Queue{}
	target := &brittle{}

	b := mustNew(t, "Name", WithSource(newPerson("Ann")), WithExecutor(q))
	failures := watchFailures(b.Failures(), false)

	require.NoError(t, b.Activate(target, "Value"))
	b.Deactivate()
	q.Drain()

	assert.Equal(t, Inactive, b.Status())
	assert.Empty(t, failures.events)

	require.NoError(t, b.Activate(target, "Value"))
	q.Drain()

	assert.Equal(t, TargetUpdateError, b.Status())
	assert.Len(t, failures.events, 1)

	runtime.KeepAlive(target)
}

func TestBinding_Converter(t *testing.T) {
	p := newPerson("Ann")
	p.age = 1234
	in := tree.NewInput("age")

	b := mustNew(t, "Age",
		WithSource(p),
		WithConverter(convert.Format{}),
		WithConverterParameter("%d"),
		WithCulture(language.English))
	require.NoError(t, b.Activate(in, "Text"))

	assert.Equal(t, "1,234", in.Text())

	in.SetText("2,500")
	assert.Equal(t, 2500, p.Age())
}

func TestBinding_Coercion(t *testing.T) {
	p := newPerson("Ann")
	p.age = 42
	in := tree.NewInput("age")

	b := mustNew(t, "Age", WithSource(p))
	failures := watchFailures(b.Failures(), true)
	require.NoError(t, b.Activate(in, "Text"))

	assert.Equal(t, "42", in.Text())

	in.SetText("43")
	assert.Equal(t, 43, p.Age())

	in.SetText("forty")
	assert.Equal(t, 43, p.Age())
	require.Len(t, failures.events, 1)
	assert.Equal(t, SourceUpdateError, failures.events[0].Status)
	assert.Equal(t, Active, b.Status())

	strict := mustNew(t, "Age", WithSource(p), WithCoercion(primitive.CategoryNone))
	require.NoError(t, strict.Activate(tree.NewInput("strict"), "Text"))
	assert.Equal(t, TargetUpdateError, strict.Status())
}

func TestBinding_ConverterPanic(t *testing.T) {
	p := newPerson("Ann")
	s := &sink{}

	b := mustNew(t, "Name", WithSource(p), WithConverter(convert.Func{
		To: func(any, any) (any, error) { panic("converter bug") },
	}))
	failures := watchFailures(b.Failures(), false)

	require.NotPanics(t, func() { _ = b.Activate(s, "Value") })
	assert.Equal(t, TargetUpdateError, b.Status())
	require.Len(t, failures.events, 1)

	var ue *UpdateError
	require.True(t, errors.As(failures.events[0].Err, &ue))
	assert.Equal(t, "target", ue.Direction)
	assert.Contains(t, ue.Error(), "converter bug")
}

func TestBinding_DataContext(t *testing.T) {
	ann, bea := newPerson("Ann"), newPerson("Bea")

	root := tree.NewElement("root")
	root.SetDataContext(ann)

	in := tree.NewInput("in")
	root.AddChild(&in.Element)

	b := mustNew(t, "Name")
	require.NoError(t, b.Activate(in, "Text"))
	assert.Equal(t, "Ann", in.Text())

	root.SetDataContext(bea)
	assert.Equal(t, "Bea", in.Text())

	ann.SetName("ignored")
	assert.Equal(t, "Bea", in.Text())
	assert.Equal(t, 0, ann.Len())

	in.SetDataContext(ann)
	assert.Equal(t, "ignored", in.Text(), "local context wins")

	b.Deactivate()
	assert.Zero(t, root.Watchers())
	assert.Zero(t, in.Watchers())
}

func TestBinding_TargetAsSource(t *testing.T) {
	in := tree.NewInput("self")

	b := mustNew(t, "Name")
	require.NoError(t, b.Activate(in, "Text"))
	assert.Equal(t, "self", in.Text())

	in.SetName("renamed")
	assert.Equal(t, "renamed", in.Text())
}

func TestBinding_FrozenTarget(t *testing.T) {
	in := tree.NewInput("frozen")
	in.Freeze()

	b := mustNew(t, "Name", WithSource(newPerson("Ann")))
	err := b.Activate(in, "Text")

	require.ErrorIs(t, err, tree.ErrFrozen)
	assert.Equal(t, TargetPathError, b.Status())
}

func TestBinding_SourcePathError(t *testing.T) {
	b := mustNew(t, "Missing", WithSource(newPerson("Ann")))
	failures := watchFailures(b.Failures(), true)

	err := b.Activate(&sink{}, "Value")
	require.ErrorIs(t, err, property.ErrNoProperty)
	assert.Equal(t, SourcePathError, b.Status(), "path errors cannot be ignored")
	assert.Len(t, failures.events, 1)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New("A..B")
	require.Error(t, err)
}
