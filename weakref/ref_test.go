package weakref

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	name string
	next *node
}

type unregistered struct {
	id    int
	label string
}

func collected(r Ref) bool {
	for range 5 {
		runtime.GC()

		if _, ok := r.Value(); !ok {
			return true
		}
	}

	return false
}

func TestMake(t *testing.T) {
	n := &node{name: "a"}
	r := Make(n)

	v, ok := r.Value()
	require.True(t, ok)
	assert.Same(t, n, v)

	runtime.KeepAlive(n)
}

func TestMake_Collectable(t *testing.T) {
	r := func() Ref {
		return Make(&node{name: "gone"})
	}()

	assert.True(t, collected(r))
}

func TestOf_Registered(t *testing.T) {
	Register[node]()

	n := &node{name: "b"}
	r, err := Of(n)
	require.NoError(t, err)

	v, ok := r.Value()
	require.True(t, ok)
	assert.Same(t, n, v)

	runtime.KeepAlive(n)
}

func TestOf_Fallback(t *testing.T) {
	u := &unregistered{id: 7}
	r, err := Of(u)
	require.NoError(t, err)

	v, ok := r.Value()
	require.True(t, ok)
	assert.Same(t, u, v)
	assert.Equal(t, 7, v.(*unregistered).id)

	runtime.KeepAlive(u)
}

func TestOf_FallbackCollectable(t *testing.T) {
	r := func() Ref {
		r, err := Of(&unregistered{id: 1})
		require.NoError(t, err)

		return r
	}()

	assert.True(t, collected(r))
}

func TestOf_Errors(t *testing.T) {
	_, err := Of(42)
	require.ErrorIs(t, err, ErrNotPointer)

	r, err := Of(nil)
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	v, ok := r.Value()
	assert.True(t, ok)
	assert.Nil(t, v)

	var np *node
	r, err = Of(np)
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}

func TestKeyOf(t *testing.T) {
	a := &node{name: "a"}
	b := &node{name: "b"}

	ka1, err := KeyOf(a)
	require.NoError(t, err)
	ka2, err := KeyOf(a)
	require.NoError(t, err)
	kb, err := KeyOf(b)
	require.NoError(t, err)

	assert.Equal(t, ka1, ka2)
	assert.NotEqual(t, ka1, kb)
	assert.True(t, ka1.Alive())

	_, err = KeyOf("x")
	require.ErrorIs(t, err, ErrNotPointer)

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestKeyOf_EmbeddedAtOffsetZero(t *testing.T) {
	type wrapper struct {
		node
		extra int
	}

	w := &wrapper{node: node{name: "inner"}}

	outer, err := KeyOf(w)
	require.NoError(t, err)
	inner, err := KeyOf(&w.node)
	require.NoError(t, err)
	again, err := KeyOf(&w.node)
	require.NoError(t, err)

	assert.False(t, outer == inner, "same address, different objects")
	assert.True(t, inner == again)

	m := map[Key]string{outer: "outer", inner: "inner"}
	assert.Len(t, m, 2)

	runtime.KeepAlive(w)
}
