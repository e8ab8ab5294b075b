package property

import (
	"errors"
	"reflect"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string
	tags map[string]string
}

type person struct {
	Name    string
	Home    *address
	Aliases []string
	Scores  map[string]int
	id      int
}

type team struct {
	Members []*person
	Lead    *person
}

var personInfo = Register[person](
	Property("Name", func(p *person) string { return p.Name }, func(p *person, v string) { p.Name = v }).
		TwoWayByDefault(),
	Property("Home", func(p *person) *address { return p.Home }, func(p *person, v *address) { p.Home = v }),
	Property("ID", func(p *person) int { return p.id }, nil),
	Indexer(func(p *person, i int) (string, error) {
		if i < 0 || i >= len(p.Aliases) {
			return "", ErrIndexRange
		}

		return p.Aliases[i], nil
	}, nil),
)

func TestResolve_Registered(t *testing.T) {
	p := &person{Name: "Ann", Home: &address{City: "Oslo"}}

	c, err := Resolve(p, MustParsePath("Home.City"))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	obj, err := c.Object(1)
	require.NoError(t, err)
	assert.Same(t, p.Home, obj)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "Oslo", v)

	assert.Equal(t, "Home", c.Descriptor(0).Name)
	assert.Equal(t, reflect.TypeFor[*address](), c.Descriptor(0).PropertyType)
	assert.Equal(t, "City", c.LeafDescriptor().Name)

	require.NoError(t, c.SetValue("Bergen"))
	assert.Equal(t, "Bergen", p.Home.City)
}

func TestResolve_RegisteredIndexer(t *testing.T) {
	p := &person{Aliases: []string{"a", "b", "c"}}

	c, err := Resolve(p, MustParsePath("[2]"))
	require.NoError(t, err)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	assert.Equal(t, []any{2}, c.Indices(0))
	assert.True(t, c.LeafDescriptor().ReadOnly)
}

func TestResolve_Reflection(t *testing.T) {
	tm := &team{
		Members: []*person{{Name: "x"}, {Name: "y", Scores: map[string]int{"go": 9}}},
	}

	c, err := Resolve(tm, MustParsePath("Members[1].Name"))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.True(t, c.IsDerived(1))

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "y", v)

	obj, err := c.Object(2)
	require.NoError(t, err)
	assert.Same(t, tm.Members[1], obj)

	require.NoError(t, c.SetValue("z"))
	assert.Equal(t, "z", tm.Members[1].Name)
}

func TestResolve_ReflectionMap(t *testing.T) {
	root := &struct {
		Config map[string]any
	}{Config: map[string]any{"size": 3}}

	c, err := Resolve(root, MustParsePath("Config.size"))
	require.NoError(t, err)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	require.NoError(t, c.SetValue(4))
	assert.Equal(t, 4, root.Config["size"])

	c, err = Resolve(root, MustParsePath("Config[size]"))
	require.NoError(t, err)

	v, err = c.Value()
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(nil, MustParsePath("Name"))
	require.ErrorIs(t, err, ErrNilRoot)

	var np *person
	_, err = Resolve(np, MustParsePath("Name"))
	require.ErrorIs(t, err, ErrNilRoot)

	p := &person{}

	_, err = Resolve(p, MustParsePath("Missing"))
	require.ErrorIs(t, err, ErrNoProperty)

	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Step)
	assert.Equal(t, "Missing", pe.Segment)
	assert.Equal(t, reflect.TypeFor[*person](), pe.Owner)
	assert.NotContains(t, err.Error(), "did you mean")

	_, err = Resolve(p, MustParsePath("Nme"))
	require.ErrorIs(t, err, ErrNoProperty)
	assert.Contains(t, err.Error(), `did you mean "Name"?`)

	_, err = Resolve(p, MustParsePath("Home.City"))
	require.ErrorIs(t, err, ErrNilValue)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Step)

	_, err = Resolve(&team{}, MustParsePath("Lead[0]"))
	require.ErrorIs(t, err, ErrNilValue)

	_, err = Resolve(&address{}, MustParsePath("[0]"))
	require.ErrorIs(t, err, ErrNoIndexer)

	_, err = Resolve(&team{Members: []*person{}}, MustParsePath("Members[x]"))
	require.Error(t, err)
}

func TestChain_ReadOnly(t *testing.T) {
	p := &person{id: 5}

	c, err := Resolve(p, MustParsePath("ID"))
	require.NoError(t, err)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	err = c.SetValue(6)

	var ro *ReadOnlyError
	require.ErrorAs(t, err, &ro)
	assert.Equal(t, "ID", ro.Property)
	assert.Equal(t, 5, p.id)
}

func TestChain_Relink(t *testing.T) {
	old := &address{City: "Oslo"}
	p := &person{Home: old}

	c, err := Resolve(p, MustParsePath("Home.City"))
	require.NoError(t, err)

	p.Home = &address{City: "Rome"}

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "Oslo", v, "stale until relinked")

	require.NoError(t, c.Relink(0))

	v, err = c.Value()
	require.NoError(t, err)
	assert.Equal(t, "Rome", v)

	p.Home = nil
	require.ErrorIs(t, c.Relink(0), ErrNilValue)
}

func TestChain_Identity(t *testing.T) {
	p := &person{}

	c, err := Resolve(p, Path{})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.LeafDescriptor())

	v, err := c.Value()
	require.NoError(t, err)
	assert.Same(t, p, v)

	require.ErrorIs(t, c.SetValue(1), ErrEmptyPath)
}

func TestChain_DoesNotKeepObjectsAlive(t *testing.T) {
	p := &person{Home: &address{City: "Oslo", tags: map[string]string{}}}

	c, err := Resolve(p, MustParsePath("Home.City"))
	require.NoError(t, err)

	p.Home = nil

	var objErr error
	for range 5 {
		runtime.GC()

		if _, objErr = c.Object(1); objErr != nil {
			break
		}
	}

	require.Error(t, objErr)
	assert.True(t, errors.Is(objErr, ErrCollected))

	runtime.KeepAlive(p)
}

func TestDescriptor_Metadata(t *testing.T) {
	d, ok := personInfo.Descriptor("Name")
	require.True(t, ok)
	assert.True(t, d.Metadata(reflect.TypeFor[*person]()).BindsTwoWayByDefault)

	home, ok := personInfo.Descriptor("Home")
	require.True(t, ok)
	assert.False(t, home.Metadata(nil).BindsTwoWayByDefault)

	type special struct{ person }
	home.OverrideMetadata(reflect.TypeFor[*special](), Metadata{BindsTwoWayByDefault: true})
	assert.True(t, home.Metadata(reflect.TypeFor[*special]()).BindsTwoWayByDefault)
	assert.False(t, home.Metadata(reflect.TypeFor[*person]()).BindsTwoWayByDefault)
}

func TestDescriptor_Matches(t *testing.T) {
	d, _ := personInfo.Descriptor("Name")
	assert.True(t, d.Matches("Name"))
	assert.True(t, d.Matches(""))
	assert.False(t, d.Matches("Home"))

	idx, ok := personInfo.Indexer()
	require.True(t, ok)
	assert.True(t, idx.Matches("Item[]"))
	assert.True(t, idx.Matches(IndexerName))
}

func TestDescriptor_TypeErrors(t *testing.T) {
	d, _ := personInfo.Descriptor("Name")

	_, err := d.GetValue(&address{}, nil)

	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "owner", te.Role)

	err = d.SetValue(&person{}, 42, nil)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "value", te.Role)
}

func TestTypeInfo_Include(t *testing.T) {
	type employee struct{ person }

	info := Register[employee](
		Property("Name", func(e *employee) string { return "emp:" + e.Name }, nil),
	).Include(personInfo)

	assert.Equal(t, []string{"Home", "ID", "Name"}, info.Names())

	d, ok := info.Descriptor("Name")
	require.True(t, ok)
	assert.True(t, d.ReadOnly, "own declaration wins over included one")

	_, ok = info.Indexer()
	assert.True(t, ok)
}
