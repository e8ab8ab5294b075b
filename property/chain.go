package property

import (
	"fmt"
	"reflect"

	"databind/weakref"
)

// link holds one chain object. Pointer objects are held weakly. Non-pointer
// intermediate values (slices, maps, plain structs) carry no identity and
// are re-derived from the previous link on demand.
type link struct {
	ref     weakref.Ref
	derived bool
}

// Chain is a property path resolved against a root: parallel sequences of
// weakly held objects and the descriptors read from them. For every i,
// Object(i+1) is the current value of Descriptor(i) read from Object(i).
type Chain struct {
	path    Path
	links   []link
	descs   []*Descriptor
	indices [][]any
}

// Resolve walks path against root from left to right, looking each step up
// on the runtime type of the current object.
func Resolve(root any, path Path) (*Chain, error) {
	if IsNil(root) {
		return nil, &PathError{Path: path.String(), Err: ErrNilRoot}
	}

	n := path.Len()
	c := &Chain{
		path:    path,
		links:   make([]link, max(n, 1)),
		descs:   make([]*Descriptor, n),
		indices: make([][]any, n),
	}

	c.links[0] = rootLink(root)

	if err := c.resolveFrom(0, root); err != nil {
		return nil, err
	}

	return c, nil
}

func rootLink(root any) link {
	if weakref.IsPointer(root) {
		if ref, err := weakref.Of(root); err == nil {
			return link{ref: ref}
		}
	}

	// a non-pointer root has nothing to derive from
	return link{ref: weakref.Strong(root)}
}

func (c *Chain) resolveFrom(i int, obj any) error {
	n := c.path.Len()

	for j := i; j < n; j++ {
		step := c.path.Step(j)

		d, idx, err := lookupStep(obj, step)
		if err != nil {
			return c.pathError(j, obj, err)
		}

		c.descs[j] = d
		c.indices[j] = idx

		if j == n-1 {
			break
		}

		next, err := d.GetValue(obj, idx)
		if err != nil {
			return c.pathError(j, obj, err)
		}

		if IsNil(next) {
			return c.pathError(j+1, next, ErrNilValue)
		}

		if weakref.IsPointer(next) {
			ref, err := weakref.Of(next)
			if err != nil {
				return c.pathError(j+1, next, err)
			}

			c.links[j+1] = link{ref: ref}
		} else {
			c.links[j+1] = link{derived: true}
		}

		obj = next
	}

	return nil
}

func lookupStep(obj any, step Step) (*Descriptor, []any, error) {
	if !step.Index {
		d, err := Lookup(obj, step.Name)
		return d, nil, err
	}

	d, err := LookupIndexer(obj)
	if err != nil {
		return nil, nil, err
	}

	idx, err := d.ConvertIndices(step.Args)
	if err != nil {
		return nil, nil, err
	}

	return d, idx, nil
}

func (c *Chain) pathError(step int, owner any, err error) error {
	pe := &PathError{Path: c.path.String(), Step: step, Owner: reflect.TypeOf(owner), Err: err}
	if step < c.path.Len() {
		pe.Segment = c.path.Step(step).String()
	}

	return pe
}

// Path returns the resolved path.
func (c *Chain) Path() Path {
	return c.path
}

// Len returns the number of steps N. Objects and descriptors are indexed
// 0..N-1; an identity chain has N == 0 and only the root object.
func (c *Chain) Len() int {
	return len(c.descs)
}

// Descriptor returns the i-th descriptor.
func (c *Chain) Descriptor(i int) *Descriptor {
	return c.descs[i]
}

// Indices returns the index arguments of the i-th step.
func (c *Chain) Indices(i int) []any {
	return c.indices[i]
}

// Object returns the i-th chain object. It fails with ErrCollected once a
// weakly held object has been collected.
func (c *Chain) Object(i int) (any, error) {
	l := c.links[i]
	if l.derived {
		prev, err := c.Object(i - 1)
		if err != nil {
			return nil, err
		}

		return c.descs[i-1].GetValue(prev, c.indices[i-1])
	}

	v, ok := l.ref.Value()
	if !ok {
		return nil, fmt.Errorf("chain %q object %d: %w", c.path, i, ErrCollected)
	}

	return v, nil
}

// IsDerived reports whether the i-th object is re-derived rather than held.
// Derived objects cannot be observed for changes.
func (c *Chain) IsDerived(i int) bool {
	return c.links[i].derived
}

// Relink re-reads the objects after index i, because the value of
// Descriptor(i) on Object(i) may now be a different object.
func (c *Chain) Relink(i int) error {
	obj, err := c.Object(i)
	if err != nil {
		return c.pathError(i, nil, err)
	}

	return c.resolveFrom(i, obj)
}

// Leaf returns the owner, descriptor and index arguments of the last step.
func (c *Chain) Leaf() (any, *Descriptor, []any, error) {
	n := c.Len()
	if n == 0 {
		return nil, nil, nil, ErrEmptyPath
	}

	owner, err := c.Object(n - 1)
	if err != nil {
		return nil, nil, nil, err
	}

	return owner, c.descs[n-1], c.indices[n-1], nil
}

// LeafDescriptor returns the descriptor of the last step, or nil for an
// identity chain.
func (c *Chain) LeafDescriptor() *Descriptor {
	if c.Len() == 0 {
		return nil
	}

	return c.descs[c.Len()-1]
}

// Value reads the current leaf value. For an identity chain it is the root.
func (c *Chain) Value() (any, error) {
	if c.Len() == 0 {
		return c.Object(0)
	}

	owner, d, idx, err := c.Leaf()
	if err != nil {
		return nil, err
	}

	return d.GetValue(owner, idx)
}

// SetValue writes the leaf value directly on the calling goroutine.
func (c *Chain) SetValue(value any) error {
	owner, d, idx, err := c.Leaf()
	if err != nil {
		return err
	}

	return d.SetValue(owner, value, idx)
}
