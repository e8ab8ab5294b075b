package tree

import (
	"slices"
	"sync"

	"databind/notify"
)

// Element is a generic tree node. It is a native notifier: watching fails
// once the element is frozen.
//
// Types embedding Element must call Init with their own pointer so that
// notifications and lifecycle callbacks carry the outer object.
type Element struct {
	mu          sync.Mutex
	self        Node
	name        string
	parent      *Element
	children    []*Element
	dataContext any
	live        bool
	frozen      bool
	observers   []Observer

	listeners notify.Source
}

// NewElement creates a detached element.
func NewElement(name string) *Element {
	e := &Element{}
	e.Init(e, name)

	return e
}

// Init sets the outer object and the name. It must be called before the
// element is used.
func (e *Element) Init(self Node, name string) {
	e.self = self
	e.name = name
}

// AsElement returns e. Types embedding Element inherit it, which lets
// descriptors declared on elements accept them.
func (e *Element) AsElement() *Element {
	return e
}

// Self returns the outer object e was initialised with.
func (e *Element) Self() Node {
	if e.self == nil {
		return e
	}

	return e.self
}

// Name returns the element name.
func (e *Element) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.name
}

// SetName renames the element.
func (e *Element) SetName(name string) {
	e.mu.Lock()
	changed := e.name != name
	e.name = name
	e.mu.Unlock()

	if changed {
		e.Notify("Name")
	}
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.parent
}

func (e *Element) ParentNode() Node {
	p := e.Parent()
	if p == nil {
		return nil
	}

	return p.Self()
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.children)
}

// DataContext returns the local data context.
func (e *Element) DataContext() any {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.dataContext
}

// SetDataContext replaces the local data context. Descendants inheriting it
// are notified too.
func (e *Element) SetDataContext(dc any) {
	e.mu.Lock()
	e.dataContext = dc
	e.mu.Unlock()

	e.Notify(DataContextProperty)
	e.notifyInherited()
}

// notifyInherited tells every descendant without a local data context that
// the context it inherits may have changed.
func (e *Element) notifyInherited() {
	for _, c := range e.Children() {
		if c.DataContext() != nil {
			continue
		}

		c.Notify(DataContextProperty)
		c.notifyInherited()
	}
}

// AddChild attaches c under e, detaching it from its previous parent first.
// c and its subtree become live if e is live.
func (e *Element) AddChild(c *Element) {
	if old := c.Parent(); old != nil {
		old.RemoveChild(c)
	}

	e.mu.Lock()
	e.children = append(e.children, c)
	live := e.live
	e.mu.Unlock()

	c.mu.Lock()
	c.parent = e
	c.mu.Unlock()

	c.Notify("Parent")

	if c.DataContext() == nil {
		c.Notify(DataContextProperty)
		c.notifyInherited()
	}

	if live {
		c.setLive(true)
	}
}

// RemoveChild detaches c from e. c and its subtree stop being live.
func (e *Element) RemoveChild(c *Element) {
	e.mu.Lock()
	idx := slices.Index(e.children, c)
	if idx < 0 {
		e.mu.Unlock()
		return
	}

	e.children = slices.Delete(e.children, idx, idx+1)
	e.mu.Unlock()

	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()

	c.setLive(false)
	c.Notify("Parent")

	if c.DataContext() == nil {
		c.Notify(DataContextProperty)
		c.notifyInherited()
	}
}

// MakeRoot makes e the live root of a tree.
func (e *Element) MakeRoot() {
	e.setLive(true)
}

// IsLive reports whether e belongs to a live tree.
func (e *Element) IsLive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.live
}

func (e *Element) setLive(live bool) {
	e.mu.Lock()
	if e.live == live {
		e.mu.Unlock()
		return
	}

	e.live = live
	observers := slices.Clone(e.observers)
	children := slices.Clone(e.children)
	e.mu.Unlock()

	// parents go live before their children and die after them
	if live {
		for _, o := range observers {
			o.Attached(e.Self())
		}
	}

	for _, c := range children {
		c.setLive(live)
	}

	if !live {
		for _, o := range observers {
			o.Detached(e.Self())
		}
	}
}

// AddLifecycleObserver registers o once.
func (e *Element) AddLifecycleObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !slices.Contains(e.observers, o) {
		e.observers = append(e.observers, o)
	}
}

// RemoveLifecycleObserver unregisters o.
func (e *Element) RemoveLifecycleObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.observers = slices.DeleteFunc(e.observers, func(x Observer) bool { return x == o })
}

// Freeze makes every later WatchProperties call fail.
func (e *Element) Freeze() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frozen = true
}

func (e *Element) WatchProperties(l notify.Listener) error {
	e.mu.Lock()
	frozen := e.frozen
	e.mu.Unlock()

	if frozen {
		return ErrFrozen
	}

	e.listeners.AddPropertyChangedListener(l)

	return nil
}

func (e *Element) UnwatchProperties(l notify.Listener) {
	e.listeners.RemovePropertyChangedListener(l)
}

// Notify raises a change of the named property with the outer object as
// sender.
func (e *Element) Notify(name string) {
	e.listeners.Notify(e.Self(), name)
}

// Watchers returns the number of registered listeners.
func (e *Element) Watchers() int {
	return e.listeners.Len()
}
