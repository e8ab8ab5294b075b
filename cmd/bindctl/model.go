package main

import (
	"sync"

	"databind/notify"
	"databind/property"
)

// contact is the view model bound by the demo.
type contact struct {
	notify.Source

	mu   sync.Mutex
	name string
	age  int
}

func (c *contact) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.name
}

func (c *contact) SetName(v string) {
	c.mu.Lock()
	changed := c.name != v
	c.name = v
	c.mu.Unlock()

	if changed {
		c.Notify(c, "Name")
	}
}

func (c *contact) Age() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.age
}

func (c *contact) SetAge(v int) {
	c.mu.Lock()
	changed := c.age != v
	c.age = v
	c.mu.Unlock()

	if changed {
		c.Notify(c, "Age")
	}
}

var _ = property.Register[contact](
	property.Property("Name", (*contact).Name, (*contact).SetName),
	property.Property("Age", (*contact).Age, (*contact).SetAge),
)
