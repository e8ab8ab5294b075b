package tree

import (
	"sync"

	"databind/property"
)

// Input is a text input element. Its Text property binds two-way unless a
// binding asks otherwise.
type Input struct {
	Element

	mu   sync.Mutex
	text string
}

// NewInput creates a detached input.
func NewInput(name string) *Input {
	in := &Input{}
	in.Init(in, name)

	return in
}

// Text returns the current text.
func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()

	return in.text
}

// SetText replaces the text, as a user edit would.
func (in *Input) SetText(text string) {
	in.mu.Lock()
	changed := in.text != text
	in.text = text
	in.mu.Unlock()

	if changed {
		in.Notify("Text")
	}
}

// Elementer is implemented by Element and every type embedding it.
type Elementer interface {
	AsElement() *Element
}

var (
	// DataContextDescriptor is the local data context of any element.
	DataContextDescriptor = property.Property(DataContextProperty,
		func(e Elementer) any { return e.AsElement().DataContext() },
		func(e Elementer, v any) { e.AsElement().SetDataContext(v) })

	// NameDescriptor is the element name.
	NameDescriptor = property.Property("Name",
		func(e Elementer) string { return e.AsElement().Name() },
		func(e Elementer, v string) { e.AsElement().SetName(v) })

	// TextDescriptor is the text of an Input.
	TextDescriptor = property.Property("Text",
		(*Input).Text,
		(*Input).SetText).
		TwoWayByDefault()

	ElementInfo = property.Register[Element](DataContextDescriptor, NameDescriptor)
	InputInfo   = property.Register[Input](TextDescriptor).Include(ElementInfo)
)
