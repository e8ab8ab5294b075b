package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"databind/binding"
	"databind/convert"
	"databind/dispatch"
	"databind/tree"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Bind a contact to text inputs and edit both sides",
		Long: `demo binds contact.Name two ways to a text input and a
summary input to Name and Age through a join converter. Element writes
happen on a dispatch loop; contact edits come from the command goroutine
and are posted to the loop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.demo(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

type session struct {
	loop    *dispatch.Loop
	ops     *binding.Operations
	person  *contact
	window  *tree.Element
	name    *tree.Input
	summary *tree.Input
}

func (a *app) demo(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := dispatch.NewLoop(a.opts.QueueSize, a.logger)

	stopped := make(chan error, 1)
	go func() { stopped <- loop.Run(ctx) }()

	defer func() {
		cancel()
		<-stopped
	}()

	// onLoop runs fn on the loop and waits; tasks posted earlier run first.
	onLoop := func(fn func()) {
		done := make(chan struct{})
		loop.Post(func() {
			defer close(done)
			fn()
		})
		<-done
	}

	s := &session{loop: loop, ops: binding.NewOperations(a.logger), person: &contact{name: "Ann", age: 36}}

	unsubscribe := s.ops.Failures().Subscribe(func(ev *binding.FailureEvent) {
		fmt.Fprintf(out, "failure on %s: %v (%s)\n", ev.TargetPath, ev.Err, ev.Status)
	})
	defer unsubscribe()

	var err error

	onLoop(func() { err = a.build(s) })
	if err != nil {
		return err
	}

	show := func(step string) {
		onLoop(func() {
			fmt.Fprintf(out, "%-22s Text=%q Summary=%q Name=%q\n",
				step, s.name.Text(), s.summary.Text(), s.person.Name())
		})
	}

	show("attached:")

	s.person.SetName("Bob")
	show("source edit:")

	onLoop(func() { s.name.SetText("Alice") })
	show("target edit:")

	s.person.SetAge(37)
	show("age edit:")

	onLoop(func() { s.window.RemoveChild(&s.name.Element) })
	s.person.SetName("Carol")
	show("detached:")

	onLoop(func() { s.window.AddChild(&s.name.Element) })
	show("reattached:")

	onLoop(func() { s.ops.ClearAllBindings(s.name) })
	s.person.SetName("Dave")
	show("cleared:")

	recorded := a.recorder.Diagnostics()
	fmt.Fprintf(out, "diagnostics: %d\n", len(recorded.All()))

	return nil
}

// build creates the element tree and installs the bindings. It runs on the
// loop.
func (a *app) build(s *session) error {
	opts, err := a.opts.BindingOptions(convert.NewRegistry())
	if err != nil {
		return err
	}

	opts = append(opts,
		binding.WithExecutor(s.loop),
		binding.WithLogger(a.logger),
		binding.WithFailures(s.ops.Failures()))

	s.window = tree.NewElement("window")
	s.window.SetDataContext(s.person)

	s.name = tree.NewInput("name")
	s.summary = tree.NewInput("summary")

	name, err := binding.New("Name", append(opts, binding.WithMode(binding.TwoWay))...)
	if err != nil {
		return err
	}

	if err := s.ops.SetBinding(s.name, tree.TextDescriptor.Name, name); err != nil {
		return err
	}

	summary, err := binding.NewMulti(convert.Join{Sep: ", "}, append(opts, binding.WithMode(binding.OneWay))...)
	if err != nil {
		return err
	}

	for _, path := range []string{"Name", "Age"} {
		child, err := binding.New(path)
		if err != nil {
			return err
		}

		summary.Add(child)
	}

	if err := s.ops.SetBinding(s.summary, tree.TextDescriptor.Name, summary); err != nil {
		return err
	}

	s.window.AddChild(&s.name.Element)
	s.window.AddChild(&s.summary.Element)
	s.window.MakeRoot()

	a.logger.Debug("demo bindings installed", slog.Int("targets", s.ops.Len()))

	return nil
}
