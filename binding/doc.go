// Package binding keeps a target property and a source property path in
// sync.
//
// A Binding resolves its source path against an explicit source, the
// ambient data context of a tree node, or the target itself. It listens for
// change notifications on every object along both paths, re-resolves the
// tail when an intermediate link changes and pushes values in the direction
// its Mode allows. Objects along a path are held weakly.
//
// A MultiBinding combines the values of several child bindings through a
// convert.MultiConverter and splits target edits back across them.
//
// Operations is the per-target registry. It defers activation until a
// target is live and follows tree attach and detach events.
//
// Failures are published on a Failures channel. A subscriber can ignore an
// update error to keep the binding running; anything else tears it down.
package binding
