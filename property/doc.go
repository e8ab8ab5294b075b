// Package property describes bindable properties and resolves property
// paths against live object graphs.
//
// Each bindable type registers a static table of descriptors with Register.
// A descriptor carries the property name, its owner and value types, a
// read-only flag, per-owner-type metadata, and closures that read and write
// the value. Types without a table are reached through a cached reflection
// fallback: exported struct fields, string-keyed map entries, and indexers
// on slices, arrays and maps.
//
// # Path Syntax
//
// Property paths support:
//   - Simple properties: "Name"
//   - Nested properties: "Address.Street"
//   - Indexers: "Items[2]", "Items[2].Name", "[0]"
//   - Multi-argument indexers: "Cells[1,2]"
//   - The identity path: ""
//
// Index arguments are converted to the indexer key types once, when the path
// is resolved.
//
// # Chains
//
// Resolve produces a Chain: the objects visited while walking the path and
// the descriptor read at each step. Objects are held through weak
// references, so a chain never keeps the observed graph alive. Relink
// re-walks the tail of a chain after an intermediate value changed.
package property
