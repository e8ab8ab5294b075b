// Package diagnostic collects structured binding diagnostics: failures,
// converter arity mismatches and recovered panics.
//
// Library packages log through slog with a "code" attribute; Recorder is a
// slog.Handler that turns such records into Diagnostics so tools and tests
// can inspect them.
package diagnostic
