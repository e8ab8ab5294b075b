package diagnostic

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Attribute keys read by Recorder besides CodeKey.
const (
	BindingKey = "binding"
	PathKey    = "target_path"
)

// Recorder is a slog.Handler that keeps every record carrying a CodeKey
// attribute as a Diagnostic. Records without a code are dropped.
type Recorder struct {
	state *recorderState
	level slog.Leveler
	attrs []slog.Attr
}

type recorderState struct {
	mu    sync.Mutex
	diags Diagnostics
}

// NewRecorder creates a recorder for records at level or above. A nil level
// records everything down to debug.
func NewRecorder(level slog.Leveler) *Recorder {
	if level == nil {
		level = slog.LevelDebug
	}

	return &Recorder{state: &recorderState{}, level: level}
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level.Level()
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	diag := Diagnostic{Message: rec.Message, Severity: severityOf(rec.Level)}

	apply := func(a slog.Attr) bool {
		switch a.Key {
		case CodeKey:
			diag.Code = a.Value.String()
		case BindingKey:
			diag.Binding = a.Value.String()
		case PathKey:
			diag.Path = a.Value.String()
		}

		return true
	}

	for _, a := range r.attrs {
		apply(a)
	}

	rec.Attrs(apply)

	if diag.Code == "" {
		return nil
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	r.state.diags.Add(diag)

	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Recorder{
		state: r.state,
		level: r.level,
		attrs: append(slices.Clip(r.attrs), attrs...),
	}
}

// WithGroup keeps attributes flat; codes are looked up by key only.
func (r *Recorder) WithGroup(_ string) slog.Handler {
	return r
}

// Diagnostics returns a snapshot of what was recorded.
func (r *Recorder) Diagnostics() *Diagnostics {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	d := &Diagnostics{}
	d.Merge(r.state.diags)

	return d
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	r.state.diags = Diagnostics{}
}

func severityOf(level slog.Level) Severity {
	switch {
	case level >= slog.LevelError:
		return SeverityError
	case level >= slog.LevelWarn:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
