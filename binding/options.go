package binding

import (
	"log/slog"

	"golang.org/x/text/language"

	"databind/convert"
	"databind/dispatch"
	"databind/primitive"
)

type config struct {
	source     any
	hasSource  bool
	mode       Mode
	converter  convert.Converter
	parameter  any
	culture    language.Tag
	executor   dispatch.Executor
	logger     *slog.Logger
	failures   *Failures
	categories primitive.CategoryEnum
}

// Option configures a Binding or a MultiBinding.
type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{
		culture:    language.Und,
		executor:   dispatch.Inline{},
		categories: primitive.CategoryDefault,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	if cfg.failures == nil {
		cfg.failures = NewFailures(cfg.logger)
	}

	return cfg
}

// WithSource sets an explicit source object. Without it the source is the
// ambient data context of the target, or the target itself.
func WithSource(source any) Option {
	return func(c *config) {
		c.source = source
		c.hasSource = true
	}
}

// WithMode sets the binding mode.
func WithMode(mode Mode) Option {
	return func(c *config) { c.mode = mode }
}

// WithConverter sets the value converter. Ignored by MultiBinding, which
// takes its converter in NewMulti.
func WithConverter(conv convert.Converter) Option {
	return func(c *config) { c.converter = conv }
}

// WithConverterParameter sets the parameter passed to every converter call.
func WithConverterParameter(parameter any) Option {
	return func(c *config) { c.parameter = parameter }
}

// WithCulture sets the culture passed to every converter call.
func WithCulture(culture language.Tag) Option {
	return func(c *config) { c.culture = culture }
}

// WithExecutor sets the affinity context owning every write.
func WithExecutor(e dispatch.Executor) Option {
	return func(c *config) { c.executor = e }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithFailures sets the failure channel. Bindings get a private channel
// otherwise.
func WithFailures(f *Failures) Option {
	return func(c *config) { c.failures = f }
}

// WithCoercion sets the conversion categories used to fit converted values
// into property types.
func WithCoercion(categories primitive.CategoryEnum) Option {
	return func(c *config) { c.categories = categories }
}
