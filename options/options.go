// Package options holds the engine settings shared by bindctl commands and
// loads them with viper from defaults, a YAML file, DATABIND_ environment
// variables and bound flags, in increasing priority.
package options

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"databind/binding"
	"databind/convert"
	"databind/internal/logs"
	"databind/primitive"
)

const (
	EnvPrefix  = "DATABIND"
	ConfigName = "databind"

	KeyMode      = "mode"
	KeyCulture   = "culture"
	KeyCoercion  = "coercion"
	KeyConverter = "converter"
	KeyQueueSize = "queue_size"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyJournal   = "log.journal"
)

// Options configures bindings built by bindctl.
type Options struct {
	// Mode is the mode of bindings that do not set one.
	Mode    string `mapstructure:"mode" yaml:"mode"`
	Culture string `mapstructure:"culture" yaml:"culture"`
	// Coercion lists the primitive conversion categories, see
	// primitive.ParseCategories.
	Coercion []string `mapstructure:"coercion" yaml:"coercion"`
	// Converter names a converter in the registry.
	Converter string `mapstructure:"converter" yaml:"converter,omitempty"`
	// QueueSize is the capacity of the dispatch loop.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
	Log       Log `mapstructure:"log" yaml:"log"`
}

type Log struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Format  string `mapstructure:"format" yaml:"format"`
	Journal bool   `mapstructure:"journal" yaml:"journal"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMode, binding.Default.String())
	v.SetDefault(KeyCulture, language.Und.String())
	v.SetDefault(KeyCoercion, []string{"default"})
	v.SetDefault(KeyConverter, "")
	v.SetDefault(KeyQueueSize, 64)
	v.SetDefault(KeyLogLevel, slog.LevelInfo.String())
	v.SetDefault(KeyLogFormat, string(logs.FormatAuto))
	v.SetDefault(KeyJournal, true)
}

// Load reads options into a fresh struct. If file is empty, databind.yaml
// is looked up in the working directory and may be missing. A nil v gets a
// new viper instance.
func Load(v *viper.Viper, file string) (*Options, error) {
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	o := &Options{}
	if err := v.Unmarshal(o); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return o, nil
}

// Validate checks every field and reports all problems at once.
func (o *Options) Validate() error {
	var errs error

	if _, err := binding.ParseMode(o.Mode); err != nil {
		errs = multierr.Append(errs, err)
	}

	if _, err := language.Parse(o.Culture); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("culture: %w", err))
	}

	if _, err := primitive.ParseCategories(o.Coercion); err != nil {
		errs = multierr.Append(errs, err)
	}

	if o.QueueSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("queue_size must be positive, got %d", o.QueueSize))
	}

	if _, err := o.Level(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if _, ok := logs.ParseFormat(o.Log.Format); !ok {
		errs = multierr.Append(errs, fmt.Errorf("unknown log format %q", o.Log.Format))
	}

	return errs
}

// Level parses Log.Level.
func (o *Options) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(o.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}

	return l, nil
}

// LogConfig returns the logger outputs described by o.
func (o *Options) LogConfig() logs.Config {
	format, _ := logs.ParseFormat(o.Log.Format)

	return logs.Config{Format: format, Journal: o.Log.Journal}
}

// BindingOptions turns o into binding options. The converter, if named, is
// looked up in reg.
func (o *Options) BindingOptions(reg *convert.Registry) ([]binding.Option, error) {
	mode, err := binding.ParseMode(o.Mode)
	if err != nil {
		return nil, err
	}

	culture, err := language.Parse(o.Culture)
	if err != nil {
		return nil, fmt.Errorf("culture: %w", err)
	}

	categories, err := primitive.ParseCategories(o.Coercion)
	if err != nil {
		return nil, err
	}

	opts := []binding.Option{
		binding.WithMode(mode),
		binding.WithCulture(culture),
		binding.WithCoercion(categories),
	}

	if o.Converter != "" {
		c := reg.Get(o.Converter)
		if c == nil {
			return nil, fmt.Errorf("unknown converter %q", o.Converter)
		}

		opts = append(opts, binding.WithConverter(c))
	}

	return opts, nil
}

// YAML renders o in the config file format.
func (o *Options) YAML() ([]byte, error) {
	return yaml.Marshal(o)
}
