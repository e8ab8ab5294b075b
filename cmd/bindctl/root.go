package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"databind/internal/diagnostic"
	"databind/internal/logs"
	"databind/options"
)

// app is the state shared by subcommands once the root has loaded options.
type app struct {
	configFile string
	v          *viper.Viper
	opts       *options.Options
	logger     *slog.Logger
	recorder   *diagnostic.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "bindctl",
		Short: "bindctl drives the databind engine",
		Long: `bindctl loads the databind engine settings from databind.yaml,
DATABIND_ environment variables and flags, and runs bindings against
stand-in UI elements.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./databind.yaml)")
	flags.String("mode", "", "default binding mode")
	flags.String("culture", "", "converter culture, a BCP 47 tag")
	flags.StringSlice("coercion", nil, "allowed coercion categories")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: auto, text, json")

	for key, flag := range map[string]string{
		options.KeyMode:      "mode",
		options.KeyCulture:   "culture",
		options.KeyCoercion:  "coercion",
		options.KeyLogLevel:  "log-level",
		options.KeyLogFormat: "log-format",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newVersionCmd(), newConfigCmd(a), newDemoCmd(a))

	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	o, err := options.Load(a.v, a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := o.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := o.Level()
	logs.Level.Set(level)

	a.recorder = diagnostic.NewRecorder(slog.LevelInfo)

	cfg := o.LogConfig()
	cfg.Writer = cmd.ErrOrStderr()
	cfg.Recorder = a.recorder

	a.opts = o
	a.logger = logs.New(cfg)

	return nil
}
