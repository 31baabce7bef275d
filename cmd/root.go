package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/conneroisu/assetpack/internal/config"
	"github.com/conneroisu/assetpack/internal/logging"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// skipConfig marks commands that run without reading configuration.
const skipConfig = "assetpack/skip-config"

// app is the state shared by every command of one invocation.
type app struct {
	viper   *viper.Viper
	fs      afero.Fs
	out     io.Writer
	errOut  io.Writer
	loader  *config.Loader
	cfg     *config.Config
	logger  logging.Logger
	metrics *pack.Metrics
	closers []func() error

	// Bound to Viper when the command runs; pack and config share keys.
	bindings map[*cobra.Command]map[string]string
}

func newApp(fs afero.Fs, out, errOut io.Writer) *app {
	v := config.NewViper()
	return &app{
		viper:    v,
		fs:       fs,
		out:      out,
		errOut:   errOut,
		loader:   config.NewLoader(v, fs),
		logger:   logging.NewNop(),
		metrics:  pack.NewMetrics(),
		bindings: make(map[*cobra.Command]map[string]string),
	}
}

// Execute runs the command line against the real filesystem.
func Execute() error {
	a := newApp(afero.NewOsFs(), os.Stdout, os.Stderr)
	err := a.rootCommand().ExecuteContext(context.Background())
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return err
}

// NewRootCommand builds the complete command tree.
func NewRootCommand() *cobra.Command {
	return newApp(afero.NewOsFs(), os.Stdout, os.Stderr).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "assetpack",
		Short: "Incremental asset packer",
		Long: `assetpack concatenates and processes static assets (CSS, JavaScript, ...)
into packed output files, rebuilding only what changed.

Quick Start:
  assetpack pack                 Pack every stale asset
  assetpack pack app.js --force  Repack a single asset
  assetpack serve                Serve assets packed on every request
  assetpack list                 Show assets and their inputs
  assetpack config               Print the effective configuration`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return a.close()
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default assetpack.yml, or ASSETPACK_CONFIG_FILE)")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	addFlagValidation(flags, "log-level", validateLogLevel)
	mustBind(a.viper, flags, map[string]string{
		"config":     config.KeyConfigFile,
		"log-level":  config.KeyLogLevel,
		"log-format": config.KeyLogFormat,
	})

	root.AddCommand(
		a.packCommand(),
		a.serveCommand(),
		a.listCommand(),
		a.collectCommand(),
		a.configCommand(),
		a.checkCommand(),
		a.versionCommand(),
	)
	return root
}

// bindOnRun defers binding cmd's flags to Viper keys until cmd runs.
func (a *app) bindOnRun(cmd *cobra.Command, bindings map[string]string) {
	for flagName := range bindings {
		if cmd.Flags().Lookup(flagName) == nil {
			panic("cannot bind unknown flag " + flagName)
		}
	}
	a.bindings[cmd] = bindings
}

// setup loads configuration and configures logging before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	if bindings, ok := a.bindings[cmd]; ok {
		mustBind(a.viper, cmd.Flags(), bindings)
	}

	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.setupLogger(cmd.Context(), cfg); err != nil {
		return err
	}
	if cfg.File != "" {
		a.logger.Debug(cmd.Context(), "Using config file", "path", cfg.File)
	}
	return nil
}

func (a *app) setupLogger(ctx context.Context, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format := cfg.Log.Format
	if format == "" {
		format = "text"
	}
	lc := &logging.LoggerConfig{Level: level, Format: format, Output: a.errOut}
	console := logging.NewLogger(lc)

	path := cfg.Log.File
	if path != "" && !filepath.IsAbs(path) && cfg.BaseDir != "" {
		path = filepath.Join(cfg.BaseDir, path)
	}
	if path == "" && cfg.Log.Persist {
		if path, err = logging.DefaultLogFile(); err != nil {
			return err
		}
	}
	if path == "" {
		a.logger = console
		return nil
	}

	fileLogger, err := logging.NewFileLogger(lc, path, logging.DefaultRotation())
	if err != nil {
		return err
	}
	a.closers = append(a.closers, fileLogger.Close)
	a.logger = logging.NewMultiLogger(console, fileLogger)
	a.logger.Debug(ctx, "Logging to file", "path", fileLogger.Path())
	return nil
}

// settings builds validated settings from the loaded configuration. An
// ephemeral output directory is removed when the command ends unless
// keepOutput is set.
func (a *app) settings(ctx context.Context, keepOutput bool) (*config.Settings, error) {
	s, err := config.FromConfig(a.cfg).WithFs(a.fs).Build()
	if err != nil {
		return nil, err
	}
	for _, warning := range s.Warnings() {
		a.logger.Warn(ctx, nil, warning)
	}
	if s.Ephemeral() && !keepOutput {
		output := s.Output()
		a.closers = append(a.closers, func() error { return a.fs.RemoveAll(output) })
	}
	return s, nil
}

func (a *app) engine(s *config.Settings) (*pack.Engine, error) {
	return pack.New(s,
		pack.WithFs(a.fs),
		pack.WithLogger(a.logger),
		pack.WithMetrics(a.metrics),
	)
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
