package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"photogallery/config"
	"photogallery/logging"
	"photogallery/server"
	"photogallery/store"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	cache      string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

var rootCmd = newRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Geotagged photo gallery backed by an embedded SQLite store",
		Long: `gallery records captured photos (file reference, capture time, optional
coordinates and name) in an embedded SQLite database and keeps a cached
snapshot of the list for when the database cannot be reached.

Run "gallery serve" for the HTTP API, or use the subcommands directly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "Path to YAML config file")
	flags.StringVar(&opts.dbPath, "db", "", "Database file (overrides database.path)")
	flags.StringVar(&opts.cache, "cache", "", "Cache backend: sqlite, redis or none (overrides cache.backend)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newCaptureCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newUpdateCmd(opts))
	cmd.AddCommand(newDeleteCmd(opts))
	cmd.AddCommand(newMapCmd(opts))
	cmd.AddCommand(newCacheCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

// initialize loads the config, applies flag overrides and builds the logger.
func (o *rootOptions) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.cache != "" {
		cfg.Cache.Backend = o.cache
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Log.Level
	switch {
	case o.verbose:
		level = "debug"
	case cmd.Name() != "serve" && level == "info":
		// One-shot commands only report problems.
		level = "warn"
	}
	logger, err := logging.New(level, cfg.IsDev())
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// withRuntime opens the store and cache for the duration of fn.
func (o *rootOptions) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *server.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := server.Open(ctx, o.cfg, o.logger)
	if err != nil {
		return fmt.Errorf("open gallery: %w", err)
	}
	defer rt.Close()
	return fn(ctx, rt)
}

// withReadRuntime is withRuntime for read-only commands: when the store
// cannot be opened fn still runs, and the service serves the cached snapshot.
func (o *rootOptions) withReadRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *server.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt := server.New(o.cfg, o.logger)
	defer rt.Close()
	if err := rt.Service.Setup(ctx); err != nil && !errors.Is(err, store.ErrStoreUnavailable) {
		return fmt.Errorf("open gallery: %w", err)
	}
	return fn(ctx, rt)
}
