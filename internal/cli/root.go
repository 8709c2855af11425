// Package cli implements the kban command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/config"
	"github.com/gmllt/kban/internal/kv"
	"github.com/gmllt/kban/internal/logging"
)

type options struct {
	configPath string
	envFile    string
	backend    string
	storeFile  string
	verbose    bool
}

// app holds what commands share once the config has been loaded.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   kv.Store
	storage *board.Storage
	repo    *board.Repository
	session *board.Session
}

func (a *app) close() {
	if a == nil || a.store == nil {
		return
	}
	if err := kv.Close(a.store); err != nil {
		a.log.WithError(err).Warn("error closing store")
	}
}

var openStore = kv.Open

// newRootCmd returns the command tree and a func closing whatever store a
// command opened. Cobra skips post-run hooks when RunE fails, so the
// caller closes after Execute returns.
func newRootCmd(version string) (*cobra.Command, func()) {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:   "kban",
		Short: "kban - a Kanban task board",
		Long: `kban keeps tasks on boards with todo, doing and done columns.

Boards exist as long as a task references them. Data lives in a key-value
store: a local JSON file, redis or an S3 bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = setup(cmd, opts)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yml", "Path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file")
	root.PersistentFlags().StringVar(&opts.backend, "store", "", "Store backend override (memory, file, redis, s3)")
	root.PersistentFlags().StringVar(&opts.storeFile, "store-file", "", "File store path override")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	appFn := func() *app { return a }
	root.AddCommand(newServeCmd(appFn))
	root.AddCommand(newTasksCmd(appFn))
	root.AddCommand(newBoardsCmd(appFn))
	root.AddCommand(newPrefsCmd(appFn))
	return root, func() { a.close() }
}

func setup(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Store.Backend = opts.backend
	}
	if opts.storeFile != "" {
		cfg.Store.File.Path = opts.storeFile
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New("kban", cfg.Log)
	if err != nil {
		return nil, err
	}
	if cfg.Log.File == "" {
		logger.SetOutput(cmd.ErrOrStderr())
	}

	var seed []board.Task
	if cfg.Seed != "" {
		if seed, err = board.LoadSeed(cfg.Seed); err != nil {
			return nil, err
		}
	}

	store, err := openStore(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("error opening %s store: %w", cfg.Store.Backend, err)
	}
	logger.WithField("backend", cfg.Store.Backend).Debug("store opened")

	storage := board.NewStorage(store, seed, logger)
	return &app{
		cfg:     cfg,
		log:     logger,
		store:   store,
		storage: storage,
		repo:    board.NewRepository(storage, logger),
		session: board.NewSession(storage, logger),
	}, nil
}

// Execute runs the root command.
func Execute(version string) error {
	root, closeApp := newRootCmd(version)
	if err := execute(context.Background(), root, closeApp); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func execute(ctx context.Context, root *cobra.Command, closeApp func()) error {
	defer closeApp()
	return root.ExecuteContext(ctx)
}
