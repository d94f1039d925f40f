package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-radio/songdesk/config"
	"github.com/campus-radio/songdesk/internal/bootstrap"
	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool

	logger *zap.Logger
	app    *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "songctl",
	Short: "Maintenance commands for the songdesk request backend",
	Long: `songctl works on the same Redis and Postgres stores as the API server.

It reads the same environment (and .env file) as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		level := cfg.App.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(cfg.App.Environment, level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		app, err = bootstrap.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("connect stores: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	accountsCmd.AddCommand(accountsSeedCmd, accountsListCmd, accountsPasswdCmd)
	rootCmd.AddCommand(accountsCmd, pruneCmd, exportCmd, purgeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
