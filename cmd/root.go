package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/app"
	"github.com/JakeFAU/citesync/internal/batch"
	"github.com/JakeFAU/citesync/internal/config"
	"github.com/JakeFAU/citesync/internal/logging"
)

const defaultEnvFile = ".env"

// settingsKeyType is the key for storing loaded settings in the command context.
type settingsKeyType string

const settingsKey settingsKeyType = "settings"

// settings is what PersistentPreRunE resolves for subcommands.
type settings struct {
	cfg    config.Config
	logger *zap.Logger
}

// Syncer is the part of the application the sync command drives.
type Syncer interface {
	RunID() string
	Run(ctx context.Context) batch.Summary
	Close(ctx context.Context) error
}

// newSyncer is the application factory. It's a variable so tests can replace it.
var newSyncer = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Syncer, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile, envFile string

	cmd := &cobra.Command{
		Use:   "citesync",
		Short: "Extracts citation metadata from PDFs listed in a spreadsheet and writes it back.",
		Long: `citesync reads PDF links from the configured spreadsheet pages, sends each
selected document to a GROBID service, counts its pages, and writes title,
authors, year, keywords, and page count into the row's output columns.

Configuration comes from an optional YAML file and CITESYNC_* environment
variables; a .env file in the working directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), settingsKey, settings{cfg: cfg, logger: logger}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if s, ok := cmd.Context().Value(settingsKey).(settings); ok {
				_ = s.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (optional; CITESYNC_* env vars override it)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before configuration")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newCheckCmd())
	return cmd
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing default file is ignored; a missing explicit file is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func settingsFrom(cmd *cobra.Command) (settings, error) {
	s, ok := cmd.Context().Value(settingsKey).(settings)
	if !ok {
		return settings{}, errors.New("configuration not loaded")
	}
	return s, nil
}

// Execute is the main entry point. Only startup failures exit non-zero.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "citesync:", err)
		stop()
		os.Exit(1)
	}
}
