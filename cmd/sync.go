package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// newSyncCmd creates the 'sync' subcommand, which processes every configured
// sheet page (or the pages given as arguments) once.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [page...]",
		Short: "Sync citation metadata for the configured sheet pages",
		Long: `Processes each sheet page in order. For every row whose status cell is
"true", the linked PDF is downloaded, parsed, and its record written to the
row's output range. Row failures are logged and written as N/A; they never
change the exit status.`,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := settingsFrom(cmd)
	if err != nil {
		return err
	}
	cfg := s.cfg
	if len(args) > 0 {
		cfg.Sheet.Pages = args
	}

	ctx := cmd.Context()
	syncer, err := newSyncer(ctx, cfg, s.logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := syncer.Close(closeCtx); err != nil {
			s.logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	sum := syncer.Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d page(s), %s\n", syncer.RunID(), sum.Pages, sum)
	return nil
}
