package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/citesync/internal/grobid"
)

// newCheckCmd creates the 'check' subcommand, which validates configuration
// and prints what a sync would touch without contacting any service.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print the resolved sync plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			cfg := s.cfg
			layout := cfg.Layout()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:  %s\n", cfg.Sheet.Backend)
			fmt.Fprintf(out, "pages:    %v\n", cfg.Sheet.Pages)
			fmt.Fprintf(out, "columns:  url=%s status=%s output=%s:%s from row %d\n",
				layout.URLColumn, layout.StatusColumn, layout.OutputStartColumn, layout.OutputEndColumn, layout.FirstOutputRow)
			fmt.Fprintf(out, "grobid:   %s (timeout %s)\n",
				grobid.EndpointFor(cfg.Grobid.Scheme, cfg.Grobid.Host, cfg.Grobid.Port), cfg.GrobidTimeout())
			fmt.Fprintf(out, "download: timeout %s\n", cfg.DownloadTimeout())
			fmt.Fprintf(out, "publish:  %t\n", cfg.PublishEnabled())
			return nil
		},
	}
}
