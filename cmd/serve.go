package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve every flow with an http entrypoint",
	Long: `Initialize the plugins, load the flows of the project and serve their HTTP
entrypoints until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := newHost(ctx, projectDir, os.Stdout)
		if err != nil {
			return err
		}
		defer func() {
			if err := h.shutdownTelemetry(context.Background()); err != nil {
				h.l.Error("Telemetry shutdown failed", "error", err)
			}
		}()

		flows, err := h.cfg.FlowsDir()
		if err != nil {
			return err
		}
		return h.app.Start(ctx, h.cfg.Addr(), flows)
	},
}
