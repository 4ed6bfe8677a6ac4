package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sflowg/supadata/runtime"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the configured Supadata API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := newHost(ctx, projectDir, os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = h.close(context.Background()) }()

		if err := h.app.Container.Initialize(ctx); err != nil {
			return err
		}

		task := h.app.Container.GetTask("supadata.health")
		if task == nil {
			return fmt.Errorf("task supadata.health is not registered")
		}
		exec, err := h.app.NewExecution(ctx, &runtime.Flow{ID: "health"})
		if err != nil {
			return err
		}

		out, err := task.Execute(exec, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}
