package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var projectDir string

var rootCmd = &cobra.Command{
	Use:   "supadata",
	Short: "Supadata workflows - content extraction flows on the sflowg runtime",
	Long: `supadata runs YAML-defined flows that fetch YouTube metadata and transcripts,
universal transcripts, scraped web pages and AI extractions from the Supadata API.

Flows and plugin settings are read from the project directory (sflowg.yaml).`,
	SilenceUsage: true,
}

// ExecuteContext runs the root command with ctx as the commands' context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", ".", "project directory containing sflowg.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(healthCmd)
}
