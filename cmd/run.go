package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sflowg/supadata/runtime"
	"github.com/spf13/cobra"
)

var inputFile string

var runCmd = &cobra.Command{
	Use:   "run <flow-id>",
	Short: "Execute a flow once and print its result",
	Long: `Execute a flow once. The JSON document given with --input (or "-" for stdin)
becomes request.body. The result printed is the flow's return body, or the
error as JSON when the flow fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := newHost(ctx, projectDir, os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = h.close(context.Background()) }()

		if err := h.start(ctx); err != nil {
			return err
		}

		body, err := readInput(cmd.InOrStdin(), inputFile)
		if err != nil {
			return err
		}

		exec, runErr := h.app.Run(ctx, args[0], body)
		if runErr != nil {
			fe := runtime.AsFlowError(runErr, "")
			if err := printJSON(cmd.OutOrStdout(), map[string]any{"error": fe.ToMap()}); err != nil {
				return err
			}
			return runErr
		}
		return printJSON(cmd.OutOrStdout(), result(exec))
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", `JSON file used as request body ("-" reads stdin)`)
}

// readInput decodes the request body. No input means no body.
func readInput(stdin io.Reader, path string) (any, error) {
	var r io.Reader
	switch path {
	case "":
		return nil, nil
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var body any
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return body, nil
}

// result is the body of the flow's return step, or every stored value when
// the flow has none.
func result(exec *runtime.Execution) any {
	if rd := exec.ResponseDescriptor; rd != nil {
		if body, ok := rd.Args["body"]; ok {
			return body
		}
		return rd.Args
	}
	return exec.Values()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
