package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	seclog "github.com/nao1215/imgforensics/internal/log"
)

// Log output formats accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// NewRootCmd creates the root command for imgforensics.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgforensics",
		Short: "Detect signs of manipulation in still images",
		Long: `imgforensics is an image forensics tool that estimates how likely a
photo has been edited.

Each image is examined by four independent algorithms:
- Error level analysis (JPEG recompression residue)
- Metadata consistency (editing software, timestamps, dimensions)
- Noise pattern analysis (uneven sensor noise across blocks)
- JPEG quality estimation (quality mismatch after re-saving)

Their scores are combined into a confidence score and a low, medium or
high risk level. Sensitive metadata such as GPS tags and serial numbers
is never written to the logs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log output format (text or json)")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewAlgorithmsCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger builds the secure logger selected by the persistent flags.
// Logs always go to w, never to the report output.
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	verbose := getVerboseFlag(cmd)

	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format = logFormatText
	}

	switch format {
	case logFormatText:
		return seclog.NewSecureLogger(w, verbose), nil
	case logFormatJSON:
		return seclog.NewSecureJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (use %s or %s)", format, logFormatText, logFormatJSON)
	}
}
