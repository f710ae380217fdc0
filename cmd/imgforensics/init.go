package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/imgforensics/internal/config"
)

//go:embed templates/imgforensics.yaml
var configTemplate embed.FS

const templatePath = "templates/imgforensics.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new imgforensics configuration file",
		Long: `Initialize creates a new .imgforensics configuration file in the current directory.

The generated file lists every setting with its default value:
- Timeout, concurrency and maximum file size
- Aggregation weights and disabled algorithms
- Parameters for each detection algorithm

Examples:
  # Create .imgforensics in current directory
  imgforensics init

  # Create config file at a specific path
  imgforensics init -o ~/.config/imgforensics/config.yaml

  # Force overwrite existing file
  imgforensics init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to tune the analysis, for example:")
	fmt.Fprintln(out, "  - Aggregation weights per algorithm")
	fmt.Fprintln(out, "  - Editing software signatures")
	fmt.Fprintln(out, "  - Noise thresholds and JPEG qualities")

	return nil
}
