package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/imgforensics/internal/config"
	"github.com/nao1215/imgforensics/internal/forensics"
)

// NewAlgorithmsCmd creates the algorithms command.
func NewAlgorithmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the available detection algorithms",
		Long: `List every detection algorithm that analyze runs, with its aggregation
weight. Weights and disabled algorithms from the configuration file are
taken into account.

Examples:
  # Show the algorithms in a table
  imgforensics algorithms

  # Machine-readable listing
  imgforensics algorithms --json`,
		Args: cobra.NoArgs,
		RunE: runAlgorithmsCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .imgforensics in current or home directory)")
	cmd.Flags().BoolP("json", "j", false, "Output the listing as JSON")

	return cmd
}

// runAlgorithmsCmd executes the algorithms command.
func runAlgorithmsCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := applyConfigFile(cfg); err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	engine, err := cfg.NewEngine()
	if err != nil {
		return err
	}

	if asJSON {
		return writeAlgorithmsJSON(cmd.OutOrStdout(), engine.Algorithms())
	}
	return writeAlgorithmsTable(cmd.OutOrStdout(), engine.Algorithms(), cfg.Disabled)
}

// writeAlgorithmsJSON writes the listing as an indented JSON array.
func writeAlgorithmsJSON(w io.Writer, infos []forensics.AlgorithmInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}

// writeAlgorithmsTable writes one row per enabled algorithm, then the
// disabled ones.
func writeAlgorithmsTable(w io.Writer, infos []forensics.AlgorithmInfo, disabled []forensics.AlgorithmID) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWEIGHT\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", info.ID, info.Name, info.Weight, info.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(disabled) > 0 {
		names := make([]string, 0, len(disabled))
		for _, id := range disabled {
			names = append(names, id.String())
		}
		_, err := fmt.Fprintf(w, "\nDisabled: %s\n", strings.Join(names, ", "))
		return err
	}
	return nil
}
