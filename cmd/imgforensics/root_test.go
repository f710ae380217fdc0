package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "imgforensics" {
			t.Errorf("expected use 'imgforensics', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log format flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("log-format")
		if flag == nil {
			t.Fatal("expected log-format flag")
		}
		if flag.DefValue != logFormatText {
			t.Errorf("expected default %q, got %q", logFormatText, flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{
			"analyze":    false,
			"algorithms": false,
			"watch":      false,
			"init":       false,
			"version":    false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

// TestNewLogger tests logger selection from the persistent flags.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, args ...string) (string, error) {
		t.Helper()

		var logs bytes.Buffer
		var loggerErr error
		root := NewRootCmd()
		root.AddCommand(&cobra.Command{
			Use: "probe",
			RunE: func(cmd *cobra.Command, _ []string) error {
				logger, err := newLogger(cmd, &logs)
				if err != nil {
					loggerErr = err
					return nil
				}
				logger.Warn("probe", "GPSLatitude", "35/1, 39/1, 3100/100")
				return nil
			},
		})
		root.SetArgs(append([]string{"probe"}, args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return logs.String(), loggerErr
	}

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		out, err := run(t)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "msg=probe") {
			t.Errorf("expected text log, got %q", out)
		}
		if strings.Contains(out, "3100/100") {
			t.Errorf("expected GPS value to be masked, got %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--log-format", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "{") {
			t.Errorf("expected JSON log, got %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, "--log-format", "xml")
		if err == nil {
			t.Fatal("expected error for unknown log format")
		}
	})
}
