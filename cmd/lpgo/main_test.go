package main

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := rootCmd

	if cmd == nil {
		t.Fatal("Expected root command to be created")
	}

	if cmd.Use != "lpgo" {
		t.Errorf("Expected root command use to be 'lpgo', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Expected root command to have a short description")
	}

	if cmd.Long == "" {
		t.Error("Expected root command to have a long description")
	}
}

func TestCommandSubcommands(t *testing.T) {
	expectedCommands := []string{
		"calculate",
		"validate",
		"monte-carlo",
		"scenario",
		"version",
	}

	cmd := rootCmd.Commands()
	for _, expectedCmd := range expectedCommands {
		found := false
		for _, c := range cmd {
			if c.Name() == expectedCmd {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected command '%s' to be registered with root command", expectedCmd)
		}
	}
}

func TestCalculateCommandFlags(t *testing.T) {
	for _, name := range []string{"format", "debug", "education", "dividends"} {
		if calculateCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected calculate command to define flag '%s'", name)
		}
	}

	if f := calculateCmd.Flags().Lookup("format"); f != nil && f.DefValue != "console" {
		t.Errorf("Expected format flag to default to console, got %s", f.DefValue)
	}
}

func TestMonteCarloCommandFlags(t *testing.T) {
	flags := map[string]string{
		"trials":        "300",
		"return-std":    "0.08",
		"seed":          "42",
		"mode":          "per-trial",
		"workers":       "0",
		"actual-offset": "0",
		"actual-age":    "0",
	}

	for name, def := range flags {
		f := montecarloCmd.Flags().Lookup(name)
		if f == nil {
			t.Errorf("Expected monte-carlo command to define flag '%s'", name)
			continue
		}
		if f.DefValue != def {
			t.Errorf("Expected flag '%s' to default to %s, got %s", name, def, f.DefValue)
		}
	}
}
