package cmd

import (
	"log/slog"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	expected := []string{"ask", "ingest", "serve", "collections", "version"}

	for _, name := range expected {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				if cmd.Short == "" {
					t.Errorf("subcommand %q has empty Short description", name)
				}
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRootCmd_Descriptions(t *testing.T) {
	if rootCmd.Use != "retriva" {
		t.Errorf("Use = %q, want %q", rootCmd.Use, "retriva")
	}
	if rootCmd.Short == "" {
		t.Error("expected non-empty Short description")
	}
	if rootCmd.Long == "" {
		t.Error("expected non-empty Long description")
	}
}

func TestInitLogger_DebugEnv(t *testing.T) {
	t.Setenv("DEBUG", "1")
	logger := initLogger()
	if !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected debug level when DEBUG is set")
	}
}

func TestInitLogger_Default(t *testing.T) {
	t.Setenv("DEBUG", "")
	logger := initLogger()
	if logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected info level when DEBUG is unset")
	}
	if !logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("expected info level to be enabled")
	}
}
