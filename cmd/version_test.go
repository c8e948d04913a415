package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn and returns everything it printed to stdout.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	if err := fn(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	r.Close()
	return buf.String()
}

func TestRunVersion(t *testing.T) {
	originalAppVersion := AppVersion
	originalBuildTime := BuildTime
	originalGitCommit := GitCommit
	defer func() {
		AppVersion = originalAppVersion
		BuildTime = originalBuildTime
		GitCommit = originalGitCommit
	}()

	AppVersion = "1.0.0"
	BuildTime = "2026-01-01T00:00:00Z"
	GitCommit = "abc123"
	t.Setenv("GEMINI_API_KEY", "test-key-1234567890")

	output := captureStdout(t, runVersion)

	for _, expected := range []string{
		"Retriva 1.0.0",
		"Build Time: 2026-01-01T00:00:00Z",
		"Git Commit: abc123",
		"GEMINI_API_KEY: test...7890 (configured)",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected output to contain %q\nGot: %s", expected, output)
		}
	}
}

func TestRunVersion_APIKeyMasking(t *testing.T) {
	originalAppVersion := AppVersion
	defer func() { AppVersion = originalAppVersion }()
	AppVersion = "test"

	tests := []struct {
		name     string
		apiKey   string
		expected string
	}{
		{"standard key", "AIzaSyAbCdEfGh1234567890", "AIza...7890"},
		{"exactly 8 chars", "12345678", "1234...5678"},
		{"short key not echoed", "test", "GEMINI_API_KEY: (configured)"},
		{"empty key", "", "GEMINI_API_KEY: Not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", tt.apiKey)

			output := captureStdout(t, runVersion)

			if !strings.Contains(output, tt.expected) {
				t.Errorf("expected output to contain %q\nGot: %s", tt.expected, output)
			}
			// The full key must never appear in output.
			if len(tt.apiKey) > 8 && strings.Contains(output, tt.apiKey) {
				t.Error("full API key leaked into version output")
			}
		})
	}
}
