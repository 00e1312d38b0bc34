package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 sample"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "bare",
			args: []string{"key", path, "Python backend engineer"},
			want: "e1a7df8eb3d8ad3a9336fc23c1350ff0_1e32ec9d205c91e700b15464b0411cfe",
		},
		{
			name: "prefixed",
			args: []string{"key", "--prefix", "match", path, "Python backend engineer"},
			want: "match:e1a7df8eb3d8ad3a9336fc23c1350ff0_1e32ec9d205c91e700b15464b0411cfe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyCommand_Errors(t *testing.T) {
	if _, err := run(t, "key", "only-one-arg"); err == nil {
		t.Error("expected argument count error")
	}
	if _, err := run(t, "key", filepath.Join(t.TempDir(), "missing"), "jd"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "matchd version: ") {
		t.Errorf("output = %q", out)
	}
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  adress: \":8000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "serve", "--config", path); err == nil {
		t.Error("expected error for unknown config key")
	}
}
