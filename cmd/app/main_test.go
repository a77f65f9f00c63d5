package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildSucceedsWithFailedDocument(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	root := t.TempDir()
	input := filepath.Join(root, "content")
	output := filepath.Join(root, "generated")
	writeFile(t, filepath.Join(input, "a.md"), "---\ntitle: A\n---\nA\n")
	writeFile(t, filepath.Join(input, "b.md"), "---\ntitle: B\n---\nB\n")
	// A directory where b's page module belongs makes only that write fail.
	if err := os.MkdirAll(filepath.Join(output, "files", "b.md.ts"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(root, "config.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`app:
  log_level: error
  http:
    port: 8080
content:
  input: %s
  output: %s
build:
  workers: 2
sqlite:
  path: %s
`, input, output, filepath.Join(root, "kiln.db")))

	if err := newCommand().Run(context.Background(), []string{"kiln", "-c", cfgPath, "build"}); err != nil {
		t.Fatalf("build returned %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "files", "a.md.ts")); err != nil {
		t.Errorf("a.md page missing: %v", err)
	}
}

func TestBuildFailsOnBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, "build:\n  workers: 0\n")

	if err := newCommand().Run(context.Background(), []string{"kiln", "-c", cfgPath, "build"}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}
