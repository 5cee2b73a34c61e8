package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_DryRunPrintsConfigAndExits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-datadir", dir, "-dry-run"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "\"data_dir\"") {
		t.Fatalf("stdout missing config JSON: %s", stdout.String())
	}
}

func TestRun_InvalidLogLevelFailsValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-datadir", dir, "-log-level", "verbose", "-dry-run"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "log_level") {
		t.Fatalf("stderr should mention log_level: %s", stderr.String())
	}
}

func TestRun_InvalidListenAddrFailsValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-datadir", dir, "-listen", "not-an-addr", "-dry-run"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRun_UnknownFlagReturnsUsageExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-nonexistent"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}
