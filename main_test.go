package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var summaryLine = regexp.MustCompile(`^Simulation démarrée: entités=\d+ nourriture=\d+\n$`)

func TestRunDefaults(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if got, want := stdout.String(), "Simulation démarrée: entités=15 nourriture=20\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRunWithTicksPrintsSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-seed", "7", "-ticks", "120"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !summaryLine.MatchString(stdout.String()) {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
}

func TestRunCountOverrides(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-herbivores", "3", "-carnivores", "0", "-food", "7", "-capacity", "10"}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if got := stdout.String(); got != "Simulation démarrée: entités=3 nourriture=7\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"missing config", []string{"-config", filepath.Join(os.TempDir(), "does-not-exist.yaml")}},
		{"zero capacity", []string{"-capacity", "0"}},
		{"negative width", []string{"-width", "-5"}},
		{"negative herbivores", []string{"-herbivores", "-1"}},
		{"missing snapshot", []string{"-snapshot", filepath.Join(os.TempDir(), "no-snapshot.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout should be empty on error, got %q", stdout.String())
			}
		})
	}
}

func TestRunSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-seed", "5", "-ticks", "60", "-save-snapshot", dir}, &stdout, &stderr); code != 0 {
		t.Fatalf("save run failed: %s", stderr.String())
	}
	saved := stdout.String()

	matches, err := filepath.Glob(filepath.Join(dir, "snapshot_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one snapshot file, got %v (%v)", matches, err)
	}

	stdout.Reset()
	if code := run([]string{"-snapshot", matches[0]}, &stdout, &stderr); code != 0 {
		t.Fatalf("restore run failed: %s", stderr.String())
	}
	if stdout.String() != saved {
		t.Errorf("restored summary %q, want %q", stdout.String(), saved)
	}
}
