package flagparse

import (
	"testing"

	"github.com/paulschiretz/pgl-sync/pkg/config"
)

func TestParseDirMode(t *testing.T) {
	cmd, flagMap, err := Parse([]string{
		"--dir", "/src", "/dst",
		"--ignore", "/src/secrets",
		"--ignore", "/src/cache",
		"--delete", "--dry-run", "--verbose", "--sha256", "--workers", "8",
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cmd != Run {
		t.Fatalf("command = %v, want Run", cmd)
	}
	if flagMap["mode"] != config.ModeDir {
		t.Errorf("mode = %v", flagMap["mode"])
	}
	if flagMap["src"] != "/src" || flagMap["dst"] != "/dst" {
		t.Errorf("src/dst = %v/%v", flagMap["src"], flagMap["dst"])
	}
	ignores, _ := flagMap["ignore"].([]string)
	if len(ignores) != 2 || ignores[0] != "/src/secrets" || ignores[1] != "/src/cache" {
		t.Errorf("ignore = %v", ignores)
	}
	for _, key := range []string{"delete", "dry-run", "verbose", "sha256"} {
		if v, _ := flagMap[key].(bool); !v {
			t.Errorf("%s not set", key)
		}
	}
	if v, _ := flagMap["workers"].(int); v != 8 {
		t.Errorf("workers = %v", flagMap["workers"])
	}
}

func TestParseFileMode(t *testing.T) {
	cmd, flagMap, err := Parse([]string{"--file", "/src/a.txt", "/dst"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cmd != Run {
		t.Fatalf("command = %v, want Run", cmd)
	}
	if flagMap["mode"] != config.ModeFile {
		t.Errorf("mode = %v", flagMap["mode"])
	}
}

func TestParseNoModeStillRuns(t *testing.T) {
	// Without a mode the Run command falls back to persisted settings; that
	// decision belongs to the caller.
	cmd, flagMap, err := Parse([]string{"--verbose"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cmd != Run {
		t.Fatalf("command = %v, want Run", cmd)
	}
	if _, ok := flagMap["mode"]; ok {
		t.Error("mode should be absent")
	}
}

func TestParseErrors(t *testing.T) {
	cases := [][]string{
		{"--dir", "/src"},
		{"--file", "/src/a"},
		{"--ignore"},
		{"--workers", "zero"},
		{"--workers", "0"},
		{"--frobnicate"},
	}
	for _, args := range cases {
		if _, _, err := Parse(args); err == nil {
			t.Errorf("Parse(%v) should fail", args)
		}
	}
}

func TestParseSpecialCommands(t *testing.T) {
	if cmd, _, err := Parse([]string{"--version"}); err != nil || cmd != Version {
		t.Errorf("--version: cmd = %v, err = %v", cmd, err)
	}
	if cmd, _, err := Parse([]string{"--add-to-path"}); err != nil || cmd != AddToPath {
		t.Errorf("--add-to-path: cmd = %v, err = %v", cmd, err)
	}
}
