package ignore

import (
	"path/filepath"
	"testing"
)

func TestSourceIgnored(t *testing.T) {
	src := filepath.FromSlash("/data/src")
	m := NewMatcher([]string{
		filepath.Join(src, "secrets"),
		filepath.Join(src, "logs", "old"),
	})

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(src, "secrets"), true},
		{filepath.Join(src, "secrets", "pw"), true},
		{filepath.Join(src, "secrets", "deep", "er"), true},
		{filepath.Join(src, "secretsfile"), false},
		{filepath.Join(src, "logs"), false},
		{filepath.Join(src, "logs", "old"), true},
		{filepath.Join(src, "logs", "old", "a.log"), true},
		{filepath.Join(src, "logs", "new", "a.log"), false},
		{filepath.Join(src, "a.txt"), false},
	}
	for _, tt := range tests {
		if got := m.SourceIgnored(tt.path); got != tt.want {
			t.Errorf("SourceIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDestEquivalentIgnored(t *testing.T) {
	src := filepath.FromSlash("/data/src")
	dst := filepath.FromSlash("/backup/dst")
	m := NewMatcher([]string{filepath.Join(src, "secrets")})

	if !m.DestEquivalentIgnored(dst, filepath.Join(dst, "secrets", "pw"), src) {
		t.Error("destination entry under projected ignore should be ignored")
	}
	if m.DestEquivalentIgnored(dst, filepath.Join(dst, "public", "a.txt"), src) {
		t.Error("unrelated destination entry should not be ignored")
	}
}

func TestEmptyEntriesDropped(t *testing.T) {
	m := NewMatcher([]string{""})
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
	if m.SourceIgnored(filepath.FromSlash("/anything")) {
		t.Error("empty ignore entry must not match")
	}
}
