package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestFastSmallFileHashesWholeContent(t *testing.T) {
	content := []byte("hello fingerprint")
	path := writeTemp(t, "small.txt", content)

	fpr := New(Fast)
	got, err := fpr.File(path)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	h := fnv.New64a()
	h.Write(content)
	if want := fmt.Sprintf("%016x", h.Sum64()); got != want {
		t.Errorf("fast fingerprint = %s, want %s", got, want)
	}
}

func TestFastLargeFileHashesHeadAndTail(t *testing.T) {
	// Build a file twice the whole-file limit whose middle differs from
	// a twin; head and tail are identical, so the fast fingerprints must
	// collide by design.
	size := fastWholeFileLimit + 2*fastChunkSize
	a := bytes.Repeat([]byte{'a'}, size)
	b := bytes.Repeat([]byte{'a'}, size)
	b[size/2] = 'x' // Only the middle differs.

	fpr := New(Fast)
	fpA, err := fpr.File(writeTemp(t, "a.bin", a))
	if err != nil {
		t.Fatalf("File(a) returned error: %v", err)
	}
	fpB, err := fpr.File(writeTemp(t, "b.bin", b))
	if err != nil {
		t.Fatalf("File(b) returned error: %v", err)
	}
	if fpA != fpB {
		t.Errorf("head/tail fingerprints differ for files with identical head and tail")
	}

	// A change inside the head must change the fingerprint.
	c := bytes.Repeat([]byte{'a'}, size)
	c[10] = 'x'
	fpC, err := fpr.File(writeTemp(t, "c.bin", c))
	if err != nil {
		t.Fatalf("File(c) returned error: %v", err)
	}
	if fpC == fpA {
		t.Errorf("fingerprint unchanged despite head modification")
	}
}

func TestStrongMatchesSha256(t *testing.T) {
	content := bytes.Repeat([]byte("chunked-content"), 10000) // > one 64 KiB chunk
	path := writeTemp(t, "strong.bin", content)

	fpr := New(Strong)
	got, err := fpr.File(path)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("strong fingerprint = %s, want %s", got, want)
	}
}

func TestEmptyFileHasNoFingerprint(t *testing.T) {
	for _, mode := range []Mode{Fast, Strong} {
		path := writeTemp(t, "empty-"+mode.String(), nil)
		got, err := New(mode).File(path)
		if err != nil {
			t.Errorf("mode %s: unexpected error: %v", mode, err)
		}
		if got != "" {
			t.Errorf("mode %s: empty file fingerprint = %q, want absent", mode, got)
		}
	}
}

func TestMissingFileReturnsAbsent(t *testing.T) {
	got, err := New(Strong).File(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if got != "" {
		t.Errorf("fingerprint = %q, want absent", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("fast"); err != nil || m != Fast {
		t.Errorf("ParseMode(fast) = %v, %v", m, err)
	}
	if m, err := ParseMode("STRONG"); err != nil || m != Strong {
		t.Errorf("ParseMode(STRONG) = %v, %v", m, err)
	}
	if _, err := ParseMode("md5"); err == nil {
		t.Error("ParseMode(md5) should fail")
	}
}
