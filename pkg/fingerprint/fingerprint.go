// Package fingerprint computes content fingerprints used to identify files
// across the destination tree.
//
// Two schemes exist. The fast scheme is a 64-bit FNV-1a hash over the whole
// file for small files, or over the first and last 128 KiB for larger ones.
// It is cheap and constant-cost for large files but non-cryptographic, so it
// is never used to justify destructive renames. The strong scheme is a full
// SHA-256 streamed in 64 KiB chunks.
//
// A fingerprint is the lowercase hex encoding of the hash. The empty string
// means "unavailable" (unreadable file, empty file, or hashing error) and
// never compares equal to any real fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/paulschiretz/pgl-sync/pkg/pool"
)

const (
	// fastWholeFileLimit is the size up to which the fast scheme hashes the
	// entire file.
	fastWholeFileLimit = 256 * 1024
	// fastChunkSize is the size of the head and tail ranges hashed for files
	// larger than fastWholeFileLimit.
	fastChunkSize = 128 * 1024
	// strongChunkSize is the streaming read size for the strong scheme.
	strongChunkSize = 64 * 1024
)

// Fingerprinter computes fingerprints in a fixed mode for the duration of a
// run. It is a pure function of file content at the moment of reading; it
// never consults size or mtime metadata to shortcut the hash.
type Fingerprinter struct {
	mode    Mode
	bufPool *pool.BufferPool
}

// New creates a Fingerprinter for the given mode.
func New(mode Mode) *Fingerprinter {
	return &Fingerprinter{
		mode:    mode,
		bufPool: pool.New(strongChunkSize),
	}
}

// Mode returns the fingerprinting mode of this instance.
func (f *Fingerprinter) Mode() Mode {
	return f.mode
}

// File computes the fingerprint of the file at absPath.
// It returns the empty string (with a non-nil error where one occurred) when
// no fingerprint is available. An empty file yields "" with a nil error.
func (f *Fingerprinter) File(absPath string) (string, error) {
	switch f.mode {
	case Strong:
		return f.strongFingerprint(absPath)
	default:
		return f.fastFingerprint(absPath)
	}
}

// fastFingerprint hashes the selected byte ranges with FNV-1a-64.
func (f *Fingerprinter) fastFingerprint(absPath string) (string, error) {
	in, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for fingerprinting: %w", absPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s for fingerprinting: %w", absPath, err)
	}
	size := info.Size()
	if size == 0 {
		return "", nil // Empty files carry no fingerprint.
	}

	h := fnv.New64a()
	if size <= fastWholeFileLimit {
		if _, err := io.Copy(h, in); err != nil {
			return "", fmt.Errorf("failed to read %s for fingerprinting: %w", absPath, err)
		}
	} else {
		// Head and tail ranges. The middle of a large file rarely changes
		// without either end changing, and hashing it would make the cost
		// proportional to the file size.
		if _, err := io.Copy(h, io.LimitReader(in, fastChunkSize)); err != nil {
			return "", fmt.Errorf("failed to read head of %s: %w", absPath, err)
		}
		if _, err := in.Seek(size-fastChunkSize, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to seek tail of %s: %w", absPath, err)
		}
		if _, err := io.Copy(h, io.LimitReader(in, fastChunkSize)); err != nil {
			return "", fmt.Errorf("failed to read tail of %s: %w", absPath, err)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// strongFingerprint hashes the full content with SHA-256.
func (f *Fingerprinter) strongFingerprint(absPath string) (string, error) {
	in, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for fingerprinting: %w", absPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s for fingerprinting: %w", absPath, err)
	}
	if info.Size() == 0 {
		return "", nil // Empty files carry no fingerprint.
	}

	h := sha256.New()
	buf := f.bufPool.Get()
	defer f.bufPool.Put(buf)

	// Hide the file's WriteTo so CopyBuffer reads through buf in
	// strongChunkSize chunks.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{in}, buf); err != nil {
		return "", fmt.Errorf("failed to read %s for fingerprinting: %w", absPath, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
