package fpindex

import (
	"path/filepath"
	"testing"
)

func TestAddFindRemove(t *testing.T) {
	ix := New()
	ix.Add("fp1", "/dst/a")
	ix.Add("fp1", "/dst/b")
	ix.Add("fp2", "/dst/c")

	if got := ix.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	if got := ix.Find("fp1"); len(got) != 2 || got[0] != "/dst/a" || got[1] != "/dst/b" {
		t.Errorf("Find(fp1) = %v", got)
	}

	ix.Remove("fp1", "/dst/a")
	if got := ix.Find("fp1"); len(got) != 1 || got[0] != "/dst/b" {
		t.Errorf("Find(fp1) after Remove = %v", got)
	}
	ix.Remove("fp1", "/dst/b")
	if got := ix.Find("fp1"); len(got) != 0 {
		t.Errorf("Find(fp1) after full removal = %v", got)
	}
	if got := ix.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestAbsentFingerprintNeverIndexed(t *testing.T) {
	ix := New()
	ix.Add("", "/dst/a")
	if ix.Len() != 0 {
		t.Errorf("absent fingerprint was indexed")
	}
	if got := ix.Find(""); got != nil {
		t.Errorf("Find(\"\") = %v, want nil", got)
	}
}

func TestRemoveSubtree(t *testing.T) {
	ix := New()
	old := filepath.FromSlash("/dst/old")
	ix.Add("fp1", filepath.Join(old, "a"))
	ix.Add("fp1", filepath.FromSlash("/dst/other/a"))
	ix.Add("fp2", filepath.Join(old, "sub", "b"))
	ix.Add("fp3", filepath.FromSlash("/dst/oldish/c"))

	ix.RemoveSubtree(old)

	if got := ix.Find("fp1"); len(got) != 1 || got[0] != filepath.FromSlash("/dst/other/a") {
		t.Errorf("Find(fp1) = %v", got)
	}
	if got := ix.Find("fp2"); len(got) != 0 {
		t.Errorf("Find(fp2) = %v, want empty", got)
	}
	// A sibling whose name shares the prefix must survive.
	if got := ix.Find("fp3"); len(got) != 1 {
		t.Errorf("Find(fp3) = %v, want 1 entry", got)
	}
	if got := ix.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestRemoveMissingEntryIsNoop(t *testing.T) {
	ix := New()
	ix.Add("fp1", "/dst/a")
	ix.Remove("fp9", "/dst/a")
	ix.Remove("fp1", "/dst/zzz")
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}
