package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestResultStore_PutGet(t *testing.T) {
	store := NewResultStore(time.Hour)
	store.Put(&Result{ID: "res-1", CreatedAt: time.Now(), data: []byte("xlsx")})

	got := store.Get("res-1")
	if got == nil {
		t.Fatal("expected to get result back")
	}
	if string(got.Data()) != "xlsx" {
		t.Errorf("expected data %q, got %q", "xlsx", got.Data())
	}
}

func TestResultStore_GetMissing(t *testing.T) {
	store := NewResultStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing result")
	}
}

func TestResultStore_GetExpiredBeforeCleanup(t *testing.T) {
	store := NewResultStore(50 * time.Millisecond)
	store.Put(&Result{ID: "old", CreatedAt: time.Now().Add(-time.Second)})

	if store.Get("old") != nil {
		t.Error("expected expired result to be hidden")
	}
	if store.Len() != 1 {
		t.Errorf("expected expired result to remain until cleanup, got %d", store.Len())
	}
}

func TestResultStore_TTLCleanup(t *testing.T) {
	store := NewResultStore(50 * time.Millisecond)

	store.Put(&Result{ID: "old", CreatedAt: time.Now()})

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	store.Put(&Result{ID: "new", CreatedAt: time.Now()})
	store.Cleanup()

	if store.Len() != 1 {
		t.Errorf("expected 1 result after cleanup, got %d", store.Len())
	}
	if store.Get("new") == nil {
		t.Error("expected fresh result to survive cleanup")
	}
}

func TestVariant_Names(t *testing.T) {
	if VariantClean.SheetName() != "Cleaned Data" || VariantClean.Filename() != "filtered_invoice_data.xlsx" {
		t.Errorf("unexpected clean names %q %q", VariantClean.SheetName(), VariantClean.Filename())
	}
	if VariantExtract.SheetName() != "Extracted Data" || VariantExtract.Filename() != "combined_output.xlsx" {
		t.Errorf("unexpected extract names %q %q", VariantExtract.SheetName(), VariantExtract.Filename())
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Clean ")
	if err != nil || v != VariantClean {
		t.Errorf("expected clean, got %q (%v)", v, err)
	}
	if _, err := ParseVariant("redact"); err == nil {
		t.Error("expected error for unknown variant")
	}
}
