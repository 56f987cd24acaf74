package watchlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"RSITracker/internal/model"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.json")
	return Open(path), path
}

func TestStore_AddDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, "aapl"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(ctx, "AAPL"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if got := s.List(); len(got) != 1 || got[0] != "AAPL" {
		t.Errorf("expected exactly one AAPL, got %v", got)
	}
}

func TestStore_AddInvalidLeavesWatchlistUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Add(ctx, "MSFT")

	if _, err := s.Add(ctx, "bad symbol!"); !errors.Is(err, model.ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}

	s.SetValidator(func(_ context.Context, sym string) (string, error) {
		return "", model.ErrInvalidSymbol
	})
	if _, err := s.Add(ctx, "ZZZZ"); !errors.Is(err, model.ErrInvalidSymbol) {
		t.Errorf("expected validator rejection, got %v", err)
	}
	if got := s.List(); !slices.Equal(got, []string{"MSFT"}) {
		t.Errorf("watchlist changed: %v", got)
	}
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	s, path := newTestStore(t)
	if s.Remove("TSLA") {
		t.Error("removing absent symbol should report false")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no-op remove should not write the file")
	}
	_, _ = s.Add(context.Background(), "TSLA")
	if !s.Remove("tsla") {
		t.Error("expected removal")
	}
	if len(s.List()) != 0 {
		t.Errorf("expected empty watchlist, got %v", s.List())
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()
	for _, sym := range []string{"AAPL", "MSFT", "NVDA", "BRK.B"} {
		if _, err := s.Add(ctx, sym); err != nil {
			t.Fatal(err)
		}
	}
	s.Remove("MSFT")

	reloaded := Open(path)
	want := []string{"AAPL", "NVDA", "BRK.B"}
	got := reloaded.List()
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("round trip mismatch: got %v want %v", got, want)
	}
}

func TestOpen_CorruptOrMissingFile(t *testing.T) {
	dir := t.TempDir()

	if got := Open(filepath.Join(dir, "absent.json")).List(); len(got) != 0 {
		t.Errorf("missing file should give empty watchlist, got %v", got)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Open(corrupt).List(); len(got) != 0 {
		t.Errorf("corrupt file should give empty watchlist, got %v", got)
	}
}

func TestOpen_NormalisesAndDedupes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wl.json")
	if err := os.WriteFile(path, []byte(`["aapl","AAPL"," msft","!!"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Open(path).List(); !slices.Equal(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("unexpected symbols %v", got)
	}
}
