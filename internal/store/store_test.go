package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

	for i, pkg := range []string{"single", "separate", "combined"} {
		e := &Entry{
			SubmittedBy:   "U123",
			ClientName:    "Acme Media",
			DateGenerated: base.Add(time.Duration(i) * time.Minute),
			PackageType:   pkg,
			Locations:     "The Gateway",
			TotalAmount:   "AED 1,316,196",
		}
		if err := s.LogProposal(ctx, e); err != nil {
			t.Fatal(err)
		}
		if e.ID == 0 {
			t.Error("entry ID not assigned")
		}
	}

	entries, err := s.ListEntries(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].PackageType != "combined" {
		t.Errorf("newest first expected, got %q", entries[0].PackageType)
	}
	if entries[0].TotalAmount != "AED 1,316,196" {
		t.Errorf("total = %q", entries[0].TotalAmount)
	}

	entries, err = s.ListEntries(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("limit ignored: got %d entries", len(entries))
	}
}

func TestSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, pkg := range []string{"single", "single", "separate", "combined", "combined", "combined"} {
		if err := s.LogProposal(ctx, &Entry{SubmittedBy: "U1", ClientName: "C", DateGenerated: now, PackageType: pkg}); err != nil {
			t.Fatal(err)
		}
		now = now.Add(time.Second)
	}

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 6 {
		t.Errorf("total = %d", sum.Total)
	}
	if sum.ByPackage["single"] != 2 || sum.ByPackage["separate"] != 1 || sum.ByPackage["combined"] != 3 {
		t.Errorf("by package = %v", sum.ByPackage)
	}
	if len(sum.Recent) != 5 {
		t.Errorf("recent = %d entries, want 5", len(sum.Recent))
	}
}

func TestHealth(t *testing.T) {
	s := openTestStore(t)
	if err := s.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
}
