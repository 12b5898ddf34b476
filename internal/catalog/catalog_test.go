package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func buildSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Load(testLogger(t), []byte(flatSource))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return snap
}

func TestApproximateLookupStaysInDimension(t *testing.T) {
	snap := buildSnapshot(t)

	// q-sleep-1 carries a "breathing at night" pattern, so a breathing probe
	// inside physiological should surface it.
	got := snap.ApproximateLookup("physiological", "breathing")
	if len(got) != 1 || got[0].ID != "q-sleep-1" {
		t.Fatalf("expected q-sleep-1 via pattern match, got %+v", got)
	}

	// Nothing in the safety dimension mentions breathing; the lookup must
	// not reach across dimensions to find it.
	if got := snap.ApproximateLookup("safety", "breathing"); len(got) != 0 {
		t.Fatalf("approximate lookup crossed dimensions: %+v", got)
	}
}

func TestApproximateLookupExcludesExactTerm(t *testing.T) {
	snap := buildSnapshot(t)
	for _, q := range snap.ApproximateLookup("physiological", "sleep") {
		if q.Term == "sleep" {
			t.Fatalf("approximate lookup returned the exact term's question %s", q.ID)
		}
	}
}

func TestSnapshotQueries(t *testing.T) {
	snap := buildSnapshot(t)

	if got := len(snap.ListByDimension("physiological")); got != 2 {
		t.Fatalf("expected 2 physiological questions, got %d", got)
	}
	if _, ok := snap.QuestionByID("q-falls-1"); !ok {
		t.Fatal("q-falls-1 not indexed")
	}
	if _, ok := snap.QuestionByID("missing"); ok {
		t.Fatal("unknown id resolved")
	}

	terms := snap.TermsOf("physiological")
	if len(terms) != 2 || terms[0].Name != "breathing" {
		t.Fatalf("unexpected terms: %+v", terms)
	}
	if snap.TermsOf("unknown") != nil {
		t.Fatal("unknown dimension returned terms")
	}
	if snap.HierarchyRank("unknown") != 0 {
		t.Fatal("unknown dimension returned a rank")
	}
}

func TestStoreReloadKeepsSnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(flatSource), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	store, err := NewStore(testLogger(t), path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	before := store.Current()
	if before.QuestionCount() != 3 {
		t.Fatalf("unexpected initial snapshot: %d questions", before.QuestionCount())
	}

	if err := os.WriteFile(path, []byte(":: not yaml ::"), 0o644); err != nil {
		t.Fatalf("corrupt catalog: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for corrupt source")
	}
	if store.Current() != before {
		t.Fatal("failed reload replaced the snapshot")
	}

	if err := os.WriteFile(path, []byte(legacySource), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if store.Current().QuestionCount() != 1 {
		t.Fatalf("snapshot not swapped after successful reload")
	}
}
