package catalog

import (
	"testing"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

const flatSource = `
version: 1
dimensions:
  - name: physiological
    rank: 1
    terms:
      - name: breathing
        keywords: [breath, breathing, breathless, shortness of breath]
      - name: sleep
        keywords: [sleep, insomnia, tired]
  - name: safety
    rank: 2
    terms:
      - name: falls
        keywords: [fall, falling, balance]
questions:
  - id: q-breath-1
    dimension: physiological
    term: breathing
    kind: frequency
    prompt: "How often do you feel short of breath?"
    options:
      - id: opt-never
        label: Never
      - id: opt-sometimes
        label: Sometimes
      - id: opt-often
        label: Often
      - id: opt-always
        label: Always
  - id: q-sleep-1
    dimension: physiological
    term: sleep
    kind: severity
    prompt: "How badly does your condition affect your sleep?"
    patterns: [night, rest, breathing at night]
  - id: q-falls-1
    dimension: safety
    term: falls
    prompt: "Have you fallen in the last month?"
`

const legacySource = `
dimensions:
  - name: physiological
    terms:
      - name: breathing
        keywords: [breath]
        questions:
          - id: legacy-breath-1
            prompt: "Do you use oxygen support at night?"
            kind: safety_critical
`

func TestLoadFlatShape(t *testing.T) {
	snap, err := Load(testLogger(t), []byte(flatSource))
	if err != nil {
		t.Fatalf("load flat source: %v", err)
	}
	if got := snap.QuestionCount(); got != 3 {
		t.Fatalf("expected 3 questions, got %d", got)
	}

	qs := snap.Lookup("physiological", "breathing")
	if len(qs) != 1 || qs[0].ID != "q-breath-1" {
		t.Fatalf("exact lookup failed: %+v", qs)
	}
	if qs[0].Kind != KindFrequency {
		t.Fatalf("expected frequency kind, got %s", qs[0].Kind)
	}
	if len(qs[0].Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(qs[0].Options))
	}

	dims := snap.Dimensions()
	if len(dims) != 2 || dims[0].Name != "physiological" || dims[1].Name != "safety" {
		t.Fatalf("dimension order wrong: %+v", dims)
	}
	if snap.HierarchyRank("safety") != 2 {
		t.Fatalf("expected safety rank 2, got %d", snap.HierarchyRank("safety"))
	}
}

func TestLoadLegacyNestedShape(t *testing.T) {
	snap, err := Load(testLogger(t), []byte(legacySource))
	if err != nil {
		t.Fatalf("load legacy source: %v", err)
	}
	qs := snap.Lookup("physiological", "breathing")
	if len(qs) != 1 || qs[0].ID != "legacy-breath-1" {
		t.Fatalf("legacy question not resolved: %+v", qs)
	}
	if qs[0].Kind != KindSafetyCritical {
		t.Fatalf("expected safety_critical kind, got %s", qs[0].Kind)
	}
	if qs[0].Dimension != "physiological" || qs[0].Term != "breathing" {
		t.Fatalf("legacy question did not inherit position: %+v", qs[0])
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	src := flatSource + `
  - id: ""
    dimension: physiological
    term: breathing
    prompt: "missing id"
  - id: q-breath-1
    dimension: physiological
    term: breathing
    prompt: "duplicate id"
  - id: q-weird-1
    dimension: physiological
    term: breathing
    kind: telepathic
    prompt: "unknown kind falls back to linear"
`
	snap, err := Load(testLogger(t), []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Malformed and duplicate entries skipped; unknown kind kept as linear.
	if got := snap.QuestionCount(); got != 4 {
		t.Fatalf("expected 4 questions, got %d", got)
	}
	q, ok := snap.QuestionByID("q-weird-1")
	if !ok || q.Kind != KindLinear {
		t.Fatalf("unknown kind not defaulted: %+v", q)
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	if _, err := Load(testLogger(t), []byte("version: 1\n")); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
