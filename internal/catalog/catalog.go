package catalog

import (
	"sort"
	"strings"
)

// QuestionKind selects the calibration curve used when an option has no
// explicit score.
type QuestionKind string

const (
	KindLinear         QuestionKind = "linear"
	KindExpertise      QuestionKind = "expertise"
	KindSafetyCritical QuestionKind = "safety_critical"
	KindFrequency      QuestionKind = "frequency"
	KindSeverity       QuestionKind = "severity"
)

// Option is one selectable answer. An explicit Score takes precedence over
// curve-inferred scoring.
type Option struct {
	ID    string
	Label string
	Score *float64
}

// Question is a canonical catalog entry, resolved from either source schema
// at load time.
type Question struct {
	ID        string
	Dimension string
	Term      string
	Kind      QuestionKind
	Prompt    string
	Options   []Option
	FollowUps []string

	// Patterns loosely describe what the question covers; the selector uses
	// them for approximate in-dimension matches.
	Patterns []string
}

// Term is one topic within a dimension, with the curated keywords the intent
// router matches against.
type Term struct {
	Name     string
	Keywords []string
}

// Dimension is one need category. Rank orders the hierarchy: lower rank means
// a more basic need.
type Dimension struct {
	Name  string
	Rank  int
	Terms []Term
}

// Snapshot is an immutable view of the whole catalog. A hot reload builds a
// new Snapshot and swaps the pointer; in-flight readers keep the old one.
type Snapshot struct {
	dimensions []Dimension
	byID       map[string]*Question
	byTerm     map[string][]*Question
	byDim      map[string][]*Question
	dimByName  map[string]*Dimension
}

func termKey(dimension, term string) string {
	return strings.ToLower(strings.TrimSpace(dimension)) + "/" + strings.ToLower(strings.TrimSpace(term))
}

func newSnapshot(dimensions []Dimension, questions []Question) *Snapshot {
	s := &Snapshot{
		dimensions: dimensions,
		byID:       make(map[string]*Question, len(questions)),
		byTerm:     map[string][]*Question{},
		byDim:      map[string][]*Question{},
		dimByName:  make(map[string]*Dimension, len(dimensions)),
	}
	sort.SliceStable(s.dimensions, func(i, j int) bool {
		return s.dimensions[i].Rank < s.dimensions[j].Rank
	})
	for i := range s.dimensions {
		d := &s.dimensions[i]
		s.dimByName[strings.ToLower(d.Name)] = d
	}
	for i := range questions {
		q := &questions[i]
		s.byID[q.ID] = q
		s.byTerm[termKey(q.Dimension, q.Term)] = append(s.byTerm[termKey(q.Dimension, q.Term)], q)
		dimKey := strings.ToLower(q.Dimension)
		s.byDim[dimKey] = append(s.byDim[dimKey], q)
	}
	return s
}

// Lookup returns the questions registered for an exact (dimension, term)
// pair, in catalog order.
func (s *Snapshot) Lookup(dimension, term string) []*Question {
	return s.byTerm[termKey(dimension, term)]
}

// ApproximateLookup returns same-dimension questions whose patterns or term
// name loosely reference the requested term. It never crosses dimensions.
func (s *Snapshot) ApproximateLookup(dimension, term string) []*Question {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	var out []*Question
	for _, q := range s.byDim[strings.ToLower(dimension)] {
		if strings.EqualFold(q.Term, term) {
			continue
		}
		if questionReferences(q, needle) {
			out = append(out, q)
		}
	}
	return out
}

func questionReferences(q *Question, needle string) bool {
	if strings.Contains(strings.ToLower(q.Term), needle) || strings.Contains(needle, strings.ToLower(q.Term)) {
		return true
	}
	for _, p := range q.Patterns {
		lp := strings.ToLower(p)
		if strings.Contains(lp, needle) || strings.Contains(needle, lp) {
			return true
		}
	}
	return false
}

// ListByDimension returns every question in a dimension, in catalog order.
func (s *Snapshot) ListByDimension(dimension string) []*Question {
	return s.byDim[strings.ToLower(dimension)]
}

func (s *Snapshot) QuestionByID(id string) (*Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// Dimensions returns the hierarchy ordered by rank, most basic first.
func (s *Snapshot) Dimensions() []Dimension {
	return s.dimensions
}

func (s *Snapshot) DimensionByName(name string) (*Dimension, bool) {
	d, ok := s.dimByName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// TermsOf returns the term list for a dimension, or nil if unknown.
func (s *Snapshot) TermsOf(dimension string) []Term {
	d, ok := s.DimensionByName(dimension)
	if !ok {
		return nil
	}
	return d.Terms
}

// HierarchyRank returns the 1-based rank of a dimension, or 0 if unknown.
func (s *Snapshot) HierarchyRank(dimension string) int {
	d, ok := s.DimensionByName(dimension)
	if !ok {
		return 0
	}
	return d.Rank
}

// QuestionCount reports the catalog size, used for startup logging.
func (s *Snapshot) QuestionCount() int {
	return len(s.byID)
}
