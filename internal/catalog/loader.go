package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

// The catalog source grew two incompatible YAML shapes over time: a flat
// question list with inline dimension/term fields, and a legacy nested
// dimensions -> terms -> questions tree. Both are resolved here, once, into
// canonical Question values; entries that fit neither shape are logged and
// skipped rather than guessed at.

type sourceFile struct {
	Version    int               `yaml:"version"`
	Dimensions []sourceDimension `yaml:"dimensions"`
	Questions  []sourceQuestion  `yaml:"questions"`
}

type sourceDimension struct {
	Name  string       `yaml:"name"`
	Rank  int          `yaml:"rank"`
	Terms []sourceTerm `yaml:"terms"`
}

type sourceTerm struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	// Legacy nested shape carries questions directly under the term.
	Questions []sourceQuestion `yaml:"questions"`
}

type sourceQuestion struct {
	ID        string         `yaml:"id"`
	Dimension string         `yaml:"dimension"`
	Term      string         `yaml:"term"`
	Kind      string         `yaml:"kind"`
	Prompt    string         `yaml:"prompt"`
	Options   []sourceOption `yaml:"options"`
	FollowUps []string       `yaml:"followups"`
	Patterns  []string       `yaml:"patterns"`
}

type sourceOption struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Score *float64 `yaml:"score"`
}

var validKinds = map[QuestionKind]bool{
	KindLinear:         true,
	KindExpertise:      true,
	KindSafetyCritical: true,
	KindFrequency:      true,
	KindSeverity:       true,
}

// LoadFile parses a catalog source file into an immutable Snapshot.
func LoadFile(log *logger.Logger, path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog source: %w", err)
	}
	return Load(log, raw)
}

// Load parses catalog source bytes into an immutable Snapshot.
func Load(log *logger.Logger, raw []byte) (*Snapshot, error) {
	var src sourceFile
	if err := yaml.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse catalog source: %w", err)
	}

	dimensions := make([]Dimension, 0, len(src.Dimensions))
	var questions []Question
	seenIDs := map[string]bool{}

	appendQuestion := func(q Question) {
		if q.ID == "" || q.Dimension == "" || q.Term == "" || q.Prompt == "" {
			log.Warn("Skipping catalog entry with missing fields",
				"question_id", q.ID,
				"dimension", q.Dimension,
				"term", q.Term,
			)
			return
		}
		if seenIDs[q.ID] {
			log.Warn("Skipping catalog entry with duplicate id", "question_id", q.ID)
			return
		}
		seenIDs[q.ID] = true
		questions = append(questions, q)
	}

	for i, d := range src.Dimensions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			log.Warn("Skipping unnamed dimension in catalog source", "index", i)
			continue
		}
		rank := d.Rank
		if rank == 0 {
			rank = i + 1
		}
		dim := Dimension{Name: name, Rank: rank}
		for _, t := range d.Terms {
			termName := strings.TrimSpace(t.Name)
			if termName == "" {
				log.Warn("Skipping unnamed term in catalog source", "dimension", name)
				continue
			}
			dim.Terms = append(dim.Terms, Term{
				Name:     termName,
				Keywords: normalizeKeywords(t.Keywords),
			})
			// Legacy nested questions inherit dimension/term from position.
			for _, sq := range t.Questions {
				appendQuestion(resolveQuestion(log, sq, name, termName))
			}
		}
		dimensions = append(dimensions, dim)
	}

	for _, sq := range src.Questions {
		appendQuestion(resolveQuestion(log, sq, sq.Dimension, sq.Term))
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog source contains no usable questions")
	}

	return newSnapshot(dimensions, questions), nil
}

func resolveQuestion(log *logger.Logger, sq sourceQuestion, dimension, term string) Question {
	kind := QuestionKind(strings.ToLower(strings.TrimSpace(sq.Kind)))
	if kind == "" {
		kind = KindLinear
	}
	if !validKinds[kind] {
		log.Warn("Unknown question kind, defaulting to linear",
			"question_id", sq.ID,
			"kind", string(kind),
		)
		kind = KindLinear
	}

	options := make([]Option, 0, len(sq.Options))
	for i, so := range sq.Options {
		id := strings.TrimSpace(so.ID)
		if id == "" {
			id = fmt.Sprintf("%s-opt-%d", sq.ID, i+1)
		}
		options = append(options, Option{
			ID:    id,
			Label: strings.TrimSpace(so.Label),
			Score: so.Score,
		})
	}

	return Question{
		ID:        strings.TrimSpace(sq.ID),
		Dimension: strings.TrimSpace(dimension),
		Term:      strings.TrimSpace(term),
		Kind:      kind,
		Prompt:    strings.TrimSpace(sq.Prompt),
		Options:   options,
		FollowUps: trimAll(sq.FollowUps),
		Patterns:  normalizeKeywords(sq.Patterns),
	}
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
