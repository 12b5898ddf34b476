package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/repos"
	"github.com/yungbote/carebridge-backend/internal/types"
)

const testCatalogSource = `
version: 1
dimensions:
  - name: physiological
    rank: 1
    terms:
      - name: breathing
        keywords: [breathing, breathless, shortness of breath, trouble breathing]
      - name: sleep
        keywords: [sleep, insomnia, sleeping]
  - name: safety
    rank: 2
    terms:
      - name: falls
        keywords: [fall, falling, balance, tripped]
questions:
  - id: q-breath-main
    dimension: physiological
    term: breathing
    kind: frequency
    prompt: "How often do you feel short of breath during daily activities?"
    options:
      - id: opt-never
        label: Never
      - id: opt-sometimes
        label: Sometimes
      - id: opt-often
        label: Often
      - id: opt-always
        label: Always
    followups:
      - "Does anything make the breathlessness easier?"
  - id: q-breath-night
    dimension: physiological
    term: breathing
    prompt: "How is your breathing at night?"
    patterns: [night, lying down, breathing at night]
  - id: q-sleep-main
    dimension: physiological
    term: sleep
    kind: severity
    prompt: "How badly does your condition affect your sleep?"
    patterns: [rest, tired, night]
  - id: q-falls-main
    dimension: safety
    term: falls
    prompt: "Have you had any falls or near-falls recently?"
`

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Load(newTestLogger(t), []byte(testCatalogSource))
	if err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	return snap
}

// fakeAI scripts the generation service. Err short-circuits every method,
// standing in for timeouts and outages.
type fakeAI struct {
	Err      error
	JSON     map[string]any
	Text     string
	Vectors  [][]float32
	Calls    []string
	JSONFunc func(schemaName string) (map[string]any, error)
}

func (f *fakeAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.Calls = append(f.Calls, "embed")
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Vectors != nil {
		return f.Vectors, nil
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeAI) GenerateJSON(_ context.Context, _, _, schemaName string, _ map[string]any) (map[string]any, error) {
	f.Calls = append(f.Calls, "json:"+schemaName)
	if f.JSONFunc != nil {
		return f.JSONFunc(schemaName)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.JSON, nil
}

func (f *fakeAI) GenerateText(_ context.Context, _, _ string) (string, error) {
	f.Calls = append(f.Calls, "text")
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

// In-memory repo fakes. Only what the orchestrator exercises is implemented.

type fakeConversationRepo struct {
	rows map[uuid.UUID]*types.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{rows: map[uuid.UUID]*types.Conversation{}}
}

func (r *fakeConversationRepo) Create(_ context.Context, _ *gorm.DB, c *types.Conversation) (*types.Conversation, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	clone := *c
	r.rows[c.ID] = &clone
	return c, nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeConversationRepo) Save(_ context.Context, _ *gorm.DB, c *types.Conversation) error {
	clone := *c
	r.rows[c.ID] = &clone
	return nil
}

func (r *fakeConversationRepo) ListByParticipant(_ context.Context, _ *gorm.DB, participantID uuid.UUID) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, c := range r.rows {
		if c.ParticipantID == participantID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	rows map[uuid.UUID][]*types.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{rows: map[uuid.UUID][]*types.Message{}}
}

func (r *fakeMessageRepo) Append(_ context.Context, _ *gorm.DB, m *types.Message) (*types.Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Ordinal = len(r.rows[m.ConversationID]) + 1
	clone := *m
	r.rows[m.ConversationID] = append(r.rows[m.ConversationID], &clone)
	return m, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, _ *gorm.DB, id uuid.UUID) ([]*types.Message, error) {
	return r.rows[id], nil
}

func (r *fakeMessageRepo) LastN(_ context.Context, _ *gorm.DB, id uuid.UUID, n int) ([]*types.Message, error) {
	msgs := r.rows[id]
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

type fakeTermScoreRepo struct {
	rows map[string]*types.TermScore
}

func newFakeTermScoreRepo() *fakeTermScoreRepo {
	return &fakeTermScoreRepo{rows: map[string]*types.TermScore{}}
}

func termScoreKey(conversationID uuid.UUID, dimension, term string) string {
	return fmt.Sprintf("%s|%s|%s", conversationID, strings.ToLower(dimension), strings.ToLower(term))
}

func (r *fakeTermScoreRepo) Upsert(_ context.Context, _ *gorm.DB, s *types.TermScore) (*types.TermScore, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	clone := *s
	r.rows[termScoreKey(s.ConversationID, s.Dimension, s.Term)] = &clone
	return s, nil
}

func (r *fakeTermScoreRepo) Get(_ context.Context, _ *gorm.DB, conversationID uuid.UUID, dimension, term string) (*types.TermScore, error) {
	s, ok := r.rows[termScoreKey(conversationID, dimension, term)]
	if !ok {
		return nil, repos.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeTermScoreRepo) ListByConversation(_ context.Context, _ *gorm.DB, conversationID uuid.UUID) ([]*types.TermScore, error) {
	var out []*types.TermScore
	for _, s := range r.rows {
		if s.ConversationID == conversationID {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out, nil
}

func (r *fakeTermScoreRepo) ListByDimension(_ context.Context, _ *gorm.DB, conversationID uuid.UUID, dimension string) ([]*types.TermScore, error) {
	all, _ := r.ListByConversation(nil, nil, conversationID)
	var out []*types.TermScore
	for _, s := range all {
		if strings.EqualFold(s.Dimension, dimension) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDimScoreRepo struct {
	rows map[string]*types.DimensionScore
}

func newFakeDimScoreRepo() *fakeDimScoreRepo {
	return &fakeDimScoreRepo{rows: map[string]*types.DimensionScore{}}
}

func (r *fakeDimScoreRepo) Upsert(_ context.Context, _ *gorm.DB, s *types.DimensionScore) (*types.DimensionScore, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	clone := *s
	r.rows[s.ConversationID.String()+"|"+strings.ToLower(s.Dimension)] = &clone
	return s, nil
}

func (r *fakeDimScoreRepo) ListByConversation(_ context.Context, _ *gorm.DB, conversationID uuid.UUID) ([]*types.DimensionScore, error) {
	var out []*types.DimensionScore
	for _, s := range r.rows {
		if s.ConversationID == conversationID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeAICallRepo struct {
	entries []*types.AICallLog
}

func (r *fakeAICallRepo) Create(_ context.Context, _ *gorm.DB, e *types.AICallLog) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAICallRepo) ListByConversation(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.AICallLog, error) {
	return r.entries, nil
}

type testEnv struct {
	deps  Deps
	convs *fakeConversationRepo
	msgs  *fakeMessageRepo
	terms *fakeTermScoreRepo
	dims  *fakeDimScoreRepo
	ai    *fakeAI
}

// newTestEnv wires the orchestrator against in-memory fakes. AI is absent by
// default; tests that want it assign env.ai into deps.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := newTestLogger(t)
	env := &testEnv{
		convs: newFakeConversationRepo(),
		msgs:  newFakeMessageRepo(),
		terms: newFakeTermScoreRepo(),
		dims:  newFakeDimScoreRepo(),
		ai:    &fakeAI{},
	}
	env.deps = Deps{
		DB:            &gorm.DB{},
		Log:           log,
		Catalog:       catalog.NewStoreFromSnapshot(log, newTestSnapshot(t)),
		Cfg:           Config{}.WithDefaults(),
		Conversations: env.convs,
		Messages:      env.msgs,
		TermScores:    env.terms,
		DimScores:     env.dims,
		AICalls:       &fakeAICallRepo{},
	}
	return env
}

func newActiveConversation(t *testing.T, env *testEnv) *types.Conversation {
	t.Helper()
	state := types.NewAssessmentState()
	raw, err := state.Encode()
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	conv, err := env.convs.Create(context.Background(), nil, &types.Conversation{
		ParticipantID: uuid.New(),
		Mode:          types.ModeFreeDialogue,
		Status:        types.ConversationActive,
		Assessment:    raw,
	})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conv
}
