package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/repos"
	"github.com/yungbote/carebridge-backend/internal/types"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type stubConversationRepo struct {
	conv *types.Conversation
}

func (r *stubConversationRepo) Create(_ context.Context, _ *gorm.DB, c *types.Conversation) (*types.Conversation, error) {
	return c, nil
}

func (r *stubConversationRepo) GetByID(_ context.Context, _ *gorm.DB, _ uuid.UUID) (*types.Conversation, error) {
	if r.conv == nil {
		return nil, repos.ErrNotFound
	}
	return r.conv, nil
}

func (r *stubConversationRepo) Save(_ context.Context, _ *gorm.DB, c *types.Conversation) error {
	r.conv = c
	return nil
}

func (r *stubConversationRepo) ListByParticipant(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.Conversation, error) {
	return nil, nil
}

type stubAI struct {
	text string
	err  error
}

func (a *stubAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	return out, nil
}

func (a *stubAI) GenerateJSON(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	return nil, errors.New("not used")
}

func (a *stubAI) GenerateText(_ context.Context, _, _ string) (string, error) {
	return a.text, a.err
}

func profileFixture() *types.StageProfile {
	return &types.StageProfile{
		ConversationID: uuid.New(),
		OverallScore:   4.2,
		OverallStage:   types.StageModerate,
		Dimensions: []types.DimensionResult{
			{Dimension: "physiological", Score: 5.5, CoverageRatio: 1, Stage: types.StageMild},
			{Dimension: "safety", Score: 2.1, CoverageRatio: 0.5, Stage: types.StageSignificant},
		},
	}
}

func TestSummaryTemplateFallbackWithoutAI(t *testing.T) {
	svc := NewSummaryService(testLog(t), nil, nil, &stubConversationRepo{})

	text, err := svc.Generate(context.Background(), uuid.New(), profileFixture())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(text, "physiological") {
		t.Fatalf("template should name the strongest dimension: %q", text)
	}
	if !strings.Contains(text, "safety") {
		t.Fatalf("template should name the weakest dimension: %q", text)
	}
}

func TestSummaryTemplateFallbackOnAIError(t *testing.T) {
	ai := &stubAI{err: errors.New("upstream timeout")}
	svc := NewSummaryService(testLog(t), ai, nil, &stubConversationRepo{})

	text, err := svc.Generate(context.Background(), uuid.New(), profileFixture())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(text, "Thank you") {
		t.Fatalf("expected template text, got %q", text)
	}
}

func TestSummaryEmptyProfile(t *testing.T) {
	svc := NewSummaryService(testLog(t), nil, nil, &stubConversationRepo{})

	text, err := svc.Generate(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text == "" {
		t.Fatal("empty profile must still produce a closing message")
	}
}

func TestSummaryKeepsCachedOnceLocked(t *testing.T) {
	id := uuid.New()
	repo := &stubConversationRepo{conv: &types.Conversation{
		ID:      id,
		Status:  types.ConversationCompleted,
		Summary: "the summary that already shipped",
	}}
	ai := &stubAI{text: "a different, later summary"}
	svc := NewSummaryService(testLog(t), ai, nil, repo)

	text, err := svc.Generate(context.Background(), id, profileFixture())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "the summary that already shipped" {
		t.Fatalf("locked conversation's summary must win, got %q", text)
	}
}
