package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/platform/openai"
	"github.com/yungbote/carebridge-backend/internal/repos"
	"github.com/yungbote/carebridge-backend/internal/types"
)

const (
	summaryCachePrefix = "carebridge:summary:"
	summaryCacheTTL    = 24 * time.Hour
	summaryCallTimeout = 20 * time.Second
)

var summarySystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You write a short, warm closing summary for a needs-assessment",
	"conversation with a person managing a progressive illness.",
	"Summarize which areas seem well-managed and which may need support,",
	"based only on the stage profile given. 3-5 sentences, second person,",
	"no medical advice, no diagnoses.",
}, "\n"))

// SummaryService produces the session summary served when a conversation
// completes and from then on, verbatim, to any later input. Duplicate
// completion triggers share one generation via singleflight; a result that
// lands after the conversation already locked with a summary is discarded.
type SummaryService interface {
	Generate(ctx context.Context, conversationID uuid.UUID, profile *types.StageProfile) (string, error)
}

type summaryService struct {
	log           *logger.Logger
	ai            openai.Client
	rdb           *goredis.Client
	conversations repos.ConversationRepo
	group         singleflight.Group
}

func NewSummaryService(log *logger.Logger, ai openai.Client, rdb *goredis.Client, conversations repos.ConversationRepo) SummaryService {
	return &summaryService{
		log:           log.With("service", "SummaryService"),
		ai:            ai,
		rdb:           rdb,
		conversations: conversations,
	}
}

func (s *summaryService) Generate(ctx context.Context, conversationID uuid.UUID, profile *types.StageProfile) (string, error) {
	key := conversationID.String()
	out, err, _ := s.group.Do(key, func() (any, error) {
		return s.generateOnce(ctx, conversationID, profile)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (s *summaryService) generateOnce(ctx context.Context, conversationID uuid.UUID, profile *types.StageProfile) (string, error) {
	if cached := s.cacheGet(ctx, conversationID); cached != "" {
		return cached, nil
	}

	text := s.generateText(ctx, profile)

	// The conversation may have locked with a summary while generation was
	// in flight; that cached summary wins and this result is dropped.
	conv, err := s.conversations.GetByID(ctx, nil, conversationID)
	if err == nil && conv.Locked() && conv.Summary != "" {
		return conv.Summary, nil
	}

	s.cacheSet(ctx, conversationID, text)
	return text, nil
}

func (s *summaryService) generateText(ctx context.Context, profile *types.StageProfile) string {
	fallback := templateSummary(profile)
	if s.ai == nil {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, summaryCallTimeout)
	defer cancel()
	text, err := s.ai.GenerateText(callCtx, summarySystemPrompt, profilePrompt(profile))
	if err != nil || strings.TrimSpace(text) == "" {
		s.log.Warn("Summary generation failed, using template", "error", err)
		return fallback
	}
	return strings.TrimSpace(text)
}

func (s *summaryService) cacheGet(ctx context.Context, id uuid.UUID) string {
	if s.rdb == nil {
		return ""
	}
	v, err := s.rdb.Get(ctx, summaryCachePrefix+id.String()).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *summaryService) cacheSet(ctx context.Context, id uuid.UUID, text string) {
	if s.rdb == nil || text == "" {
		return
	}
	if err := s.rdb.Set(ctx, summaryCachePrefix+id.String(), text, summaryCacheTTL).Err(); err != nil {
		s.log.Warn("Summary cache write failed", "error", err)
	}
}

func profilePrompt(profile *types.StageProfile) string {
	if profile == nil {
		return "STAGE_PROFILE: (none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "OVERALL: score %.1f/7, stage %s\n", profile.OverallScore, profile.OverallStage)
	for _, d := range profile.Dimensions {
		fmt.Fprintf(&b, "- %s: score %.1f/7, stage %s, coverage %.0f%%\n",
			d.Dimension, d.Score, d.Stage, d.CoverageRatio*100)
	}
	return strings.TrimSpace(b.String())
}

// templateSummary is the deterministic fallback when generation is down.
func templateSummary(profile *types.StageProfile) string {
	if profile == nil || len(profile.Dimensions) == 0 {
		return "Thank you for talking with me today. We can pick this up again whenever you like."
	}
	var strongest, weakest *types.DimensionResult
	for i := range profile.Dimensions {
		d := &profile.Dimensions[i]
		if d.CoverageRatio == 0 {
			continue
		}
		if strongest == nil || d.Score > strongest.Score {
			strongest = d
		}
		if weakest == nil || d.Score < weakest.Score {
			weakest = d
		}
	}
	var b strings.Builder
	b.WriteString("Thank you for sharing so openly today.")
	if strongest != nil {
		fmt.Fprintf(&b, " You seem to be managing %s well.", strongest.Dimension)
	}
	if weakest != nil && weakest != strongest {
		fmt.Fprintf(&b, " It sounds like %s is where extra support could help most.", weakest.Dimension)
	}
	b.WriteString(" This summary is saved, and we can revisit any of it together.")
	return b.String()
}
