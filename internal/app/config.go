package app

import (
	"github.com/yungbote/carebridge-backend/internal/modules/interview/steps"
	"github.com/yungbote/carebridge-backend/internal/platform/envutil"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

type Config struct {
	CatalogPath  string
	WatchCatalog bool

	MetricsAddr string
	Environment string
	Version     string

	Interview steps.Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		CatalogPath:  envutil.String("CATALOG_PATH", "configs/catalog.yaml"),
		WatchCatalog: envutil.Bool("CATALOG_WATCH", true),
		MetricsAddr:  envutil.String("METRICS_ADDR", ""),
		Environment:  envutil.String("APP_ENV", "development"),
		Version:      envutil.String("APP_VERSION", "dev"),
		Interview: steps.Config{
			EvidenceThreshold:   envutil.Int("EVIDENCE_THRESHOLD", 0),
			MaxQuestionsPerTerm: envutil.Int("MAX_QUESTIONS_PER_TERM", 0),
			FreeTurnMinimum:     envutil.Int("FREE_TURN_MINIMUM", 0),
			TransitionCeiling:   envutil.Int("TRANSITION_CEILING", 0),
			AIJudgmentMinTurn:   envutil.Int("AI_JUDGMENT_MIN_TURN", 0),
			RouteLockWindow:     envutil.Int("ROUTE_LOCK_WINDOW", 0),
			DefaultDimension:    envutil.String("DEFAULT_DIMENSION", ""),
			DefaultTerm:         envutil.String("DEFAULT_TERM", ""),
			FallbackConfidence:  envutil.Float("FALLBACK_CONFIDENCE", 0),
		}.WithDefaults(),
	}
	log.Info("Config loaded",
		"catalog_path", cfg.CatalogPath,
		"evidence_threshold", cfg.Interview.EvidenceThreshold,
		"max_questions_per_term", cfg.Interview.MaxQuestionsPerTerm,
	)
	return cfg
}
