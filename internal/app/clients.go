package app

import (
	"os"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/platform/openai"
	"github.com/yungbote/carebridge-backend/internal/platform/qdrant"
	"github.com/yungbote/carebridge-backend/internal/platform/redisdb"
)

// Clients holds the optional external dependencies. Any of them may be nil;
// the engine degrades to its rule-based tiers when they are.
type Clients struct {
	AI    openai.Client
	Vec   qdrant.VectorStore
	Redis *goredis.Client
}

func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")
	var c Clients

	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		ai, err := openai.NewClient(log)
		if err != nil {
			log.Warn("OpenAI client unavailable; AI tiers disabled", "error", err)
		} else {
			c.AI = ai
		}
	} else {
		log.Info("OPENAI_API_KEY not set; AI routing and scoring tiers disabled")
	}

	if strings.TrimSpace(os.Getenv("QDRANT_URL")) != "" {
		cfg, err := qdrant.ResolveConfigFromEnv()
		if err != nil {
			log.Warn("Qdrant config invalid; semantic retrieval disabled", "error", err)
		} else if vec, err := qdrant.NewVectorStore(log, cfg); err != nil {
			log.Warn("Qdrant unavailable; semantic retrieval disabled", "error", err)
		} else {
			c.Vec = vec
		}
	}

	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		rdb, err := redisdb.New()
		if err != nil {
			log.Warn("Redis unavailable; events and summary cache disabled", "error", err)
		} else {
			c.Redis = rdb
		}
	}

	return c
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
