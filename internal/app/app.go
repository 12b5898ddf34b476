package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/db"
	"github.com/yungbote/carebridge-backend/internal/modules/interview"
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Catalog  *catalog.Store
	Repos    Repos
	Services Services
	Usecases interview.Usecases

	clients      Clients
	metrics      *observability.Metrics
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "carebridge",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	store, err := catalog.NewStore(log, cfg.CatalogPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	clients := wireClients(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, reposet, clients)

	uc := interview.New(interview.UsecasesDeps{
		DB:            theDB,
		Log:           log,
		AI:            clients.AI,
		Vec:           clients.Vec,
		Catalog:       store,
		Cfg:           cfg.Interview,
		Conversations: reposet.Conversation,
		Messages:      reposet.Message,
		TermScores:    reposet.TermScore,
		DimScores:     reposet.DimensionScore,
		AICalls:       reposet.AICallLog,
		Locks:         serviceset.Locks,
		Retrieval:     serviceset.Retrieval,
		Summaries:     serviceset.Summaries,
		Notify:        serviceset.Notify,
	})

	handlerset := wireHandlers(log, uc, store)
	router := wireRouter(handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Catalog:      store,
		Repos:        reposet,
		Services:     serviceset,
		Usecases:     uc,
		clients:      clients,
		metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background work: the catalog file watcher, the question
// vector index build, and the standalone metrics listener when configured.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.WatchCatalog {
		go func() {
			if err := a.Catalog.Watch(ctx); err != nil && ctx.Err() == nil {
				a.Log.Warn("Catalog watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := a.Usecases.ReindexCatalog(ctx); err != nil {
			a.Log.Warn("Catalog vector index build failed; semantic routing degrades to rules", "error", err)
		}
	}()

	a.metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(shutdownCtx)
		cancel()
	}
	a.clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
