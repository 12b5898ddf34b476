package app

import (
	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/handlers"
	"github.com/yungbote/carebridge-backend/internal/modules/interview"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
)

type Handlers struct {
	Conversation *handlers.ConversationHandler
	Catalog      *handlers.CatalogHandler
}

func wireHandlers(log *logger.Logger, uc interview.Usecases, store *catalog.Store) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Conversation: handlers.NewConversationHandler(uc),
		Catalog:      handlers.NewCatalogHandler(store, uc),
	}
}
