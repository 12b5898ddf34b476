package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/server"
)

func wireRouter(handlerset Handlers, metrics *observability.Metrics) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ConversationHandler: handlerset.Conversation,
		CatalogHandler:      handlerset.Catalog,
		Metrics:             metrics,
	})
}
