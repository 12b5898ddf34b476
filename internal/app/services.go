package app

import (
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/services"
)

type Services struct {
	Locks     services.ConversationLocker
	Summaries services.SummaryService
	Notify    services.ConversationNotifier
	Retrieval services.RetrievalService
}

func wireServices(log *logger.Logger, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Locks:     services.NewConversationLocker(),
		Summaries: services.NewSummaryService(log, clients.AI, clients.Redis, reposet.Conversation),
		Notify:    services.NewConversationNotifier(log, clients.Redis),
		Retrieval: services.NewRetrievalService(log, clients.AI, clients.Vec),
	}
}
