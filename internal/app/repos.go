package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/repos"
)

type Repos struct {
	Conversation   repos.ConversationRepo
	Message        repos.MessageRepo
	TermScore      repos.TermScoreRepo
	DimensionScore repos.DimensionScoreRepo
	AICallLog      repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Conversation:   repos.NewConversationRepo(db, log),
		Message:        repos.NewMessageRepo(db, log),
		TermScore:      repos.NewTermScoreRepo(db, log),
		DimensionScore: repos.NewDimensionScoreRepo(db, log),
		AICallLog:      repos.NewAICallLogRepo(db, log),
	}
}
