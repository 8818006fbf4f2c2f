package app

import (
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	Profile      repos.ProfileRepo
	Insight      repos.InsightRepo
	Goal         repos.GoalRepo
	Scheduled    repos.ScheduledNotificationRepo
	Inbox        repos.UserNotificationRepo
	Engagement   repos.EngagementRepo
	Conversation repos.ConversationRepo
	Message      repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		Profile:      repos.NewProfileRepo(db, log),
		Insight:      repos.NewInsightRepo(db, log),
		Goal:         repos.NewGoalRepo(db, log),
		Scheduled:    repos.NewScheduledNotificationRepo(db, log),
		Inbox:        repos.NewUserNotificationRepo(db, log),
		Engagement:   repos.NewEngagementRepo(db, log),
		Conversation: repos.NewConversationRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
	}
}
