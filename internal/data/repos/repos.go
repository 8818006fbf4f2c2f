package repos

import (
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/chat"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/notification"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo
type UserTokenRepo = user.UserTokenRepo

type ProfileRepo = recovery.ProfileRepo
type InsightRepo = recovery.InsightRepo
type GoalRepo = recovery.GoalRepo

type ScheduledNotificationRepo = notification.ScheduledNotificationRepo
type UserNotificationRepo = notification.UserNotificationRepo
type EngagementRepo = notification.EngagementRepo

type ConversationRepo = chat.ConversationRepo
type MessageRepo = chat.MessageRepo

var (
	NewUserRepo      = user.NewUserRepo
	NewUserTokenRepo = user.NewUserTokenRepo

	NewProfileRepo = recovery.NewProfileRepo
	NewInsightRepo = recovery.NewInsightRepo
	NewGoalRepo    = recovery.NewGoalRepo

	NewScheduledNotificationRepo = notification.NewScheduledNotificationRepo
	NewUserNotificationRepo      = notification.NewUserNotificationRepo
	NewEngagementRepo            = notification.NewEngagementRepo

	NewConversationRepo = chat.NewConversationRepo
	NewMessageRepo      = chat.NewMessageRepo
)
