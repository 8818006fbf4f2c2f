package domain

import (
	"github.com/rameshiCode/aindependent-backend/internal/domain/chat"
	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/domain/user"
)

type User = user.User
type UserToken = user.UserToken

type Profile = recovery.Profile
type Insight = recovery.Insight
type Goal = recovery.Goal

type ScheduledNotification = notification.ScheduledNotification
type UserNotification = notification.UserNotification
type EngagementEvent = notification.EngagementEvent

type Conversation = chat.Conversation
type Message = chat.Message

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Profile{},
		&Insight{},
		&Goal{},
		&ScheduledNotification{},
		&UserNotification{},
		&EngagementEvent{},
		&Conversation{},
		&Message{},
	}
}
