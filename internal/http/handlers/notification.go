package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rameshiCode/aindependent-backend/internal/http/response"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /notifications?limit=50
func (nh *NotificationHandler) List(c *gin.Context) {
	rows, err := nh.notificationService.List(c.Request.Context(), limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": rows})
}

// POST /notifications/:id/open
func (nh *NotificationHandler) Open(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := nh.notificationService.Open(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notification": n})
}

// POST /notifications/:id/dismiss
func (nh *NotificationHandler) Dismiss(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := nh.notificationService.Dismiss(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /notifications/schedule
func (nh *NotificationHandler) ScheduleNow(c *gin.Context) {
	res, err := nh.notificationService.ScheduleNow(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"outcome":     res.Outcome,
		"scheduled":   res.Scheduled,
		"today_count": res.TodayCount,
		"week_count":  res.WeekCount,
		"discarded":   len(res.Discarded),
	})
}
