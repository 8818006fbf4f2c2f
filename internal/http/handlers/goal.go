package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rameshiCode/aindependent-backend/internal/http/response"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

type GoalHandler struct {
	goalService services.GoalService
}

func NewGoalHandler(goalService services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GET /goals?active=true
func (gh *GoalHandler) List(c *gin.Context) {
	goals, err := gh.goalService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"goals": goals})
}

// POST /goals
// body: { "description": "...", "target_date": "2025-06-05T00:00:00Z" }
func (gh *GoalHandler) Create(c *gin.Context) {
	var req struct {
		Description string     `json:"description"`
		TargetDate  *time.Time `json:"target_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	g, err := gh.goalService.Create(c.Request.Context(), services.GoalInput{Description: req.Description, TargetDate: req.TargetDate})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"goal": g})
}

// PATCH /goals/:id
// body: { "status": "completed" | "abandoned" }
func (gh *GoalHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	g, err := gh.goalService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"goal": g})
}
