package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rameshiCode/aindependent-backend/internal/http/response"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /conversations
func (ch *ChatHandler) Start(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	conv, err := ch.chatService.Start(c.Request.Context(), req.Title)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// POST /conversations/:id/messages
func (ch *ChatHandler) Send(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := ch.chatService.Send(c.Request.Context(), id, req.Content)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /conversations/:id/end
func (ch *ChatHandler) End(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := ch.chatService.End(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"insights":         res.Insights,
		"goals":            res.Goals,
		"relapse_detected": res.RelapseDetected,
		"risk_score":       res.RiskScore,
		"scheduled":        res.Scheduled,
	})
}
