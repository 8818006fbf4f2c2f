package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rameshiCode/aindependent-backend/internal/http/response"
	recoverymod "github.com/rameshiCode/aindependent-backend/internal/modules/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GET /profile
func (ph *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := ph.profileService.GetMine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p, "attributes": recoverymod.Snapshot(p)})
}

// GET /profile/attributes/:name
func (ph *ProfileHandler) GetAttribute(c *gin.Context) {
	name := c.Param("name")
	v, err := ph.profileService.GetAttribute(c.Request.Context(), name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"name": name, "value": v})
}

// PUT /profile/attributes/:name
// body: { "value": <any> }
func (ph *ProfileHandler) SetAttribute(c *gin.Context) {
	var req struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	name := c.Param("name")
	p, err := ph.profileService.SetAttribute(c.Request.Context(), name, req.Value)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	v, _ := recoverymod.GetAttribute(p, name)
	response.RespondOK(c, gin.H{"name": name, "value": v})
}

// POST /profile/relapse
func (ph *ProfileHandler) RecordRelapse(c *gin.Context) {
	p, err := ph.profileService.RecordRelapse(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /insights?type=trigger,coping_strategy&limit=20
func (ph *ProfileHandler) ListInsights(c *gin.Context) {
	var insightTypes []string
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				insightTypes = append(insightTypes, t)
			}
		}
	}
	rows, err := ph.profileService.ListInsights(c.Request.Context(), insightTypes, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"insights": rows})
}
