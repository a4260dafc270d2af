package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// AdminHandler serves the club admin dashboard endpoints.
type AdminHandler struct {
	stats *service.StatsService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(stats *service.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats godoc
// @Summary Club dashboard aggregates
// @Description Totals for the admin's club: events, registrations, recruitments and applications by status
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleClubAdmin || claims.ClubName == "" {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	stats, err := h.stats.ClubStats(c.Request.Context(), claims.ClubName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
