package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// ClubHandler serves club profile endpoints.
type ClubHandler struct {
	service *service.ClubService
}

// NewClubHandler constructs the handler.
func NewClubHandler(svc *service.ClubService) *ClubHandler {
	return &ClubHandler{service: svc}
}

// List godoc
// @Summary List clubs
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clubs [get]
func (h *ClubHandler) List(c *gin.Context) {
	clubs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clubs, nil)
}

// Profile godoc
// @Summary Get club profile
// @Tags Clubs
// @Produce json
// @Param clubName path string true "Club name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clubs/{clubName} [get]
func (h *ClubHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), models.ClubName(c.Param("clubName")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update club profile
// @Description Edit the description and notable members of the admin's own club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param clubName path string true "Club name"
// @Param payload body service.UpdateClubRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /clubs/{clubName} [put]
func (h *ClubHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	club, err := h.service.UpdateProfile(c.Request.Context(), userFromClaims(claims), models.ClubName(c.Param("clubName")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, club, nil)
}
