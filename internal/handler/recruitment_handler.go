package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// RecruitmentHandler serves recruitment discovery and management endpoints.
type RecruitmentHandler struct {
	service *service.RecruitmentService
}

// NewRecruitmentHandler constructs the handler.
func NewRecruitmentHandler(svc *service.RecruitmentService) *RecruitmentHandler {
	return &RecruitmentHandler{service: svc}
}

// List godoc
// @Summary List recruitment drives
// @Tags Recruitments
// @Produce json
// @Param club query string false "Club name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /recruitments [get]
func (h *RecruitmentHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.RecruitmentFilter{
		ClubName: models.ClubName(c.Query("club")),
		Page:     page,
		PageSize: size,
	}

	recruitments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recruitments, pagination)
}

// ListByClub godoc
// @Summary List recruitment drives for a club
// @Tags Recruitments
// @Produce json
// @Param clubName path string true "Club name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruitments/club/{clubName} [get]
func (h *RecruitmentHandler) ListByClub(c *gin.Context) {
	club := models.ClubName(c.Param("clubName"))
	if !club.Valid() {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	page, size := pageParams(c)
	filter := models.RecruitmentFilter{
		ClubName: club,
		Page:     page,
		PageSize: size,
	}

	recruitments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recruitments, pagination)
}

// Get godoc
// @Summary Get recruitment drive
// @Tags Recruitments
// @Produce json
// @Param recruitmentId path string true "Recruitment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruitments/{recruitmentId} [get]
func (h *RecruitmentHandler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("recruitmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Create godoc
// @Summary Open recruitment drive
// @Tags Recruitments
// @Accept json
// @Produce json
// @Param payload body service.CreateRecruitmentRequest true "Recruitment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recruitments [post]
func (h *RecruitmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRecruitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recruitment payload"))
		return
	}

	rec, err := h.service.Create(c.Request.Context(), userFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// Update godoc
// @Summary Update recruitment drive
// @Tags Recruitments
// @Accept json
// @Produce json
// @Param recruitmentId path string true "Recruitment ID"
// @Param payload body service.CreateRecruitmentRequest true "Recruitment payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruitments/{recruitmentId} [put]
func (h *RecruitmentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRecruitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recruitment payload"))
		return
	}

	rec, err := h.service.Update(c.Request.Context(), userFromClaims(claims), c.Param("recruitmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Delete godoc
// @Summary Close recruitment drive
// @Description Soft-delete a recruitment; submitted applications stay on record
// @Tags Recruitments
// @Produce json
// @Param recruitmentId path string true "Recruitment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recruitments/{recruitmentId} [delete]
func (h *RecruitmentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userFromClaims(claims), c.Param("recruitmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
