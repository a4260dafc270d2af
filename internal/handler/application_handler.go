package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// ApplicationHandler serves recruitment application endpoints.
type ApplicationHandler struct {
	service *service.ApplicationService
	users   userLoader
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(svc *service.ApplicationService, users userLoader) *ApplicationHandler {
	return &ApplicationHandler{service: svc, users: users}
}

// Apply godoc
// @Summary Apply to a recruitment drive
// @Tags Applications
// @Accept json
// @Produce json
// @Param recruitmentId path string true "Recruitment ID"
// @Param payload body service.ApplyRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /recruitments/{recruitmentId}/applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	student, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user"))
		return
	}

	app, err := h.service.Apply(c.Request.Context(), student, c.Param("recruitmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// ListMine godoc
// @Summary List my applications
// @Tags Applications
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications/my [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := pageParams(c)
	apps, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// ListForRecruitment godoc
// @Summary List recruitment applicants
// @Description List applicants of a recruitment belonging to the admin's club
// @Tags Applications
// @Produce json
// @Param recruitmentId path string true "Recruitment ID"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /recruitments/{recruitmentId}/applications [get]
func (h *ApplicationHandler) ListForRecruitment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := pageParams(c)
	status := models.ApplicationStatus(c.Query("status"))
	apps, pagination, err := h.service.ListForRecruitment(c.Request.Context(), userFromClaims(claims), c.Param("recruitmentId"), status, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Review godoc
// @Summary Review an application
// @Description Move an application through its status lifecycle
// @Tags Applications
// @Accept json
// @Produce json
// @Param applicationId path string true "Application ID"
// @Param payload body service.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /applications/{applicationId}/status [patch]
func (h *ApplicationHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	app, err := h.service.Review(c.Request.Context(), userFromClaims(claims), c.Param("applicationId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}
