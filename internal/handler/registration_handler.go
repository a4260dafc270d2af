package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// RegistrationHandler serves event registration endpoints. Registration
// snapshots student columns, so the full user row is loaded here rather
// than rebuilt from token claims.
type RegistrationHandler struct {
	service *service.RegistrationService
	users   userLoader
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc *service.RegistrationService, users userLoader) *RegistrationHandler {
	return &RegistrationHandler{service: svc, users: users}
}

// Register godoc
// @Summary Register for an event
// @Tags Registrations
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param payload body service.EventRegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{eventId}/registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EventRegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
			return
		}
	}

	student, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user"))
		return
	}

	reg, err := h.service.Register(c.Request.Context(), student, c.Param("eventId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// Cancel godoc
// @Summary Cancel an event registration
// @Tags Registrations
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventId}/registrations [delete]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), claims.UserID, c.Param("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "registration cancelled"}, nil)
}

// ListMine godoc
// @Summary List my registrations
// @Tags Registrations
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registrations/my [get]
func (h *RegistrationHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := pageParams(c)
	regs, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, pagination)
}

// ListForEvent godoc
// @Summary List event registrations
// @Description List the roster of an event belonging to the admin's club
// @Tags Registrations
// @Produce json
// @Param eventId path string true "Event ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{eventId}/registrations [get]
func (h *RegistrationHandler) ListForEvent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := pageParams(c)
	regs, pagination, err := h.service.ListForEvent(c.Request.Context(), userFromClaims(claims), c.Param("eventId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, pagination)
}
