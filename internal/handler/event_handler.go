package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/service"
	appErrors "github.com/campushub/club-portal-api/pkg/errors"
	"github.com/campushub/club-portal-api/pkg/response"
)

// EventHandler serves event discovery and management endpoints.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Description List active events, optionally filtered by club and type
// @Tags Events
// @Produce json
// @Param club query string false "Club name"
// @Param type query string false "Event type"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.EventFilter{
		ClubName:  models.ClubName(c.Query("club")),
		EventType: models.EventType(c.Query("type")),
		Page:      page,
		PageSize:  size,
	}

	studentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// ListByClub godoc
// @Summary List events for a club
// @Tags Events
// @Produce json
// @Param clubName path string true "Club name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/club/{clubName} [get]
func (h *EventHandler) ListByClub(c *gin.Context) {
	club := models.ClubName(c.Param("clubName"))
	if !club.Valid() {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	page, size := pageParams(c)
	filter := models.EventFilter{
		ClubName:  club,
		EventType: models.EventType(c.Query("type")),
		Page:      page,
		PageSize:  size,
	}

	studentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventId} [get]
func (h *EventHandler) Get(c *gin.Context) {
	studentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}

	event, err := h.service.Get(c.Request.Context(), c.Param("eventId"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Description Publish a new event owned by the admin's club
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.Create(c.Request.Context(), userFromClaims(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventId} [put]
func (h *EventHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.Update(c.Request.Context(), userFromClaims(claims), c.Param("eventId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete event
// @Description Soft-delete an event; registrations are kept for history
// @Tags Events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventId} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userFromClaims(claims), c.Param("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
