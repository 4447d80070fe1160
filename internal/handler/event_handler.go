package handler

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"scheduler/internal/auth"
	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
	"scheduler/internal/response"
	"scheduler/internal/service"
	"scheduler/internal/validation"
)

// EventHandler handles event endpoints. All routes require authentication.
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// EventsResponse lists events.
type EventsResponse struct {
	Events []model.Event `json:"events"`
}

// EventResponse wraps a single event.
type EventResponse struct {
	Event *model.Event `json:"event"`
}

// CreatedEventResponse carries the id of a new event.
type CreatedEventResponse struct {
	EventID uuid.UUID `json:"eventId"`
}

// UpdatedEventResponse carries the id of an updated event.
type UpdatedEventResponse struct {
	UpdatedEventID uuid.UUID `json:"updatedEventId"`
}

// DeletedEventsResponse carries the ids that were actually deleted.
type DeletedEventsResponse struct {
	DeletedEventsID []uuid.UUID `json:"deletedEventsId"`
}

// List godoc
// @Summary List the caller's events
// @Description Without ids returns every owned event. With ids returns the owned ones among them; others are skipped.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param ids query string false "Comma-separated event ids"
// @Success 200 {object} response.Success{data=EventsResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var filter []uuid.UUID
	if raw := c.QueryParam("ids"); raw != "" {
		req := validation.EventIDs{IDs: splitIDs(raw)}
		if err := c.Validate(&req); err != nil {
			return err
		}
		if filter, err = parseIDs(req.IDs); err != nil {
			return err
		}
	}

	events, err := h.eventService.List(c.Request().Context(), user.ID, filter)
	if err != nil {
		return err
	}
	return response.OK(c, EventsResponse{Events: events})
}

// Get godoc
// @Summary Get one of the caller's events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Success{data=EventResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	event, err := h.eventService.Get(c.Request().Context(), user.ID, eventID)
	if err != nil {
		return err
	}
	return response.OK(c, EventResponse{Event: event})
}

// Create godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.NewEvent true "Event data"
// @Success 200 {object} response.Success{data=CreatedEventResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var req validation.NewEvent
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.Create(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}
	return response.OK(c, CreatedEventResponse{EventID: event.ID})
}

// Update godoc
// @Summary Update an event
// @Description Partial update. The merged event must still be valid.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body validation.EventPatch true "Fields to change"
// @Success 200 {object} response.Success{data=UpdatedEventResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var patch validation.EventPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return err
	}

	event, err := h.eventService.Update(c.Request().Context(), user.ID, eventID, patch)
	if err != nil {
		return err
	}
	return response.OK(c, UpdatedEventResponse{UpdatedEventID: event.ID})
}

// Delete godoc
// @Summary Delete events
// @Description Deletes the caller's events among eventIds and reports which were deleted.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.DeleteEvents true "Event ids"
// @Success 200 {object} response.Success{data=DeletedEventsResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /events [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var req validation.DeleteEvents
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ids, err := parseIDs(req.EventIDs)
	if err != nil {
		return err
	}

	deleted, err := h.eventService.Delete(c.Request().Context(), user.ID, ids)
	if err != nil {
		return err
	}
	return response.OK(c, DeletedEventsResponse{DeletedEventsID: deleted})
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &apperr.Error{Kind: apperr.KindValidation, Message: "invalid event id", Err: err}
	}
	return id, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
