// Package api exposes the activity registry over HTTP.
package api

import (
	"fmt"
	"net/http"
	"net/url"

	"school-activities/internal/activities"
	apperrors "school-activities/internal/common/errors"
	"school-activities/internal/common/logger"
	"school-activities/internal/common/metrics"
	"school-activities/internal/notify"

	"github.com/labstack/echo/v4"
)

const indexPage = "/static/index.html"

// MessageResponse is the body of a successful roster change.
type MessageResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	store      *activities.Store
	dispatcher *notify.Dispatcher
	logger     logger.Logger
}

func NewHandler(store *activities.Store, dispatcher *notify.Dispatcher, log logger.Logger) *Handler {
	h := &Handler{
		store:      store,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
	for _, a := range store.List() {
		metrics.SetParticipants(a.Name, len(a.Participants))
	}
	return h
}

// ListActivities handles GET /activities.
func (h *Handler) ListActivities(c echo.Context) error {
	return c.JSON(http.StatusOK, activityListing(h.store.List()))
}

// Signup handles POST /activities/:name/signup?email=.
func (h *Handler) Signup(c echo.Context) error {
	name := activityName(c)
	email := c.QueryParam("email")
	if email == "" {
		return apperrors.NewMissingParameterError("email")
	}

	a, err := h.store.Signup(name, email)
	if err != nil {
		return err
	}

	metrics.ActivitySignups.WithLabelValues(name).Inc()
	h.rosterChanged(c, notify.EventSignup, a, email)

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

// Unregister handles DELETE /activities/:name/unregister?email=.
func (h *Handler) Unregister(c echo.Context) error {
	name := activityName(c)
	email := c.QueryParam("email")
	if email == "" {
		return apperrors.NewMissingParameterError("email")
	}

	a, err := h.store.Unregister(name, email)
	if err != nil {
		return err
	}

	metrics.ActivityUnregistrations.WithLabelValues(name).Inc()
	h.rosterChanged(c, notify.EventUnregister, a, email)

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, name),
	})
}

// Root redirects to the bundled front-end.
func (h *Handler) Root(c echo.Context) error {
	return c.Redirect(http.StatusTemporaryRedirect, indexPage)
}

// rosterChanged logs and dispatches a committed change. The participants
// gauge is kept by the store's roster observer, not here.
func (h *Handler) rosterChanged(c echo.Context, eventType notify.EventType, a activities.Activity, email string) {
	event := notify.NewRosterEvent(eventType, a.Name, email)
	fields := map[string]interface{}{
		"requestId":    c.Response().Header().Get(echo.HeaderXRequestID),
		"eventId":      event.ID,
		"eventType":    string(eventType),
		"activity":     a.Name,
		"participants": len(a.Participants),
	}
	if h.store.CapacityEnforced() {
		fields["spotsLeft"] = a.SpotsLeft()
	}
	h.logger.Info("roster updated", fields)

	// Delivery failures are logged and counted by the dispatcher.
	_ = h.dispatcher.Dispatch(c.Request().Context(), event)
}

// activityName returns the decoded :name segment. Echo leaves params escaped
// when it routes on the raw path.
func activityName(c echo.Context) string {
	name := c.Param("name")
	if c.Request().URL.RawPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
