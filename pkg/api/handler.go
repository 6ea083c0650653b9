package api

import (
	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/firetalk/switchboard/pkg/token"
)

// Handler contains all properties to serve the REST API
type Handler struct {
	nc     *nats.Conn
	store  storage.Interface
	issuer *token.Issuer
}

// NewHandler creates a new API handler. nc may be nil when no event broker
// is configured; the realtime event relay is not registered in that case.
func NewHandler(nc *nats.Conn, store storage.Interface, issuer *token.Issuer) *Handler {
	return &Handler{
		nc:     nc,
		store:  store,
		issuer: issuer,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.POST("/users/register", h.handleRegisterUser)
	api.GET("/users", h.handleFetchUsers)
	api.GET("/users/:id", h.handleGetUserByID)

	api.GET("/calls", h.handleFetchCalls)

	api.POST("/token", h.handleIssueToken)

	api.GET("/health", h.handleHealth)

	if h.nc != nil {
		api.Any("/realtime-events", h.realtimeEventsHandler())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{Error: err.Error()}
}
