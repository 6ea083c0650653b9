package signaling

import (
	"github.com/gobwas/ws"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Handler exposes the signaling websocket endpoint
type Handler struct {
	ctrl *Controller
}

// NewHandler creates a new signaling handler
func NewHandler(ctrl *Controller) *Handler {
	return &Handler{
		ctrl: ctrl,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register signaling routes")
	e.Any("/ws", h.signalingHandler())
}

func (h *Handler) signalingHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			return err
		}
		defer conn.Close()

		terminateCh := make(chan struct{})
		cc := h.ctrl.NewControlChannel(conn, terminateCh)
		defer cc.Close()

		<-terminateCh

		log.Debug("handler exit signaling handler func")
		return nil
	}
}
