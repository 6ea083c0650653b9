package api

import (
	"encoding/json"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/firetalk/switchboard/pkg/api/resource"
)

// realtimeEventsHandler relays the broker event stream to a websocket
// client. One subscription per connection, removed when the client leaves.
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		sub, err := h.nc.Subscribe("voice.signaling.v1.events.*", func(msg *nats.Msg) {
			// The subject suffix is the event topic, e.g. presence or call.
			topic := msg.Subject[strings.LastIndex(msg.Subject, ".")+1:]

			var data interface{}
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				log.Error("api: received malformed realtime event: ", err)
				return
			}

			out, _ := json.Marshal(resource.NewRealtimeEvent(topic, data))
			if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
				log.Error("api: failed to send realtime event: ", err)
			}
		})
		if err != nil {
			log.Error("api: failed to subscribe to realtime events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		// Drain the client side until it closes the connection.
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return nil
			}
		}
	}
}
