package signaling

import (
	"sync"
	"time"

	"github.com/firetalk/switchboard/pkg/signaling/proto"
	"github.com/firetalk/switchboard/pkg/signaling/websocket"
	log "github.com/sirupsen/logrus"
)

type channelStatus int

const (
	statusEstablished channelStatus = iota
	statusAuthenticated
)

// ControlChannel is the server side of one signaling connection. It owns the
// per-connection dispatch table, tracks which user the connection speaks
// for, and enforces that authentication happens within the deadline.
type ControlChannel struct {
	mu     sync.Mutex
	ctrl   *Controller
	driver *websocket.Driver

	status channelStatus
	userID string

	handlers map[string]eventHandler

	authCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// eventHandler is the tooling for handling inbound events, similar to the go
// http handler pattern. It allows middleware wrappers such as
// ensureAuthenticated.
type eventHandler func(env *proto.Envelope) error

func newControlChannel(ctrl *Controller, driver *websocket.Driver) *ControlChannel {
	cc := &ControlChannel{
		ctrl:   ctrl,
		driver: driver,
		status: statusEstablished,
		authCh: make(chan struct{}),
		stopCh: make(chan struct{}),
	}

	// The dispatch table lives and dies with the connection, so handlers can
	// never leak or double-bind across reconnects.
	cc.handlers = map[string]eventHandler{
		proto.EventAuth:         cc.authHandler(),
		proto.EventCallInitiate: cc.ensureAuthenticated(cc.callInitiateHandler()),
		proto.EventCallAccept:   cc.ensureAuthenticated(cc.callAcceptHandler()),
		proto.EventCallDecline:  cc.ensureAuthenticated(cc.callDeclineHandler()),
		proto.EventCallEnd:      cc.ensureAuthenticated(cc.callEndHandler()),
	}

	return cc
}

func (cc *ControlChannel) start() {
	go cc.run()
	go cc.waitForAuthOrClose()
}

func (cc *ControlChannel) run() {
	for msg := range cc.driver.Inbox {
		cc.handleMessage(msg.Data)
	}
}

// Close is called when the websocket handler is exiting, i.e. the connection
// is gone. It releases the auth watchdog and reconciles presence state.
func (cc *ControlChannel) Close() {
	cc.stopOnce.Do(func() {
		close(cc.stopCh)
	})

	// Stop closes the connection, which unblocks a reader still parked on a
	// silent peer. Without it the wait below can never finish.
	cc.driver.Stop()

	cc.mu.Lock()
	userID := cc.userID
	authenticated := cc.status == statusAuthenticated
	cc.mu.Unlock()

	if authenticated {
		cc.ctrl.Disconnect(cc, userID)
	}

	cc.driver.Close()
}

// Send implements Sender. Delivery is best effort: a full outbox drops the
// event rather than blocking the coordinator.
func (cc *ControlChannel) Send(event string, data interface{}) error {
	out, err := proto.Marshal(event, data)
	if err != nil {
		return err
	}
	if !cc.pushMessage(websocket.FlagContinue, out) {
		log.Warnf("controlchannel outbox full, dropping %s event", event)
	}
	return nil
}

// handleMessage dispatches one inbound frame. Any failure is answered on
// this connection only; the channel stays serviceable afterwards.
func (cc *ControlChannel) handleMessage(data []byte) {
	env, err := proto.Unmarshal(data)
	if err != nil {
		log.Debugf("controlchannel received invalid frame: %v", err)
		cc.sendError(proto.EventCallError, "invalid message")
		return
	}

	handler, ok := cc.handlers[env.Event]
	if !ok {
		cc.sendError(proto.ErrorEventFor(env.Event), "unknown event")
		return
	}

	if err := handler(env); err != nil {
		cc.replyError(env.Event, err)
	}
}

func (cc *ControlChannel) authHandler() eventHandler {
	return func(env *proto.Envelope) error {
		req := proto.AuthRequest{}
		if err := env.DecodeData(&req); err != nil {
			return proto.NewValidationError("invalid userId")
		}
		if req.UserID == "" {
			return proto.NewValidationError("invalid userId")
		}

		cc.mu.Lock()
		alreadyAuthed := cc.status == statusAuthenticated
		cc.mu.Unlock()
		if alreadyAuthed {
			return proto.NewValidationError("connection already authenticated")
		}

		if err := cc.ctrl.Authenticate(cc, req.UserID); err != nil {
			return err
		}

		cc.admitAuth(req.UserID)
		return nil
	}
}

func (cc *ControlChannel) callInitiateHandler() eventHandler {
	return func(env *proto.Envelope) error {
		req := proto.CallInitiateRequest{}
		if err := env.DecodeData(&req); err != nil {
			return proto.NewValidationError("fromUserId and toUserId are required")
		}
		return cc.ctrl.InitiateCall(cc, cc.UserID(), req)
	}
}

func (cc *ControlChannel) callAcceptHandler() eventHandler {
	return func(env *proto.Envelope) error {
		callID, err := decodeCallID(env)
		if err != nil {
			return err
		}
		return cc.ctrl.AcceptCall(cc.UserID(), callID)
	}
}

func (cc *ControlChannel) callDeclineHandler() eventHandler {
	return func(env *proto.Envelope) error {
		callID, err := decodeCallID(env)
		if err != nil {
			return err
		}
		return cc.ctrl.DeclineCall(cc.UserID(), callID)
	}
}

func (cc *ControlChannel) callEndHandler() eventHandler {
	return func(env *proto.Envelope) error {
		callID, err := decodeCallID(env)
		if err != nil {
			return err
		}
		return cc.ctrl.EndCall(cc.UserID(), callID)
	}
}

func decodeCallID(env *proto.Envelope) (string, error) {
	req := proto.CallActionRequest{}
	if err := env.DecodeData(&req); err != nil {
		return "", proto.NewValidationError("callId is required")
	}
	if req.CallID == "" {
		return "", proto.NewValidationError("callId is required")
	}
	return req.CallID, nil
}

// ensureAuthenticated rejects call events on connections that never
// completed an auth handshake.
func (cc *ControlChannel) ensureAuthenticated(next eventHandler) eventHandler {
	return func(env *proto.Envelope) error {
		cc.mu.Lock()
		authed := cc.status == statusAuthenticated
		cc.mu.Unlock()

		if !authed {
			return proto.NewUnauthorizedError("unauthorized")
		}
		return next(env)
	}
}

// admitAuth is called after the controller accepted the auth. It binds the
// user to this connection and releases the auth watchdog.
func (cc *ControlChannel) admitAuth(userID string) {
	cc.mu.Lock()
	cc.status = statusAuthenticated
	cc.userID = userID
	cc.mu.Unlock()

	select {
	case cc.authCh <- struct{}{}:
	default:
	}
}

// UserID returns the authenticated user of this connection, or an empty
// string before auth.
func (cc *ControlChannel) UserID() string {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.userID
}

// waitForAuthOrClose closes connections that do not authenticate within the
// deadline, so anonymous sockets cannot pile up.
func (cc *ControlChannel) waitForAuthOrClose() {
	select {
	case <-cc.authCh:
	case <-cc.stopCh:
	case <-time.After(cc.ctrl.timings.AuthDeadline):
		log.Warn("controlchannel auth deadline expired, closing connection")
		out, err := proto.Marshal(proto.EventAuthError, proto.ErrorEvent{Message: "authentication timeout"})
		if err == nil {
			cc.pushMessage(websocket.FlagCloseGracefully, out)
		}
	}
}

// replyError maps a handler failure onto the matching *:error event for the
// inbound event that caused it.
func (cc *ControlChannel) replyError(inEvent string, err error) {
	if kind := proto.KindOf(err); kind != "" {
		log.Debugf("controlchannel rejected %s event: %v", inEvent, err)
		if e, ok := err.(*proto.Error); ok {
			cc.sendError(proto.ErrorEventFor(inEvent), e.Message)
			return
		}
	}

	// Unexpected failure: keep the connection alive but tell the client.
	log.Errorf("controlchannel failed to handle %s event: %v", inEvent, err)
	cc.sendError(proto.ErrorEventFor(inEvent), "internal error")
}

func (cc *ControlChannel) sendError(errEvent, message string) {
	if err := cc.Send(errEvent, proto.ErrorEvent{Message: message}); err != nil {
		log.Errorf("controlchannel could not send %s event: %v", errEvent, err)
	}
}

func (cc *ControlChannel) pushMessage(flag websocket.Flag, data []byte) bool {
	select {
	case cc.driver.Outbox <- websocket.NewOutboxMessage(flag, data):
		return true
	default:
		return false // Buffer is full
	}
}
