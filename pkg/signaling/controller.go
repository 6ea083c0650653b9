package signaling

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/firetalk/switchboard/pkg/signaling/proto"
	"github.com/firetalk/switchboard/pkg/signaling/websocket"
	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/firetalk/switchboard/pkg/token"
	log "github.com/sirupsen/logrus"
)

// Sender is a live outbound handle to one connected user. The websocket
// control channel implements it; tests substitute fakes.
type Sender interface {
	Send(event string, data interface{}) error
}

// Timings configures the call housekeeping periods. Zero values fall back to
// the defaults.
type Timings struct {
	// RingTimeout force-ends calls nobody answered.
	RingTimeout time.Duration
	// DeclinedGrace and EndedGrace delay deletion of terminal calls so that
	// late duplicate events are answered with a proper error instead of
	// "not found".
	DeclinedGrace time.Duration
	EndedGrace    time.Duration
	// AuthDeadline closes connections that never authenticate.
	AuthDeadline time.Duration
}

const (
	defaultRingTimeout   = 30 * time.Second
	defaultDeclinedGrace = 5 * time.Second
	defaultEndedGrace    = 1 * time.Second
	defaultAuthDeadline  = 10 * time.Second
)

func (t Timings) withDefaults() Timings {
	if t.RingTimeout == 0 {
		t.RingTimeout = defaultRingTimeout
	}
	if t.DeclinedGrace == 0 {
		t.DeclinedGrace = defaultDeclinedGrace
	}
	if t.EndedGrace == 0 {
		t.EndedGrace = defaultEndedGrace
	}
	if t.AuthDeadline == 0 {
		t.AuthDeadline = defaultAuthDeadline
	}
	return t
}

// Controller is the signaling coordinator. It owns the presence registry and
// call table (via the store), the connection router and all housekeeping
// timers. Every mutation runs under one mutex, so concurrent events from
// different connections are serialized and the later-validated transition
// loses cleanly.
type Controller struct {
	mu      sync.Mutex
	store   storage.Interface
	issuer  *token.Issuer
	sink    EventSink
	timings Timings

	// connections routes a user ID to its single live connection handle.
	connections map[string]Sender

	ringTimers    map[string]*time.Timer
	cleanupTimers map[string]*time.Timer
}

func NewController(store storage.Interface, issuer *token.Issuer, sink EventSink, timings Timings) *Controller {
	if sink == nil {
		sink = NewDiscardSink()
	}

	return &Controller{
		store:         store,
		issuer:        issuer,
		sink:          sink,
		timings:       timings.withDefaults(),
		connections:   make(map[string]Sender),
		ringTimers:    make(map[string]*time.Timer),
		cleanupTimers: make(map[string]*time.Timer),
	}
}

// NewControlChannel wraps an upgraded connection in a control channel and
// starts its workers.
func (ctrl *Controller) NewControlChannel(conn net.Conn, terminateCh chan<- struct{}) *ControlChannel {
	driver := websocket.NewDriver(conn, terminateCh)
	cc := newControlChannel(ctrl, driver)
	driver.Start()
	cc.start()
	return cc
}

// Authenticate marks the user online and binds the connection in the router.
// A repeated auth for the same user overwrites the previous binding: the
// user reconnected on a new device or session and the last writer wins.
func (ctrl *Controller) Authenticate(cc Sender, userID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	user, err := ctrl.store.Users().FindByID(userID)
	if err != nil {
		return proto.NewNotFoundError("invalid userId")
	}

	if err := ctrl.store.Users().SetOnline(userID, true); err != nil {
		return proto.NewNotFoundError("invalid userId")
	}
	ctrl.connections[userID] = cc

	log.Infof("controller authenticated user '%s' (%s)", user.Name, userID)

	ctrl.send(cc, proto.EventAuthSuccess, proto.AuthSuccess{UserID: userID})
	ctrl.send(cc, proto.EventUsersList, ctrl.onlineRoster(userID))
	ctrl.broadcast(userID, proto.EventUserOnline, proto.UserStatus{
		UserID: userID,
		Name:   user.Name,
	})
	ctrl.sink.PresenceChanged(userID, user.Name, true)

	return nil
}

// Disconnect tears down the presence state of a closed connection. If the
// router already points at a newer connection for this user, the user stays
// online and nothing is emitted.
func (ctrl *Controller) Disconnect(cc Sender, userID string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	bound, ok := ctrl.connections[userID]
	if !ok || bound != cc {
		return
	}
	delete(ctrl.connections, userID)

	// Disconnect races with registration cleanup are expected, a missing
	// user is a no-op.
	user, err := ctrl.store.Users().FindByID(userID)
	if err != nil {
		return
	}
	if err := ctrl.store.Users().SetOnline(userID, false); err != nil {
		log.Errorf("controller could not mark user '%s' offline: %v", userID, err)
		return
	}

	log.Infof("controller disconnected user '%s' (%s)", user.Name, userID)

	ctrl.broadcast(userID, proto.EventUserOffline, proto.UserStatus{
		UserID: userID,
		Name:   user.Name,
	})
	ctrl.sink.PresenceChanged(userID, user.Name, false)
}

// onlineRoster returns the online users excluding the requester.
// Callers must hold ctrl.mu.
func (ctrl *Controller) onlineRoster(excludeID string) []proto.UserInfo {
	roster := make([]proto.UserInfo, 0)

	online, err := ctrl.store.Users().FetchOnline()
	if err != nil {
		log.Errorf("controller could not fetch online users: %v", err)
		return roster
	}

	for id, u := range online {
		if id == excludeID {
			continue
		}
		roster = append(roster, proto.UserInfo{ID: u.ID, Name: u.Name})
	}

	sort.Slice(roster, func(i, j int) bool {
		return roster[i].ID < roster[j].ID
	})

	return roster
}

// send delivers one event to one connection, best effort.
// Callers must hold ctrl.mu.
func (ctrl *Controller) send(cc Sender, event string, data interface{}) {
	if cc == nil {
		return
	}
	if err := cc.Send(event, data); err != nil {
		log.Errorf("controller could not send %s event: %v", event, err)
	}
}

// sendToUser delivers one event to a user if a connection handle is bound.
// Events for offline users are dropped, never queued.
// Callers must hold ctrl.mu.
func (ctrl *Controller) sendToUser(userID, event string, data interface{}) {
	cc, ok := ctrl.connections[userID]
	if !ok {
		return
	}
	ctrl.send(cc, event, data)
}

// broadcast delivers one event to every connected user except one.
// Callers must hold ctrl.mu.
func (ctrl *Controller) broadcast(exceptID, event string, data interface{}) {
	for userID, cc := range ctrl.connections {
		if userID == exceptID {
			continue
		}
		ctrl.send(cc, event, data)
	}
}
