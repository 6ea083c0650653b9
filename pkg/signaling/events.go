package signaling

import (
	"encoding/json"
	"time"

	"github.com/firetalk/switchboard/pkg/model"
	nats "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EventSink receives fire-and-forget notifications about presence and call
// lifecycle changes. Sink failures never fail the signaling operation that
// produced them.
type EventSink interface {
	PresenceChanged(userID, name string, online bool)
	CallChanged(callID string, status model.CallStatus)
}

const (
	subjectPresenceEvents = "voice.signaling.v1.events.presence"
	subjectCallEvents     = "voice.signaling.v1.events.call"
)

type presenceEvent struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type callEvent struct {
	CallID    string    `json:"callId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// natsSink publishes lifecycle events to NATS for external consumers such as
// the realtime-events API relay.
type natsSink struct {
	nc *nats.Conn
}

func NewNATSSink(nc *nats.Conn) EventSink {
	return &natsSink{nc: nc}
}

func (s *natsSink) PresenceChanged(userID, name string, online bool) {
	status := "OFFLINE"
	if online {
		status = "ONLINE"
	}

	ev := presenceEvent{
		UserID:    userID,
		Name:      name,
		Status:    status,
		Timestamp: time.Now().Round(time.Second).UTC(),
	}
	if err := s.publish(subjectPresenceEvents, ev); err != nil {
		log.Errorf("controller could not publish presence status: %v", err)
	}
}

func (s *natsSink) CallChanged(callID string, status model.CallStatus) {
	ev := callEvent{
		CallID:    callID,
		Status:    status.String(),
		Timestamp: time.Now().Round(time.Second).UTC(),
	}
	if err := s.publish(subjectCallEvents, ev); err != nil {
		log.Errorf("controller could not publish call status: %v", err)
	}
}

func (s *natsSink) publish(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event message")
	}
	return s.nc.Publish(subject, data)
}

// discardSink is used when no NATS server is configured.
type discardSink struct{}

func NewDiscardSink() EventSink {
	return discardSink{}
}

func (discardSink) PresenceChanged(string, string, bool) {}
func (discardSink) CallChanged(string, model.CallStatus) {}
