package signaling

import (
	"time"

	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/signaling/proto"
	"github.com/firetalk/switchboard/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// InitiateCall creates a ringing call between the authenticated sender and
// the callee, issues the media token and offers the call to both parties.
func (ctrl *Controller) InitiateCall(cc Sender, senderID string, req proto.CallInitiateRequest) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if req.FromUserID == "" || req.ToUserID == "" {
		return proto.NewValidationError("fromUserId and toUserId are required")
	}
	if req.FromUserID != senderID {
		return proto.NewUnauthorizedError("sender is not the caller")
	}

	caller, err := ctrl.store.Users().FindByID(senderID)
	if err != nil {
		return proto.NewNotFoundError("caller not found")
	}
	callee, err := ctrl.store.Users().FindByID(req.ToUserID)
	if err != nil {
		return proto.NewNotFoundError("user not found")
	}
	if !callee.Online {
		return proto.NewConflictError("user is offline")
	}

	call := &model.Call{
		CallerID: caller.ID,
		CalleeID: callee.ID,
	}
	if err := ctrl.store.Calls().Create(call); err != nil {
		return err
	}

	// Both parties join the same channel, the provider assigns the uids.
	tok, _, err := ctrl.issuer.Token(call.ChannelName, 0)
	if err != nil {
		// The call must not dangle without a deliverable offer.
		if derr := ctrl.store.Calls().Delete(call.ID); derr != nil {
			log.Errorf("controller could not remove undeliverable call '%s': %v", call.ID, derr)
		}
		return err
	}

	log.Infof("controller initiating call '%s': %s -> %s", call.ID, caller.Name, callee.Name)

	ctrl.send(cc, proto.EventCallInitiated, proto.CallOffer{
		CallID:      call.ID,
		ChannelName: call.ChannelName,
		Token:       tok,
		AppID:       ctrl.issuer.AppID(),
		ToUser:      &proto.UserInfo{ID: callee.ID, Name: callee.Name},
	})
	ctrl.sendToUser(callee.ID, proto.EventCallIncoming, proto.CallOffer{
		CallID:      call.ID,
		ChannelName: call.ChannelName,
		Token:       tok,
		AppID:       ctrl.issuer.AppID(),
		FromUser:    &proto.UserInfo{ID: caller.ID, Name: caller.Name},
	})

	ctrl.startRingTimer(call.ID)
	ctrl.sink.CallChanged(call.ID, model.CallStatusRinging)

	return nil
}

// AcceptCall moves a ringing call to active. Only the callee may accept.
func (ctrl *Controller) AcceptCall(senderID, callID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	call, err := ctrl.store.Calls().FindByID(callID)
	if err != nil {
		return proto.NewNotFoundError("call not found")
	}
	if call.CalleeID != senderID {
		return proto.NewUnauthorizedError("not your call")
	}
	if err := ctrl.store.Calls().UpdateStatus(callID, model.CallStatusActive); err != nil {
		return proto.NewConflictError("call is not ringing")
	}
	ctrl.stopRingTimer(callID)

	log.Infof("controller accepted call '%s'", callID)

	ctrl.sendToUser(call.CallerID, proto.EventCallAccepted, proto.CallEvent{CallID: callID})
	ctrl.sendToUser(call.CalleeID, proto.EventCallAccepted, proto.CallEvent{CallID: callID})
	ctrl.sink.CallChanged(callID, model.CallStatusActive)

	return nil
}

// DeclineCall rejects a ringing call. Only the callee may decline; a caller
// who changed their mind ends the call instead.
func (ctrl *Controller) DeclineCall(senderID, callID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	call, err := ctrl.store.Calls().FindByID(callID)
	if err != nil {
		return proto.NewNotFoundError("call not found")
	}
	if call.CalleeID != senderID {
		return proto.NewUnauthorizedError("not your call")
	}
	if err := ctrl.store.Calls().UpdateStatus(callID, model.CallStatusDeclined); err != nil {
		return proto.NewConflictError("call is not ringing")
	}
	ctrl.stopRingTimer(callID)
	ctrl.scheduleCleanup(callID, model.CallStatusDeclined, ctrl.timings.DeclinedGrace)

	log.Infof("controller declined call '%s'", callID)

	ctrl.sendToUser(call.CallerID, proto.EventCallDeclined, proto.CallEvent{CallID: callID})
	ctrl.sink.CallChanged(callID, model.CallStatusDeclined)

	return nil
}

// EndCall terminates a ringing or active call. Either party may end it;
// repeated ends of an already terminal call are rejected so notifications
// are never emitted twice.
func (ctrl *Controller) EndCall(senderID, callID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	call, err := ctrl.store.Calls().FindByID(callID)
	if err != nil {
		return proto.NewNotFoundError("call not found")
	}
	if call.CallerID != senderID && call.CalleeID != senderID {
		return proto.NewUnauthorizedError("not your call")
	}
	if call.Status.Terminal() {
		return proto.NewConflictError("call already %s", call.Status)
	}
	if err := ctrl.store.Calls().UpdateStatus(callID, model.CallStatusEnded); err != nil {
		return proto.NewConflictError("call already terminated")
	}
	ctrl.stopRingTimer(callID)
	ctrl.endCallLocked(callID, call.CallerID, call.CalleeID)

	return nil
}

// endCallLocked finishes the shared tail of EndCall and the ring timeout:
// cleanup scheduling and the call:ended notification to both parties.
// Callers must hold ctrl.mu and have moved the call to ended already.
func (ctrl *Controller) endCallLocked(callID, callerID, calleeID string) {
	ctrl.scheduleCleanup(callID, model.CallStatusEnded, ctrl.timings.EndedGrace)

	log.Infof("controller ended call '%s'", callID)

	ctrl.sendToUser(callerID, proto.EventCallEnded, proto.CallEvent{CallID: callID})
	ctrl.sendToUser(calleeID, proto.EventCallEnded, proto.CallEvent{CallID: callID})
	ctrl.sink.CallChanged(callID, model.CallStatusEnded)
}

// startRingTimer force-ends the call if nobody answers within the ring
// timeout, so sessions cannot dangle in ringing forever.
// Callers must hold ctrl.mu.
func (ctrl *Controller) startRingTimer(callID string) {
	ctrl.ringTimers[callID] = time.AfterFunc(ctrl.timings.RingTimeout, func() {
		ctrl.expireRinging(callID)
	})
}

// Callers must hold ctrl.mu.
func (ctrl *Controller) stopRingTimer(callID string) {
	if t, ok := ctrl.ringTimers[callID]; ok {
		t.Stop()
		delete(ctrl.ringTimers, callID)
	}
}

func (ctrl *Controller) expireRinging(callID string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	delete(ctrl.ringTimers, callID)

	call, err := ctrl.store.Calls().FindByID(callID)
	if err != nil {
		return
	}
	// The timer raced with an accept/decline/end that already won.
	if call.Status != model.CallStatusRinging {
		return
	}
	if err := ctrl.store.Calls().UpdateStatus(callID, model.CallStatusEnded); err != nil {
		return
	}

	log.Warnf("controller ring timeout for call '%s'", callID)
	ctrl.endCallLocked(callID, call.CallerID, call.CalleeID)
}

// scheduleCleanup removes a terminal call after a grace period. The call is
// only deleted if it is still present and still in the status that scheduled
// the cleanup.
// Callers must hold ctrl.mu.
func (ctrl *Controller) scheduleCleanup(callID string, status model.CallStatus, after time.Duration) {
	if t, ok := ctrl.cleanupTimers[callID]; ok {
		t.Stop()
	}

	ctrl.cleanupTimers[callID] = time.AfterFunc(after, func() {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()

		delete(ctrl.cleanupTimers, callID)

		call, err := ctrl.store.Calls().FindByID(callID)
		if err != nil || call.Status != status {
			return
		}
		if err := ctrl.store.Calls().Delete(callID); err != nil && err != storage.ErrNotFound {
			log.Errorf("controller could not delete call '%s': %v", callID, err)
		}
	})
}
