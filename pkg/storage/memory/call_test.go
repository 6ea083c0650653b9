package memory

import (
	"strings"
	"testing"

	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/storage"
)

func newTestCall(t *testing.T, st storage.Interface) *model.Call {
	t.Helper()
	c := &model.Call{CallerID: "user_a", CalleeID: "user_b"}
	if err := st.Calls().Create(c); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	return c
}

func TestCallStoreCreate(t *testing.T) {
	st := NewStore()

	c := newTestCall(t, st)
	if !strings.HasPrefix(c.ID, "call_") {
		t.Fatalf("Create: expected generated ID with call_ prefix, got %q", c.ID)
	}
	if c.ChannelName != "voice_channel_"+c.ID {
		t.Fatalf("Create: channel name not derived from call ID: %q", c.ChannelName)
	}
	if c.Status != model.CallStatusRinging {
		t.Fatalf("Create: new call must be ringing, got %q", c.Status)
	}

	if err := st.Calls().Create(&model.Call{CallerID: "user_a"}); err != storage.ErrValidation {
		t.Fatalf("Create: want ErrValidation for missing callee, got %v", err)
	}
}

func TestCallStoreStatusTransitions(t *testing.T) {
	st := NewStore()

	// Happy path: ringing -> active -> ended.
	c := newTestCall(t, st)
	if err := st.Calls().UpdateStatus(c.ID, model.CallStatusActive); err != nil {
		t.Fatalf("UpdateStatus ringing->active: unexpected error: %v", err)
	}
	if err := st.Calls().UpdateStatus(c.ID, model.CallStatusEnded); err != nil {
		t.Fatalf("UpdateStatus active->ended: unexpected error: %v", err)
	}

	// No transition leaves a terminal status.
	if err := st.Calls().UpdateStatus(c.ID, model.CallStatusActive); err != storage.ErrConflict {
		t.Fatalf("UpdateStatus ended->active: want ErrConflict, got %v", err)
	}
	if err := st.Calls().UpdateStatus(c.ID, model.CallStatusEnded); err != storage.ErrConflict {
		t.Fatalf("UpdateStatus ended->ended: want ErrConflict, got %v", err)
	}

	// Declined is terminal too.
	c2 := newTestCall(t, st)
	if err := st.Calls().UpdateStatus(c2.ID, model.CallStatusDeclined); err != nil {
		t.Fatalf("UpdateStatus ringing->declined: unexpected error: %v", err)
	}
	if err := st.Calls().UpdateStatus(c2.ID, model.CallStatusEnded); err != storage.ErrConflict {
		t.Fatalf("UpdateStatus declined->ended: want ErrConflict, got %v", err)
	}

	if err := st.Calls().UpdateStatus("call_missing", model.CallStatusEnded); err != storage.ErrNotFound {
		t.Fatalf("UpdateStatus unknown call: want ErrNotFound, got %v", err)
	}
}

func TestCallStoreDelete(t *testing.T) {
	st := NewStore()

	c := newTestCall(t, st)
	if err := st.Calls().Delete(c.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if _, err := st.Calls().FindByID(c.ID); err != storage.ErrNotFound {
		t.Fatalf("FindByID after delete: want ErrNotFound, got %v", err)
	}
	if err := st.Calls().Delete(c.ID); err != storage.ErrNotFound {
		t.Fatalf("Delete twice: want ErrNotFound, got %v", err)
	}
}
