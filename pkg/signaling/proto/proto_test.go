package proto

import (
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	raw, err := Marshal(EventCallInitiate, CallInitiateRequest{
		FromUserID: "user_a",
		ToUserID:   "user_b",
	})
	if err != nil {
		t.Fatalf("Marshal: unexpected error: %v", err)
	}

	env, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}
	if env.Event != EventCallInitiate {
		t.Fatalf("Unmarshal: wrong event %q", env.Event)
	}

	req := CallInitiateRequest{}
	if err := env.DecodeData(&req); err != nil {
		t.Fatalf("DecodeData: unexpected error: %v", err)
	}
	if req.FromUserID != "user_a" || req.ToUserID != "user_b" {
		t.Fatalf("DecodeData: wrong payload: %+v", req)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("not json")); err == nil {
		t.Fatalf("Unmarshal: want error for invalid JSON")
	}
	if _, err := Unmarshal([]byte(`{"data":{}}`)); err == nil {
		t.Fatalf("Unmarshal: want error for missing event name")
	}
}

func TestDecodeDataRequiresPayload(t *testing.T) {
	env, err := Unmarshal([]byte(`{"event":"auth"}`))
	if err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}

	req := AuthRequest{}
	if err := env.DecodeData(&req); err == nil {
		t.Fatalf("DecodeData: want error for missing payload")
	}
}

func TestErrorEventFor(t *testing.T) {
	if got := ErrorEventFor(EventAuth); got != EventAuthError {
		t.Fatalf("ErrorEventFor(auth) = %q", got)
	}
	for _, ev := range []string{EventCallInitiate, EventCallAccept, EventCallDecline, EventCallEnd} {
		if got := ErrorEventFor(ev); got != EventCallError {
			t.Fatalf("ErrorEventFor(%s) = %q", ev, got)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	err := NewConflictError("call %s already ended", "call_1")
	if !IsConflictError(err) {
		t.Fatalf("IsConflictError: want true")
	}
	if IsNotFoundError(err) {
		t.Fatalf("IsNotFoundError: want false for conflict")
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("KindOf: want %s, got %s", KindConflict, KindOf(err))
	}

	if !IsUnauthorizedError(NewUnauthorizedError("nope")) {
		t.Fatalf("IsUnauthorizedError: want true")
	}
	if !IsValidationError(NewValidationError("bad")) {
		t.Fatalf("IsValidationError: want true")
	}
	if !IsNotFoundError(NewNotFoundError("gone")) {
		t.Fatalf("IsNotFoundError: want true")
	}
	if KindOf(nil) != ErrorKind("") {
		t.Fatalf("KindOf(nil): want empty kind")
	}
}
