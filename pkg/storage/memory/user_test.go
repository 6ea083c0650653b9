package memory

import (
	"strings"
	"testing"

	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/storage"
)

func TestUserStoreCreateAndFind(t *testing.T) {
	st := NewStore()

	u := &model.User{Name: "Alice", DeviceID: "device-1"}
	if err := st.Users().Create(u); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if !strings.HasPrefix(u.ID, "user_") {
		t.Fatalf("Create: expected generated ID with user_ prefix, got %q", u.ID)
	}
	if u.Online {
		t.Fatalf("Create: new user must be offline")
	}

	fetched, err := st.Users().FindByID(u.ID)
	if err != nil {
		t.Fatalf("FindByID: unexpected error: %v", err)
	}
	if fetched.Name != "Alice" || fetched.DeviceID != "device-1" {
		t.Fatalf("FindByID: wrong record: %+v", fetched)
	}
}

func TestUserStoreCreateValidation(t *testing.T) {
	st := NewStore()

	if err := st.Users().Create(&model.User{Name: "", DeviceID: "d"}); err != storage.ErrValidation {
		t.Fatalf("Create: want ErrValidation for empty name, got %v", err)
	}
	if err := st.Users().Create(&model.User{Name: "n", DeviceID: ""}); err != storage.ErrValidation {
		t.Fatalf("Create: want ErrValidation for empty deviceID, got %v", err)
	}
}

func TestUserStoreUniqueIDs(t *testing.T) {
	st := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		u := &model.User{Name: "n", DeviceID: "d"}
		if err := st.Users().Create(u); err != nil {
			t.Fatalf("Create: unexpected error: %v", err)
		}
		if seen[u.ID] {
			t.Fatalf("Create: duplicate ID %q", u.ID)
		}
		seen[u.ID] = true
	}
}

func TestUserStoreSetOnline(t *testing.T) {
	st := NewStore()

	if err := st.Users().SetOnline("user_missing", true); err != storage.ErrNotFound {
		t.Fatalf("SetOnline: want ErrNotFound for unknown user, got %v", err)
	}

	u := &model.User{Name: "Bob", DeviceID: "device-2"}
	if err := st.Users().Create(u); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if err := st.Users().SetOnline(u.ID, true); err != nil {
		t.Fatalf("SetOnline: unexpected error: %v", err)
	}

	online, err := st.Users().FetchOnline()
	if err != nil {
		t.Fatalf("FetchOnline: unexpected error: %v", err)
	}
	if len(online) != 1 {
		t.Fatalf("FetchOnline: want 1 user, got %d", len(online))
	}
	if _, ok := online[u.ID]; !ok {
		t.Fatalf("FetchOnline: missing user %q", u.ID)
	}

	if err := st.Users().SetOnline(u.ID, false); err != nil {
		t.Fatalf("SetOnline: unexpected error: %v", err)
	}
	online, _ = st.Users().FetchOnline()
	if len(online) != 0 {
		t.Fatalf("FetchOnline: want no users after going offline, got %d", len(online))
	}
}
