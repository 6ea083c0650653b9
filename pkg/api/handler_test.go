package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/firetalk/switchboard/pkg/api/resource"
	"github.com/firetalk/switchboard/pkg/model"
	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/firetalk/switchboard/pkg/storage/memory"
	"github.com/firetalk/switchboard/pkg/token"
)

func newTestServer(t *testing.T) (*echo.Echo, storage.Interface) {
	t.Helper()
	iss, err := token.NewIssuer("test-app-id", "test-app-certificate", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: unexpected error: %v", err)
	}
	st := memory.NewStore()

	e := echo.New()
	NewHandler(nil, st, iss).RegisterRoutes(e)
	return e, st
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterUser(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/users/register", `{"name":"Alice","deviceId":"device-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: want status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	out := resource.UserResource{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("register: invalid response body: %v", err)
	}
	if out.ID == "" || out.Name != "Alice" || out.DeviceID != "device-1" {
		t.Fatalf("register: unexpected resource: %+v", out)
	}
	if out.Online {
		t.Fatalf("register: new user must start offline")
	}
}

func TestRegisterUserValidation(t *testing.T) {
	e, st := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/users/register", `{"deviceId":"device-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register without name: want status 400, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPost, "/api/v1/users/register", `{"name":"Alice"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register without deviceId: want status 400, got %d", rec.Code)
	}

	users, err := st.Users().FetchAll()
	if err != nil {
		t.Fatalf("FetchAll: unexpected error: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("rejected registrations created %d users", len(users))
	}
}

func TestFetchUsersSorted(t *testing.T) {
	e, st := newTestServer(t)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if err := st.Users().Create(&model.User{Name: name, DeviceID: "device-" + name}); err != nil {
			t.Fatalf("Create: unexpected error: %v", err)
		}
	}

	rec := doJSON(t, e, http.MethodGet, "/api/v1/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch users: want status 200, got %d", rec.Code)
	}

	out := resource.UserListResource{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("fetch users: invalid response body: %v", err)
	}
	if len(out.Members) != 3 {
		t.Fatalf("fetch users: want 3 members, got %d", len(out.Members))
	}
	for i := 1; i < len(out.Members); i++ {
		if out.Members[i-1].ID > out.Members[i].ID {
			t.Fatalf("fetch users: members not sorted by id")
		}
	}
}

func TestGetUserByID(t *testing.T) {
	e, st := newTestServer(t)
	u := &model.User{Name: "Alice", DeviceID: "device-1"}
	if err := st.Users().Create(u); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/v1/users/"+u.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get user: want status 200, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/users/user_missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get unknown user: want status 404, got %d", rec.Code)
	}
}

func TestIssueToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/token", `{"channelName":"voice_channel_test","uid":42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("issue token: want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	out := resource.TokenResource{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("issue token: invalid response body: %v", err)
	}
	if out.Token == "" || out.AppID != "test-app-id" || out.UID != 42 {
		t.Fatalf("issue token: unexpected resource: %+v", out)
	}
	if !out.ExpiresAt.After(time.Now()) {
		t.Fatalf("issue token: credential already expired: %v", out.ExpiresAt)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/token", `{"uid":42}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("issue token without channel: want status 400, got %d", rec.Code)
	}
}

func TestFetchCalls(t *testing.T) {
	e, st := newTestServer(t)
	alice := &model.User{Name: "Alice", DeviceID: "device-1"}
	bob := &model.User{Name: "Bob", DeviceID: "device-2"}
	for _, u := range []*model.User{alice, bob} {
		if err := st.Users().Create(u); err != nil {
			t.Fatalf("Create: unexpected error: %v", err)
		}
	}
	call := &model.Call{CallerID: alice.ID, CalleeID: bob.ID}
	if err := st.Calls().Create(call); err != nil {
		t.Fatalf("Create call: unexpected error: %v", err)
	}

	rec := doJSON(t, e, http.MethodGet, "/api/v1/calls", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch calls: want status 200, got %d", rec.Code)
	}

	out := resource.CallListResource{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("fetch calls: invalid response body: %v", err)
	}
	if len(out.Members) != 1 {
		t.Fatalf("fetch calls: want 1 member, got %d", len(out.Members))
	}
	if out.Members[0].ID != call.ID || out.Members[0].Status != "ringing" {
		t.Fatalf("fetch calls: unexpected resource: %+v", out.Members[0])
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: want status 200, got %d", rec.Code)
	}

	out := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("health: invalid response body: %v", err)
	}
	if out["status"] != "ok" {
		t.Fatalf("health: unexpected status %v", out["status"])
	}
	if _, ok := out["timestamp"]; !ok {
		t.Fatalf("health: response misses timestamp field")
	}
}
