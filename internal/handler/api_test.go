package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/service"
	"github.com/Ayushbunkar/Meditrack/internal/testutil"
)

type apiEnv struct {
	auth      *AuthHandler
	medicines *MedicineHandler
	alerts    *AlertHandler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	logger := testutil.DiscardLogger()
	tokens := auth.NewTokenManager("handler-test-secret-0123", time.Hour)

	return &apiEnv{
		auth:      NewAuthHandler(service.NewAuthService(store, tokens, nil, logger), logger),
		medicines: NewMedicineHandler(service.NewMedicineService(store, nil, nil, logger), logger),
		alerts:    NewAlertHandler(service.NewAlertService(store, store, nil, nil, logger), logger),
	}
}

// call invokes h directly, authenticating as userID when it is non-empty
// and exposing id as the {id} route parameter.
func call(t *testing.T, h http.HandlerFunc, method, target, body, userID, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if userID != "" {
		ctx = auth.ContextWithIdentity(ctx, &model.Identity{UserID: userID})
	}
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body=%s)", err, rec.Body.String())
	}
}

func (e *apiEnv) register(t *testing.T, email string) dto.AuthResponse {
	t.Helper()
	rec := call(t, e.auth.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Test","email":"`+email+`","password":"secret1"}`, "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.AuthResponse
	decodeInto(t, rec, &resp)
	return resp
}

func (e *apiEnv) createMedicine(t *testing.T, userID, name, at string) dto.MedicineResponse {
	t.Helper()
	rec := call(t, e.medicines.Create, http.MethodPost, "/api/meds",
		`{"name":"`+name+`","time":"`+at+`","dosage":"1 tablet"}`, userID, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create medicine: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var med dto.MedicineResponse
	decodeInto(t, rec, &med)
	return med
}

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	reg := env.register(t, "a@x.com")
	if reg.Token == "" || reg.User.ID == "" {
		t.Fatalf("expected token and user, got %+v", reg)
	}

	rec := call(t, env.auth.Login, http.MethodPost, "/api/auth/login", `{"email":"A@X.com","password":"secret1"}`, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	var login dto.AuthResponse
	decodeInto(t, rec, &login)
	if login.User.ID != reg.User.ID {
		t.Errorf("expected user %s, got %s", reg.User.ID, login.User.ID)
	}

	rec = call(t, env.auth.Me, http.MethodGet, "/api/auth/me", "", reg.User.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	var me dto.UserResponse
	decodeInto(t, rec, &me)
	if me.Email != "a@x.com" {
		t.Errorf("unexpected email: %s", me.Email)
	}
}

func TestAuthHandler_Errors(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	env.register(t, "taken@x.com")

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		status  int
		message string
	}{
		{"register invalid json", env.auth.Register, `{"name":`, http.StatusBadRequest, "Invalid request body"},
		{"register missing fields", env.auth.Register, `{}`, http.StatusBadRequest, "name, email and password are required"},
		{"register short password", env.auth.Register, `{"name":"a","email":"s@x.com","password":"123"}`, http.StatusBadRequest, "password must be at least 6 characters"},
		{"register duplicate", env.auth.Register, `{"name":"a","email":"taken@x.com","password":"secret1"}`, http.StatusConflict, "Email already registered"},
		{"login wrong password", env.auth.Login, `{"email":"taken@x.com","password":"nope123"}`, http.StatusUnauthorized, "Invalid email or password"},
		{"login unknown email", env.auth.Login, `{"email":"ghost@x.com","password":"secret1"}`, http.StatusUnauthorized, "Invalid email or password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, tt.handler, http.MethodPost, "/api/auth", tt.body, "", "")
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeMessage(t, rec); msg != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestMedicineHandler_CRUD(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	user := env.register(t, "crud@x.com").User.ID

	med := env.createMedicine(t, user, "Aspirin", "08:00")
	if med.UserID != user || med.Dosage != "1 tablet" {
		t.Errorf("unexpected medicine: %+v", med)
	}

	rec := call(t, env.medicines.List, http.MethodGet, "/api/meds", "", user, "")
	var list []dto.MedicineResponse
	decodeInto(t, rec, &list)
	if len(list) != 1 || list[0].Name != "Aspirin" {
		t.Fatalf("expected one Aspirin, got %+v", list)
	}

	rec = call(t, env.medicines.Get, http.MethodGet, "/api/meds/"+med.ID, "", user, med.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = call(t, env.medicines.Update, http.MethodPut, "/api/meds/"+med.ID, `{"dosage":"2 tablets"}`, user, med.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated dto.MedicineResponse
	decodeInto(t, rec, &updated)
	if updated.Dosage != "2 tablets" || updated.Name != "Aspirin" || updated.Time != "08:00" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	rec = call(t, env.medicines.Delete, http.MethodDelete, "/api/meds/"+med.ID, "", user, med.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Medicine deleted" {
		t.Errorf("unexpected message: %s", msg)
	}

	rec = call(t, env.medicines.Get, http.MethodGet, "/api/meds/"+med.ID, "", user, med.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestMedicineHandler_ListEmpty(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	user := env.register(t, "empty@x.com").User.ID

	rec := call(t, env.medicines.List, http.MethodGet, "/api/meds", "", user, "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %s", rec.Body.String())
	}
}

func TestMedicineHandler_Errors(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	owner := env.register(t, "owner@x.com").User.ID
	other := env.register(t, "other@x.com").User.ID
	med := env.createMedicine(t, owner, "Aspirin", "08:00")

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		body    string
		userID  string
		id      string
		status  int
		message string
	}{
		{"create missing dosage", env.medicines.Create, http.MethodPost, `{"name":"A","time":"08:00"}`, owner, "", http.StatusBadRequest, "name, time and dosage are required"},
		{"create bad json", env.medicines.Create, http.MethodPost, `[`, owner, "", http.StatusBadRequest, "Invalid request body"},
		{"update blank name", env.medicines.Update, http.MethodPut, `{"name":"  "}`, owner, med.ID, http.StatusBadRequest, "name must not be empty"},
		{"update other user", env.medicines.Update, http.MethodPut, `{"name":"Hijack"}`, other, med.ID, http.StatusNotFound, "Medicine not found"},
		{"delete other user", env.medicines.Delete, http.MethodDelete, "", other, med.ID, http.StatusNotFound, "Medicine not found"},
		{"get unknown", env.medicines.Get, http.MethodGet, "", owner, "missing", http.StatusNotFound, "Medicine not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, tt.handler, tt.method, "/api/meds", tt.body, tt.userID, tt.id)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeMessage(t, rec); msg != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, msg)
			}
		})
	}

	rec := call(t, env.medicines.Get, http.MethodGet, "/api/meds/"+med.ID, "", owner, med.ID)
	var got dto.MedicineResponse
	decodeInto(t, rec, &got)
	if got.Name != "Aspirin" {
		t.Errorf("other user's update leaked: %+v", got)
	}
}

func TestAlertHandler_Lifecycle(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	user := env.register(t, "alerts@x.com").User.ID
	med := env.createMedicine(t, user, "Aspirin", "08:00")

	rec := call(t, env.alerts.Trigger, http.MethodPost, "/api/alerts/trigger", `{"medicineId":"`+med.ID+`","time":"08:00"}`, user, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("trigger: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var alert dto.AlertResponse
	decodeInto(t, rec, &alert)
	if alert.Status != "missed" || alert.State != "pending" || alert.MedicineID != med.ID {
		t.Errorf("unexpected triggered alert: %+v", alert)
	}
	if alert.ConfirmedAt != nil {
		t.Errorf("expected no confirmation yet")
	}

	rec = call(t, env.alerts.Taken, http.MethodPost, "/api/alerts/taken", `{"alertId":"`+alert.ID+`"}`, user, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("taken: expected 200, got %d", rec.Code)
	}
	var taken dto.AlertResponse
	decodeInto(t, rec, &taken)
	if taken.Status != "taken" || taken.State != "taken" || taken.ConfirmedAt == nil {
		t.Errorf("unexpected taken alert: %+v", taken)
	}

	rec = call(t, env.alerts.History, http.MethodGet, "/api/alerts/history", "", user, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var history []dto.HistoryEntry
	decodeInto(t, rec, &history)
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	if history[0].Status != "taken" || history[0].Medicine == nil || history[0].Medicine.Name != "Aspirin" {
		t.Errorf("unexpected history entry: %+v", history[0])
	}

	rec = call(t, env.alerts.Missed, http.MethodPost, "/api/alerts/missed", `{"alertId":"`+alert.ID+`"}`, user, "")
	var missed dto.AlertResponse
	decodeInto(t, rec, &missed)
	if missed.Status != "missed" || missed.State != "missed" {
		t.Errorf("unexpected missed alert: %+v", missed)
	}
}

func TestAlertHandler_HistoryDeletedMedicineIsNull(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	user := env.register(t, "deleted@x.com").User.ID
	med := env.createMedicine(t, user, "Ibuprofen", "21:00")

	call(t, env.alerts.Trigger, http.MethodPost, "/api/alerts/trigger", `{"medicineId":"`+med.ID+`"}`, user, "")
	call(t, env.medicines.Delete, http.MethodDelete, "/api/meds/"+med.ID, "", user, med.ID)

	rec := call(t, env.alerts.History, http.MethodGet, "/api/alerts/history", "", user, "")
	var raw []map[string]any
	decodeInto(t, rec, &raw)
	if len(raw) != 1 {
		t.Fatalf("expected one entry, got %d", len(raw))
	}
	if v, ok := raw[0]["medicineId"]; !ok || v != nil {
		t.Errorf("expected medicineId null, got %v", v)
	}
	if raw[0]["time"] != "21:00" {
		t.Errorf("expected time defaulted from medicine, got %v", raw[0]["time"])
	}
}

func TestAlertHandler_Errors(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	owner := env.register(t, "a-owner@x.com").User.ID
	other := env.register(t, "a-other@x.com").User.ID
	med := env.createMedicine(t, owner, "Aspirin", "08:00")

	rec := call(t, env.alerts.Trigger, http.MethodPost, "/api/alerts/trigger", `{"medicineId":"`+med.ID+`"}`, owner, "")
	var alert dto.AlertResponse
	decodeInto(t, rec, &alert)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
		body    string
		userID  string
		status  int
		message string
	}{
		{"trigger missing medicine id", env.alerts.Trigger, "/api/alerts/trigger", `{}`, owner, http.StatusBadRequest, "medicineId is required"},
		{"trigger other user's medicine", env.alerts.Trigger, "/api/alerts/trigger", `{"medicineId":"` + med.ID + `"}`, other, http.StatusNotFound, "Medicine not found"},
		{"taken missing alert id", env.alerts.Taken, "/api/alerts/taken", `{}`, owner, http.StatusBadRequest, "alertId is required"},
		{"taken other user's alert", env.alerts.Taken, "/api/alerts/taken", `{"alertId":"` + alert.ID + `"}`, other, http.StatusNotFound, "Alert not found"},
		{"missed unknown alert", env.alerts.Missed, "/api/alerts/missed", `{"alertId":"nope"}`, owner, http.StatusNotFound, "Alert not found"},
		{"history bad date", env.alerts.History, "/api/alerts/history?date=yesterday", "", owner, http.StatusBadRequest, "date must be YYYY-MM-DD"},
		{"history bad status", env.alerts.History, "/api/alerts/history?status=pending", "", owner, http.StatusBadRequest, "status must be taken or missed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, tt.handler, http.MethodPost, tt.target, tt.body, tt.userID, "")
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeMessage(t, rec); msg != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, msg)
			}
		})
	}
}
