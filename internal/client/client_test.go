package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SendsBearerAndDecodes(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodGet || r.URL.Path != "/api/meds" {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Message: "Route not found"})
			return
		}
		writeJSON(w, http.StatusOK, []dto.MedicineResponse{
			{ID: "m1", Name: "Aspirin", Time: "08:00", Dosage: "1 tablet"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", StaticToken("tok-123"))
	meds, err := c.ListMedicines(context.Background())
	if err != nil {
		t.Fatalf("ListMedicines() error = %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(meds) != 1 || meds[0].Name != "Aspirin" || meds[0].Time != "08:00" {
		t.Errorf("unexpected medicines: %+v", meds)
	}
}

func TestClient_ErrorCarriesServerMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		unauthorized bool
	}{
		{"not found", http.StatusNotFound, `{"message":"Medicine not found"}`, "Medicine not found", false},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthorized"}`, "Unauthorized", true},
		{"non json body", http.StatusBadGateway, `bad gateway`, "request failed with status 502", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, StaticToken("t"))
			_, err := c.Trigger(context.Background(), "m1", "08:00")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMessage)
			}
			if errors.Is(err, ErrUnauthorized) != tt.unauthorized {
				t.Errorf("errors.Is(ErrUnauthorized) = %v", !tt.unauthorized)
			}
		})
	}
}

func TestClient_RequestBodies(t *testing.T) {
	t.Parallel()

	type seen struct {
		path string
		body map[string]string
	}
	calls := make(chan seen, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls <- seen{path: r.URL.Path, body: body}
		switch r.URL.Path {
		case "/api/auth/login":
			if r.Header.Get("Authorization") != "" {
				t.Error("login must not send credentials")
			}
			writeJSON(w, http.StatusOK, dto.AuthResponse{Token: "jwt", User: dto.UserResponse{ID: "u1"}})
		case "/api/alerts/trigger":
			writeJSON(w, http.StatusCreated, dto.AlertResponse{ID: "a1", Status: "missed", State: "pending"})
		default:
			writeJSON(w, http.StatusOK, dto.AlertResponse{ID: body["alertId"], Status: "taken", State: "taken"})
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL, StaticToken("t"))

	auth, err := c.Login(ctx, "a@x.com", "secret1")
	if err != nil || auth.Token != "jwt" {
		t.Fatalf("Login() = %+v, %v", auth, err)
	}
	got := <-calls
	if got.body["email"] != "a@x.com" || got.body["password"] != "secret1" {
		t.Errorf("login body = %v", got.body)
	}

	alert, err := c.Trigger(ctx, "m1", "08:00")
	if err != nil || alert.State != "pending" {
		t.Fatalf("Trigger() = %+v, %v", alert, err)
	}
	got = <-calls
	if got.body["medicineId"] != "m1" || got.body["time"] != "08:00" {
		t.Errorf("trigger body = %v", got.body)
	}

	taken, err := c.MarkTaken(ctx, "a1")
	if err != nil || taken.Status != "taken" {
		t.Fatalf("MarkTaken() = %+v, %v", taken, err)
	}
	got = <-calls
	if got.path != "/api/alerts/taken" || got.body["alertId"] != "a1" {
		t.Errorf("taken call = %+v", got)
	}

	if _, err := c.MarkMissed(ctx, "a1"); err != nil {
		t.Fatalf("MarkMissed() error = %v", err)
	}
	if got = <-calls; got.path != "/api/alerts/missed" {
		t.Errorf("missed path = %s", got.path)
	}
}

func TestClient_HistoryQuery(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		writeJSON(w, http.StatusOK, []dto.HistoryEntry{})
	}))
	defer srv.Close()

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	c := New(srv.URL, StaticToken("t"))
	tests := []struct {
		q    HistoryQuery
		want string
	}{
		{HistoryQuery{}, ""},
		{HistoryQuery{Date: "2024-03-01", Location: berlin, Status: "taken"}, "date=2024-03-01&status=taken&tz=Europe%2FBerlin"},
		{HistoryQuery{Date: "2024-03-01", Location: time.Local}, "date=2024-03-01"},
	}
	for _, tt := range tests {
		entries, err := c.History(context.Background(), tt.q)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if entries == nil {
			t.Error("History() returned nil slice")
		}
		if got := <-queries; got != tt.want {
			t.Errorf("query = %q, want %q", got, tt.want)
		}
	}
}

func TestClient_NoCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent without credentials")
	}))
	defer srv.Close()

	for _, creds := range []CredentialProvider{nil, StaticToken("  "), TokenFile{Path: filepath.Join(t.TempDir(), "missing")}} {
		c := New(srv.URL, creds)
		if _, err := c.ListMedicines(context.Background()); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("creds %T: expected ErrNoCredentials, got %v", creds, err)
		}
	}
}

func TestClient_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(addr, StaticToken("t"), WithTimeout(time.Second))
	if _, err := c.ListMedicines(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestTokenFile_SaveAndRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "token")
	f := TokenFile{Path: path}

	if err := f.Save("abc.def"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	tok, err := f.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "abc.def" {
		t.Errorf("Token() = %q", tok)
	}
}
