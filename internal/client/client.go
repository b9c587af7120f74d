// Package client is a typed HTTP client for the MediTrack API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Is lets callers match 401 responses with errors.Is(err, ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client talks to the MediTrack REST API.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialProvider
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets a per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a client. creds may be nil for unauthenticated use (login and
// register only).
func New(baseURL string, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	req := dto.RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMedicines returns the caller's medicines.
func (c *Client) ListMedicines(ctx context.Context) ([]dto.MedicineResponse, error) {
	var out []dto.MedicineResponse
	if err := c.do(ctx, http.MethodGet, "/api/meds", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMedicine adds a medicine to the caller's schedule.
func (c *Client) CreateMedicine(ctx context.Context, name, at, dosage string) (*dto.MedicineResponse, error) {
	var out dto.MedicineResponse
	req := dto.CreateMedicineRequest{Name: name, Time: at, Dosage: dosage}
	if err := c.do(ctx, http.MethodPost, "/api/meds", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMedicine removes a medicine by id.
func (c *Client) DeleteMedicine(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/meds/"+url.PathEscape(id), nil, nil, true)
}

// Trigger records a firing of the medicine at the given HH:MM time.
func (c *Client) Trigger(ctx context.Context, medicineID, at string) (*dto.AlertResponse, error) {
	var out dto.AlertResponse
	req := dto.TriggerAlertRequest{MedicineID: medicineID, Time: at}
	if err := c.do(ctx, http.MethodPost, "/api/alerts/trigger", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkTaken confirms the dose was taken.
func (c *Client) MarkTaken(ctx context.Context, alertID string) (*dto.AlertResponse, error) {
	return c.confirm(ctx, "/api/alerts/taken", alertID)
}

// MarkMissed confirms the dose was missed.
func (c *Client) MarkMissed(ctx context.Context, alertID string) (*dto.AlertResponse, error) {
	return c.confirm(ctx, "/api/alerts/missed", alertID)
}

func (c *Client) confirm(ctx context.Context, path, alertID string) (*dto.AlertResponse, error) {
	var out dto.AlertResponse
	if err := c.do(ctx, http.MethodPost, path, dto.ConfirmAlertRequest{AlertID: alertID}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// HistoryQuery narrows the history server side. Zero values mean no filter.
// time.Local cannot be named to the server; filter locally with Summarize.
type HistoryQuery struct {
	Date     string // YYYY-MM-DD
	Location *time.Location
	Status   string
}

// History returns the caller's alerts with medicines expanded.
func (c *Client) History(ctx context.Context, q HistoryQuery) ([]dto.HistoryEntry, error) {
	v := url.Values{}
	if q.Date != "" {
		v.Set("date", q.Date)
		if q.Location != nil && q.Location != time.Local {
			v.Set("tz", q.Location.String())
		}
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	path := "/api/alerts/history"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []dto.HistoryEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if c.creds == nil {
			return ErrNoCredentials
		}
		tok, err := c.creds.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope dto.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err == nil {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
