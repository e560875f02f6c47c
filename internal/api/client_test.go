package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beaconapp/authcore/internal/keystore"
	"github.com/beaconapp/authcore/internal/logging"
)

const loginSuccessBody = `{
	"status": "success",
	"message": "Logged in.",
	"data": {
		"user": {
			"id": 7,
			"email": "jane@example.com",
			"first_name": "Jane",
			"last_name": "Doe",
			"full_name": "Jane Doe",
			"phone": "5550001",
			"country_code": "+44",
			"full_phone": "+445550001"
		},
		"token": "tok-xyz"
	}
}`

func TestLoginParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			User struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			} `json:"user"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.User.Email != "jane@example.com" || body.User.Password != "pw" {
			t.Errorf("unexpected credentials %+v", body.User)
		}
		w.Write([]byte(loginSuccessBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, keystore.NewMemoryStore(), logging.Discard())
	res, err := client.Login(context.Background(), "jane@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if res.Token != "tok-xyz" {
		t.Fatalf("expected tok-xyz, got %q", res.Token)
	}
	if res.User.ID != 7 || res.User.FirstName != "Jane" || res.User.FullPhone != "+445550001" {
		t.Fatalf("unexpected user %+v", res.User)
	}
}

func TestRequestAttachesStoredToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	tokens := keystore.NewMemoryStore()
	if err := tokens.Set(context.Background(), "tok-123"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	client := NewClient(srv.URL, tokens, logging.Discard())
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRequestWithoutTokenHasNoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(loginSuccessBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, keystore.NewMemoryStore(), logging.Discard())
	if _, err := client.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestUnauthorizedResponseClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Signature has expired"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	tokens := keystore.NewMemoryStore()
	if err := tokens.Set(ctx, "stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	client := NewClient(srv.URL, tokens, logging.Discard())
	err := client.UpdatePassword(ctx, "old", "new")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
		t.Fatalf("expected unauthorized api error, got %v", err)
	}
	// The stale token is gone before the failure reaches the caller.
	if _, err := tokens.Get(ctx); !errors.Is(err, keystore.ErrNotFound) {
		t.Fatalf("expected token cleared, got %v", err)
	}
}

func TestRegisterDefaultsCountryCode(t *testing.T) {
	var gotCountryCode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			User map[string]any `json:"user"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotCountryCode, _ = body.User["country_code"].(string)
		w.Write([]byte(loginSuccessBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, keystore.NewMemoryStore(), logging.Discard())
	_, err := client.Register(context.Background(), SignupRequest{
		FirstName:            "Jane",
		LastName:             "Doe",
		Email:                "jane@example.com",
		Phone:                "5550001",
		Password:             "pw123456",
		PasswordConfirmation: "pw123456",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if gotCountryCode != DefaultCountryCode {
		t.Fatalf("expected default country code, got %q", gotCountryCode)
	}
}

func TestValidationErrorsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation failed","errors":["Email has already been taken","Password is too short"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, keystore.NewMemoryStore(), logging.Discard())
	_, err := client.Register(context.Background(), SignupRequest{Email: "dup@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}

	if got := ErrorMessage(err); got != "Email has already been taken, Password is too short" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeUserPartialPayload(t *testing.T) {
	u := normalizeUser(remoteUser{ID: 3, Email: "x@y.z"})
	if u.ID != 3 || u.Email != "x@y.z" {
		t.Fatalf("unexpected user %+v", u)
	}
	// Optional fields map to zero values, not errors.
	if u.FirstName != "" || u.FullPhone != "" {
		t.Fatalf("expected empty optional fields, got %+v", u)
	}
}
