package devserver

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/beaconapp/authcore/internal/api"
	"github.com/beaconapp/authcore/internal/keystore"
	"github.com/beaconapp/authcore/internal/logging"
	"github.com/beaconapp/authcore/internal/session"
)

// startServer binds the dev server to an ephemeral port and returns its base
// URL.
func startServer(t *testing.T) string {
	t.Helper()

	srv, err := New(testConfig(), nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = srv.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	return "http://" + ln.Addr().String()
}

func TestClientAgainstDevServer(t *testing.T) {
	ctx := context.Background()
	baseURL := startServer(t)

	tokens := keystore.NewMemoryStore()
	client := api.NewClient(baseURL, tokens, logging.Discard())
	mgr := session.NewManager(client, tokens, logging.Discard())
	mgr.Init(ctx)

	if s := mgr.Snapshot(); s.Authenticated || s.Loading {
		t.Fatalf("expected signed-out settled state, got %+v", s)
	}

	err := mgr.Register(ctx, api.SignupRequest{
		FirstName:            "Jane",
		LastName:             "Doe",
		Email:                "jane@example.com",
		Phone:                "5550001",
		Password:             "hunter22pass",
		PasswordConfirmation: "hunter22pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	s := mgr.Snapshot()
	if !s.Authenticated || s.User == nil {
		t.Fatalf("expected established session, got %+v", s)
	}
	if s.User.FullName != "Jane Doe" {
		t.Fatalf("expected normalized full name, got %q", s.User.FullName)
	}
	// Country code defaulted on the way out and round-tripped back.
	if s.User.CountryCode != api.DefaultCountryCode {
		t.Fatalf("expected defaulted country code, got %q", s.User.CountryCode)
	}
	if _, err := tokens.Get(ctx); err != nil {
		t.Fatalf("expected persisted token: %v", err)
	}

	if err := mgr.UpdatePassword(ctx, "hunter22pass", "betterpass99"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	mgr.Logout(ctx)
	if s := mgr.Snapshot(); s.Authenticated || s.User != nil {
		t.Fatalf("expected torn-down session, got %+v", s)
	}
	if _, err := tokens.Get(ctx); !errors.Is(err, keystore.ErrNotFound) {
		t.Fatalf("expected token removed, got %v", err)
	}

	// Old password is gone; message is routed from the error field.
	err = mgr.Login(ctx, "jane@example.com", "hunter22pass")
	if err == nil || err.Error() != "Invalid email or password." {
		t.Fatalf("expected invalid credentials message, got %v", err)
	}

	if err := mgr.Login(ctx, "jane@example.com", "betterpass99"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if s := mgr.Snapshot(); !s.Authenticated {
		t.Fatalf("expected authenticated session, got %+v", s)
	}
}

func TestRevokedTokenClearsClientKeystore(t *testing.T) {
	ctx := context.Background()
	baseURL := startServer(t)

	tokens := keystore.NewMemoryStore()
	client := api.NewClient(baseURL, tokens, logging.Discard())
	mgr := session.NewManager(client, tokens, logging.Discard())
	mgr.Init(ctx)

	err := mgr.Register(ctx, api.SignupRequest{
		FirstName:            "Sam",
		LastName:             "Lee",
		Email:                "sam@example.com",
		Phone:                "5550002",
		Password:             "hunter22pass",
		PasswordConfirmation: "hunter22pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Corrupt the stored token so the next authenticated request 401s.
	if err := tokens.Set(ctx, "not-a-real-token"); err != nil {
		t.Fatalf("seed bad token: %v", err)
	}

	if err := mgr.UpdatePassword(ctx, "hunter22pass", "whatever99"); err == nil {
		t.Fatal("expected failure with bad token")
	}

	// The inbound interceptor cleared the bad token before the failure
	// surfaced.
	if _, err := tokens.Get(ctx); !errors.Is(err, keystore.ErrNotFound) {
		t.Fatalf("expected cleared keystore, got %v", err)
	}
}
