package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orafleet/patchscan/internal/config"
	"github.com/orafleet/patchscan/internal/credentials"
)

var errAuth = errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]")
var errNetwork = errors.New("dial tcp 10.0.0.1:22: i/o timeout")

type stubResolver struct {
	def       credentials.Credential
	fallback  credentials.Credential
	giveUp    bool
	fallbacks int
}

func (s *stubResolver) Default() (credentials.Credential, error) {
	return s.def, nil
}

func (s *stubResolver) Fallback(host string) (credentials.Credential, bool, error) {
	s.fallbacks++
	if s.giveUp {
		return credentials.Credential{}, false, nil
	}
	return s.fallback, true, nil
}

type nopRunner struct{}

func (nopRunner) Run(cmd string) (string, error) { return "", nil }
func (nopRunner) Close() error                   { return nil }

func newTestManager(resolver credentials.Resolver, dial dialFunc) *Manager {
	cfg := config.DefaultConfig()
	cfg.ConnectRetries = 2
	cfg.MaxCredentialTries = 3

	m := NewManager(cfg, nil, resolver)
	m.dial = dial
	m.sleep = func(time.Duration) {}
	return m
}

func TestConnectNetworkFailureBounded(t *testing.T) {
	resolver := &stubResolver{def: credentials.Credential{Username: "oracle", Password: "pw"}}

	dials := 0
	m := newTestManager(resolver, func(host string, cred credentials.Credential) (Runner, error) {
		dials++
		return nil, errNetwork
	})

	if _, err := m.Connect("db01"); err == nil {
		t.Fatal("expected error for unreachable host")
	}

	// Initial attempt plus ConnectRetries, same credential throughout.
	if dials != 3 {
		t.Errorf("dial attempts = %d, want 3", dials)
	}
	if resolver.fallbacks != 0 {
		t.Errorf("fallback consulted %d times for a network failure, want 0", resolver.fallbacks)
	}
}

func TestConnectNetworkFailureThenSuccess(t *testing.T) {
	resolver := &stubResolver{def: credentials.Credential{Username: "oracle", Password: "pw"}}

	dials := 0
	m := newTestManager(resolver, func(host string, cred credentials.Credential) (Runner, error) {
		dials++
		if dials < 2 {
			return nil, errNetwork
		}
		return nopRunner{}, nil
	})

	runner, err := m.Connect("db01")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	runner.Close()

	if dials != 2 {
		t.Errorf("dial attempts = %d, want 2", dials)
	}
}

func TestConnectAuthFallbackSucceeds(t *testing.T) {
	resolver := &stubResolver{
		def:      credentials.Credential{Username: "oracle", Password: "wrong"},
		fallback: credentials.Credential{Username: "dba", Password: "right"},
	}

	var usernames []string
	m := newTestManager(resolver, func(host string, cred credentials.Credential) (Runner, error) {
		usernames = append(usernames, cred.Username)
		if cred.Password != "right" {
			return nil, errAuth
		}
		return nopRunner{}, nil
	})

	runner, err := m.Connect("db01")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	runner.Close()

	if len(usernames) != 2 || usernames[0] != "oracle" || usernames[1] != "dba" {
		t.Errorf("dial credential order = %v, want [oracle dba]", usernames)
	}
	if resolver.fallbacks != 1 {
		t.Errorf("fallback consulted %d times, want 1", resolver.fallbacks)
	}
}

func TestConnectAuthAttemptsBounded(t *testing.T) {
	resolver := &stubResolver{
		def:      credentials.Credential{Username: "oracle", Password: "wrong"},
		fallback: credentials.Credential{Username: "dba", Password: "also-wrong"},
	}

	dials := 0
	m := newTestManager(resolver, func(host string, cred credentials.Credential) (Runner, error) {
		dials++
		return nil, errAuth
	})

	if _, err := m.Connect("db01"); err == nil {
		t.Fatal("expected error after exhausting credential attempts")
	}

	// Auth failures are never retried with the same password, so each
	// credential attempt is exactly one dial.
	if dials != 3 {
		t.Errorf("dial attempts = %d, want MaxCredentialTries (3)", dials)
	}
	if resolver.fallbacks != 2 {
		t.Errorf("fallback consulted %d times, want 2", resolver.fallbacks)
	}
}

func TestConnectAuthFallbackDeclined(t *testing.T) {
	resolver := &stubResolver{
		def:    credentials.Credential{Username: "oracle", Password: "wrong"},
		giveUp: true,
	}

	dials := 0
	m := newTestManager(resolver, func(host string, cred credentials.Credential) (Runner, error) {
		dials++
		return nil, errAuth
	})

	_, err := m.Connect("db01")
	if err == nil {
		t.Fatal("expected error when operator declines fallback")
	}
	if !strings.Contains(err.Error(), "db01") {
		t.Errorf("error should name the host: %v", err)
	}
	if dials != 1 {
		t.Errorf("dial attempts = %d, want 1", dials)
	}
}

func TestIsAuthError(t *testing.T) {
	if !isAuthError(errAuth) {
		t.Error("auth handshake error not recognized")
	}
	if isAuthError(errNetwork) {
		t.Error("network error misclassified as auth failure")
	}
	if isAuthError(nil) {
		t.Error("nil error misclassified")
	}
}

func TestCredentialStringRedacts(t *testing.T) {
	c := credentials.Credential{Username: "oracle", Password: "s3cret"}
	if s := c.String(); strings.Contains(s, "s3cret") {
		t.Errorf("Credential.String leaked the password: %q", s)
	}
}
