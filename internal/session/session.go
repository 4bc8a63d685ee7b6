// Package session opens remote shells against target hosts and runs
// inventory commands over them. Connection failures are scoped to one
// host; the caller skips the host and moves on.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/orafleet/patchscan/internal/config"
	"github.com/orafleet/patchscan/internal/credentials"
)

// Runner executes shell commands on one connected host.
type Runner interface {
	Run(cmd string) (string, error)
	Close() error
}

type dialFunc func(host string, cred credentials.Credential) (Runner, error)

// Manager establishes sessions with credential fallback and bounded
// retries. It holds no per-host state between Connect calls.
type Manager struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver credentials.Resolver

	dial  dialFunc
	sleep func(time.Duration)
}

// NewManager creates a session manager using the given credential
// resolver.
func NewManager(cfg *config.Config, logger *zap.Logger, resolver credentials.Resolver) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		sleep:    time.Sleep,
	}
	m.dial = m.sshDial
	return m
}

// Connect opens a shell session to host. The default credential is
// tried first; on authentication failure the resolver is asked for an
// alternate identity, bounded by the configured credential attempt
// count. Network failures retry the same credential with a fixed delay.
func (m *Manager) Connect(host string) (Runner, error) {
	cred, err := m.resolver.Default()
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}

	for attempt := 1; ; attempt++ {
		runner, err := m.dialWithRetry(host, cred)
		if err == nil {
			return runner, nil
		}
		if !isAuthError(err) {
			return nil, fmt.Errorf("connecting to %s: %w", host, err)
		}

		m.logger.Warn("Authentication failed",
			zap.String("host", host),
			zap.String("username", cred.Username))

		if attempt >= m.cfg.MaxCredentialTries {
			return nil, fmt.Errorf("connecting to %s: %w", host, err)
		}

		next, ok, rerr := m.resolver.Fallback(host)
		if rerr != nil {
			return nil, fmt.Errorf("resolving fallback credentials: %w", rerr)
		}
		if !ok {
			return nil, fmt.Errorf("connecting to %s: %w", host, err)
		}
		cred = next
	}
}

// dialWithRetry retries transport-level failures with the same
// credential. Authentication failures return immediately; retrying the
// same password cannot succeed.
func (m *Manager) dialWithRetry(host string, cred credentials.Credential) (Runner, error) {
	var lastErr error
	for attempt := 0; attempt <= m.cfg.ConnectRetries; attempt++ {
		if attempt > 0 {
			m.logger.Info("Retrying connection",
				zap.String("host", host),
				zap.Int("attempt", attempt),
				zap.Int("max", m.cfg.ConnectRetries))
			m.sleep(m.cfg.RetryDelay)
		}

		runner, err := m.dial(host, cred)
		if err == nil {
			return runner, nil
		}
		lastErr = err
		if isAuthError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (m *Manager) sshDial(host string, cred credentials.Credential) (Runner, error) {
	clientCfg := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cred.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         m.cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(m.cfg.SSHPort))
	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return nil, err
	}

	return &sshRunner{client: client, logger: m.logger.With(zap.String("host", host))}, nil
}

func isAuthError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// sshRunner runs each command in its own SSH session on a shared
// client connection.
type sshRunner struct {
	client *ssh.Client
	logger *zap.Logger
}

func (r *sshRunner) Run(cmd string) (string, error) {
	sess, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	err = sess.Run(cmd)

	// Inventory commands write routine noise to stderr; ORA- lines are
	// expected on hosts with stopped instances.
	if msg := strings.TrimSpace(stderr.String()); msg != "" && !strings.Contains(msg, "ORA-") {
		r.logger.Debug("Remote command stderr",
			zap.String("command", cmd),
			zap.String("stderr", firstLine(msg)))
	}

	if err != nil {
		// Non-zero exit is normal for scraping pipelines (grep with no
		// match, find over missing roots); only transport errors matter.
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), nil
		}
		return stdout.String(), fmt.Errorf("running %q: %w", cmd, err)
	}

	return stdout.String(), nil
}

func (r *sshRunner) Close() error {
	return r.client.Close()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
