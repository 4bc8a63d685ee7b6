// Package credentials separates credential acquisition from connection
// logic so the session manager can be tested without a live terminal.
package credentials

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Credential is a username/password pair. It is never persisted and
// must never appear in logs.
type Credential struct {
	Username string
	Password string
}

// String redacts the password so an accidental %v stays harmless.
func (c Credential) String() string {
	return c.Username + ":********"
}

// Resolver supplies credentials to the session manager. Default is
// asked once for the primary identity; Fallback is consulted after an
// authentication failure. Fallback returns ok=false when the operator
// declines to try another identity for the host.
type Resolver interface {
	Default() (Credential, error)
	Fallback(host string) (Credential, bool, error)
}

// TerminalResolver prompts on the controlling terminal. The default
// username comes from configuration; the password is read without echo.
type TerminalResolver struct {
	DefaultUsername string

	in  *bufio.Reader
	out io.Writer

	cached Credential
	primed bool
}

// NewTerminalResolver creates a resolver reading stdin and writing
// prompts to stderr.
func NewTerminalResolver(defaultUsername string) *TerminalResolver {
	return &TerminalResolver{
		DefaultUsername: defaultUsername,
		in:              bufio.NewReader(os.Stdin),
		out:             os.Stderr,
	}
}

// Default prompts once for the default identity's password and caches
// the result for subsequent hosts.
func (t *TerminalResolver) Default() (Credential, error) {
	if t.primed {
		return t.cached, nil
	}

	fmt.Fprintf(t.out, "Connecting with default username: %s\n", t.DefaultUsername)
	password, err := t.readPassword(fmt.Sprintf("Enter password for %s: ", t.DefaultUsername))
	if err != nil {
		return Credential{}, err
	}

	t.cached = Credential{Username: t.DefaultUsername, Password: password}
	t.primed = true
	return t.cached, nil
}

// Fallback asks whether to retry the host with a different identity
// and, if so, prompts for it. A successful fallback replaces the cached
// credential so later hosts try it first.
func (t *TerminalResolver) Fallback(host string) (Credential, bool, error) {
	fmt.Fprintf(t.out, "Authentication failed for %s.\n", host)
	answer, err := t.readLine("Try different credentials? (y/n): ")
	if err != nil {
		return Credential{}, false, err
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return Credential{}, false, nil
	}

	username, err := t.readLine("Enter username: ")
	if err != nil {
		return Credential{}, false, err
	}
	username = strings.TrimSpace(username)

	password, err := t.readPassword(fmt.Sprintf("Enter password for %s: ", username))
	if err != nil {
		return Credential{}, false, err
	}

	t.cached = Credential{Username: username, Password: password}
	t.primed = true
	return t.cached, true, nil
}

func (t *TerminalResolver) readLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *TerminalResolver) readPassword(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	// Piped stdin, used by scripted runs.
	return t.readLine("")
}
