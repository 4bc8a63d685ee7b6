// Package discovery locates Oracle homes on a connected host. Oracle
// installations are not self-registering, so detection layers several
// heuristics of decreasing reliability: the oratab registry, a
// filesystem search, the process environment, and finally a static
// guess so the inspection stage always has at least one candidate.
package discovery

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/orafleet/patchscan/internal/config"
)

// CommandRunner is the slice of a session needed to probe a host.
type CommandRunner interface {
	Run(cmd string) (string, error)
}

type strategy struct {
	name string
	run  func(r CommandRunner) []string
}

// Discoverer finds Oracle home directories on remote hosts.
type Discoverer struct {
	cfg        *config.Config
	logger     *zap.Logger
	strategies []strategy
}

// New creates a Discoverer with the standard heuristic order: oratab,
// directory search, environment, fallback.
func New(cfg *config.Config, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Discoverer{cfg: cfg, logger: logger}
	d.strategies = []strategy{
		{name: "oratab", run: d.fromOratab},
		{name: "directory-search", run: d.fromSearch},
		{name: "environment", run: d.fromEnvironment},
		{name: "fallback", run: d.fromFallback},
	}
	return d
}

// Discover runs the heuristics in priority order and returns the homes
// from the first one that yields any, duplicates removed in first-seen
// order. The fallback strategy always yields a candidate, so the result
// is non-empty; whether the path exists is settled by the inspector.
func (d *Discoverer) Discover(r CommandRunner) []string {
	for _, s := range d.strategies {
		homes := dedupe(s.run(r))
		if len(homes) == 0 {
			continue
		}
		d.logger.Debug("Oracle homes discovered",
			zap.String("strategy", s.name),
			zap.Strings("homes", homes))
		return homes
	}
	return nil
}

// fromOratab reads the oratab registry. Entries are SID:HOME:STARTUP;
// comments and blank lines are skipped.
func (d *Discoverer) fromOratab(r CommandRunner) []string {
	cmds := make([]string, 0, len(d.cfg.OratabPaths))
	for _, p := range d.cfg.OratabPaths {
		cmds = append(cmds, "cat "+p+" 2>/dev/null")
	}

	out, err := r.Run(strings.Join(cmds, " || "))
	if err != nil {
		d.logger.Debug("oratab read failed", zap.Error(err))
		return nil
	}
	return parseOratab(out)
}

func parseOratab(out string) []string {
	var homes []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			continue
		}
		home := strings.TrimSpace(parts[1])
		if home != "" && home != "/" {
			homes = append(homes, home)
		}
	}
	return homes
}

// fromSearch walks the configured roots for dbhome_N layouts. Each
// matched directory is itself an Oracle home.
func (d *Discoverer) fromSearch(r CommandRunner) []string {
	var names []string
	for i, n := range d.cfg.DBHomeNames {
		if i > 0 {
			names = append(names, "-o")
		}
		names = append(names, "-name", n)
	}

	cmd := "find " + strings.Join(d.cfg.SearchRoots, " ") + " " +
		strings.Join(names, " ") + " 2>/dev/null"
	out, err := r.Run(cmd)
	if err != nil {
		d.logger.Debug("directory search failed", zap.Error(err))
		return nil
	}

	var homes []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			homes = append(homes, line)
		}
	}
	return homes
}

// fromEnvironment reads ORACLE_HOME from the login environment.
func (d *Discoverer) fromEnvironment(r CommandRunner) []string {
	out, err := r.Run("env | grep ORACLE_HOME")
	if err != nil {
		d.logger.Debug("environment probe failed", zap.Error(err))
		return nil
	}

	var homes []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "ORACLE_HOME=") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if home := strings.TrimSpace(parts[1]); home != "" {
			homes = append(homes, home)
		}
	}
	return homes
}

// fromFallback returns the static default home. It may not exist on
// the host; the inspector's opatch probe decides that.
func (d *Discoverer) fromFallback(CommandRunner) []string {
	d.logger.Warn("No Oracle homes found, trying default location",
		zap.String("home", d.cfg.FallbackHome))
	return []string{path.Clean(d.cfg.FallbackHome)}
}

func dedupe(homes []string) []string {
	seen := make(map[string]bool, len(homes))
	unique := homes[:0]
	for _, h := range homes {
		if !seen[h] {
			seen[h] = true
			unique = append(unique, h)
		}
	}
	return unique
}
