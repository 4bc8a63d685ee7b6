// Package opatch drives the vendor OPatch utility over a remote
// session and scrapes its free-text output into structured records.
package opatch

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orafleet/patchscan/pkg/models"
)

// ErrOPatchMissing marks a home without a usable OPatch binary. The
// installation is skipped; siblings on the same host still run.
var ErrOPatchMissing = errors.New("opatch not found")

// CommandRunner is the slice of a session needed to run OPatch.
type CommandRunner interface {
	Run(cmd string) (string, error)
}

// Inspector captures raw OPatch output from one Oracle home at a time.
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates an Inspector.
func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{logger: logger}
}

// Inspect probes the home for OPatch and, if present, captures the
// patch listing, the OPatch version, the sqlplus banner, and the SID.
// Failures are scoped to this one home.
func (i *Inspector) Inspect(r CommandRunner, home string) (models.RawInventory, error) {
	raw := models.RawInventory{OracleHome: home}

	probe, err := r.Run("ls -l " + home + "/OPatch/opatch 2>/dev/null")
	if err != nil {
		return raw, fmt.Errorf("probing %s: %w", home, err)
	}
	if strings.TrimSpace(probe) == "" || strings.Contains(probe, "No such file") {
		return raw, fmt.Errorf("%s: %w", home, ErrOPatchMissing)
	}

	if raw.LspatchesOut, err = r.Run(home + "/OPatch/opatch lspatches"); err != nil {
		return raw, fmt.Errorf("opatch lspatches in %s: %w", home, err)
	}
	if raw.VersionOut, err = r.Run(home + "/OPatch/opatch version"); err != nil {
		return raw, fmt.Errorf("opatch version in %s: %w", home, err)
	}

	// Banner carries the database software version; absence is fine.
	raw.SQLPlusOut, err = r.Run(home + "/bin/sqlplus -V 2>/dev/null")
	if err != nil {
		i.logger.Debug("sqlplus banner unavailable", zap.String("home", home), zap.Error(err))
	}

	raw.SID = i.findSID(r, home)
	return raw, nil
}

// findSID looks for a pmon process bound to the home, then falls back
// to a path segment that looks like an instance name.
func (i *Inspector) findSID(r CommandRunner, home string) string {
	cmd := fmt.Sprintf("ps -ef | grep pmon | grep %s | awk '{print $NF}' | sed 's/ora_pmon_//g'", home)
	out, err := r.Run(cmd)
	if err == nil {
		for _, line := range strings.Split(out, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.Contains(line, "grep") {
				return line
			}
		}
	}

	for _, part := range strings.Split(home, "/") {
		if strings.HasPrefix(part, "db_") || strings.HasPrefix(part, "ora") {
			return part
		}
	}
	return ""
}
