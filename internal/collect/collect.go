// Package collect runs the per-host inventory pipeline: connect,
// discover Oracle homes, inspect each with OPatch, parse, append.
// Hosts are processed strictly in input order, one at a time; any
// failure is scoped to its host or home and never stops the run.
package collect

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/orafleet/patchscan/internal/config"
	"github.com/orafleet/patchscan/internal/discovery"
	"github.com/orafleet/patchscan/internal/opatch"
	"github.com/orafleet/patchscan/internal/report"
	"github.com/orafleet/patchscan/internal/session"
)

// Connector opens a command session against one host.
type Connector interface {
	Connect(host string) (session.Runner, error)
}

// Collector owns the sequential collection run.
type Collector struct {
	cfg        *config.Config
	logger     *zap.Logger
	sessions   Connector
	discoverer *discovery.Discoverer
	inspector  *opatch.Inspector

	sleep func(time.Duration)
}

// New creates a Collector using the given session source.
func New(cfg *config.Config, logger *zap.Logger, sessions Connector) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		cfg:        cfg,
		logger:     logger,
		sessions:   sessions,
		discoverer: discovery.New(cfg, logger),
		inspector:  opatch.NewInspector(logger),
		sleep:      time.Sleep,
	}
}

// Run processes every host in order and returns the accumulated
// report. The report is always returned, even when every host failed.
func (c *Collector) Run(hostList []string) *report.Report {
	rep := report.New()
	c.logger.Info("Starting collection run",
		zap.String("runID", rep.RunID),
		zap.Int("hosts", len(hostList)))

	for i, host := range hostList {
		if i > 0 && c.cfg.InterHostDelay > 0 {
			c.sleep(c.cfg.InterHostDelay)
		}
		c.collectHost(host, rep)
	}

	c.logger.Info("Collection run finished",
		zap.String("runID", rep.RunID),
		zap.Int("records", rep.Len()))
	return rep
}

func (c *Collector) collectHost(host string, rep *report.Report) {
	log := c.logger.With(zap.String("host", host))
	log.Info("Connecting")

	runner, err := c.sessions.Connect(host)
	if err != nil {
		log.Warn("Skipping host", zap.Error(err))
		return
	}
	defer runner.Close()

	homes := c.discoverer.Discover(runner)
	log.Info("Inspecting Oracle homes", zap.Int("count", len(homes)))

	for _, home := range homes {
		raw, err := c.inspector.Inspect(runner, home)
		if err != nil {
			if errors.Is(err, opatch.ErrOPatchMissing) {
				log.Info("OPatch not found, skipping home", zap.String("home", home))
			} else {
				log.Warn("Inspection failed, skipping home",
					zap.String("home", home), zap.Error(err))
			}
			continue
		}
		rep.Append(opatch.Parse(raw, host))
	}
}
