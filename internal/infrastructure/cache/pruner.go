package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
)

// Pruner periodically sweeps expired entries from backends that do not
// expire them on their own.
type Pruner struct {
	cron    *cron.Cron
	targets []domain.Pruner
	timeout time.Duration
	logger  *zap.Logger
}

// NewPruner schedules a sweep of targets according to spec, e.g. "@every 10m"
func NewPruner(spec string, log *zap.Logger, targets ...domain.Pruner) (*Pruner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pruner")

	cl := cronLogger{log.Sugar()}
	p := &Pruner{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		targets: targets,
		timeout: time.Minute,
		logger:  log,
	}

	if _, err := p.cron.AddFunc(spec, func() { p.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule pruner with spec %s: %w", spec, err)
	}
	return p, nil
}

// Run sweeps every target once and returns the number of removed entries
func (p *Pruner) Run(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	removed := 0
	for _, t := range p.targets {
		n, err := t.Prune(ctx)
		if err != nil {
			p.logger.Error("prune failed", zap.Error(err))
			continue
		}
		removed += n
	}

	p.logger.Info("prune completed",
		zap.Int("removed", removed),
		zap.Duration("duration", time.Since(start)),
	)
	return removed
}

// Start begins the schedule
func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
