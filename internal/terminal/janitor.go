package terminal

import (
	"context"
	"time"

	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultIdleTTL   = 30 * time.Minute
	defaultSweepTick = time.Minute
)

// Janitor periodically evicts idle sessions from a Registry so long-lived
// operators pick up a fresh catalog.
type Janitor struct {
	reg     *Registry
	idleTTL time.Duration
	tick    time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewJanitor(reg *Registry, idleTTL time.Duration, log *zap.Logger) *Janitor {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	tick := defaultSweepTick
	if idleTTL < tick {
		tick = idleTTL
	}
	return &Janitor{
		reg:     reg,
		idleTTL: idleTTL,
		tick:    tick,
		now:     time.Now,
		log:     logger.OrNop(log),
	}
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Sweep evicts every session idle for longer than the TTL.
func (j *Janitor) Sweep() int {
	evicted := j.reg.EvictIdle(j.now().Add(-j.idleTTL))
	if len(evicted) > 0 {
		j.log.Info("evicted idle sessions",
			zap.Int("count", len(evicted)),
			zap.Strings("operator_ids", evicted))
	}
	return len(evicted)
}
