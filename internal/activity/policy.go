package activity

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const DefaultAlertCooldown = 30 * time.Minute

// AlertPolicy decides whether an observed status deserves an AFK alert. Only a
// transition into afk qualifies, and the limiter caps alerts per salesman per
// cooldown so repeated polls do not fan out duplicates.
type AlertPolicy struct {
	limiter  Limiter
	cooldown time.Duration

	mu   sync.Mutex
	last map[string]Status
}

func NewAlertPolicy(limiter Limiter, cooldown time.Duration) *AlertPolicy {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	if limiter == nil {
		limiter = NewMemoryLimiter()
	}
	return &AlertPolicy{
		limiter:  limiter,
		cooldown: cooldown,
		last:     make(map[string]Status),
	}
}

func (p *AlertPolicy) ShouldAlert(ctx context.Context, salesmanID string, status Status) (bool, error) {
	p.mu.Lock()
	prev, seen := p.last[salesmanID]
	p.last[salesmanID] = status
	p.mu.Unlock()

	if status != StatusAFK {
		return false, nil
	}
	if seen && prev == StatusAFK {
		return false, nil
	}

	allowed, err := p.limiter.Allow(ctx, alertKey(salesmanID), p.cooldown)
	if err != nil {
		return false, errors.Wrapf(err, "check alert cooldown for %s", salesmanID)
	}
	return allowed, nil
}

// Release undoes a granted alert that could not be delivered: the remembered
// status and the cooldown slot are dropped so the next check alerts again.
func (p *AlertPolicy) Release(ctx context.Context, salesmanID string) error {
	p.mu.Lock()
	delete(p.last, salesmanID)
	p.mu.Unlock()

	if err := p.limiter.Reset(ctx, alertKey(salesmanID)); err != nil {
		return errors.Wrapf(err, "reset alert cooldown for %s", salesmanID)
	}
	return nil
}

func alertKey(salesmanID string) string {
	return "afk:" + salesmanID
}
