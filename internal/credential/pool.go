// Package credential owns the shared, exhaustible API quota. Workers only
// acquire credentials and report observed quota state, raw counters are
// never handed out for direct mutation.

package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/log"
)

// fallbackResetDelay is used when an exhausted response carried no usable
// reset timestamp.
const fallbackResetDelay = time.Minute

// Credential is one API token with its last observed quota state. Remaining
// and ResetAt reflect server-side truth at the time of the last report.
type Credential struct {
	Name      string
	Token     string
	Quota     int
	Remaining int
	ResetAt   time.Time
	Active    bool
}

// Pool tracks every configured credential and hands out the one with the
// most headroom. All state is guarded by a single mutex, callers block in
// Acquire when everything is exhausted.
type Pool struct {
	Logger log.Logger
	Config *cfg.Config

	mu    sync.Mutex
	creds []*Credential
}

// NewPool builds a pool from the configured token list. With no tokens it
// degrades to a single implicit unauthenticated credential with the much
// lower anonymous quota, which is a usable mode, not an error.
func NewPool(logger log.Logger, config *cfg.Config) (*Pool, error) {
	p := &Pool{
		Logger: logger,
		Config: config,
	}

	for i, token := range config.GithubApi.Tokens {
		p.creds = append(p.creds, &Credential{
			Name:      fmt.Sprintf("token-%d", i+1),
			Token:     token,
			Quota:     config.GithubApi.AuthenticatedQuota,
			Remaining: config.GithubApi.AuthenticatedQuota,
			Active:    true,
		})
	}
	if len(p.creds) == 0 {
		p.creds = append(p.creds, &Credential{
			Name:      "anonymous",
			Quota:     config.GithubApi.UnauthenticatedQuota,
			Remaining: config.GithubApi.UnauthenticatedQuota,
			Active:    true,
		})
	}

	return p, nil
}

// Acquire returns the active credential with the greatest remaining quota.
// When every credential is exhausted it sleeps until the earliest reset
// timestamp, reactivates whatever has reset, and tries again. Returns only
// on success or context cancellation.
func (p *Pool) Acquire(ctx context.Context) (*Credential, error) {
	for {
		p.mu.Lock()
		p.reactivateExpired(time.Now())

		var best *Credential
		for _, cred := range p.creds {
			if !cred.Active {
				continue
			}
			if best == nil || cred.Remaining > best.Remaining {
				best = cred
			}
		}
		if best != nil {
			p.mu.Unlock()
			return best, nil
		}

		earliest := p.earliestResetLocked()
		p.mu.Unlock()

		wait := time.Until(earliest)
		if wait < 0 {
			wait = 0
		}
		p.Logger.Warn(ctx, "All credentials exhausted, waiting %v for quota reset", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Report records the quota state observed on a completed call. Last
// observed wins per credential, headers reflect server-side truth.
func (p *Pool) Report(cred *Credential, remaining int, resetAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if remaining >= 0 {
		cred.Remaining = remaining
		cred.Active = remaining > 0
	}
	if !resetAt.IsZero() {
		cred.ResetAt = resetAt
	}
	if !cred.Active && cred.ResetAt.IsZero() {
		cred.ResetAt = time.Now().Add(fallbackResetDelay)
	}
}

// Exhaust deactivates a credential until resetAt after a quota-exhausted
// response.
func (p *Pool) Exhaust(cred *Credential, resetAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cred.Remaining = 0
	cred.Active = false
	if resetAt.IsZero() {
		resetAt = time.Now().Add(fallbackResetDelay)
	}
	cred.ResetAt = resetAt
}

// Remaining reports the summed remaining quota over all active credentials.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, cred := range p.creds {
		if cred.Active {
			total += cred.Remaining
		}
	}
	return total
}

// Size reports the number of credentials in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// reactivateExpired restores full quota to credentials whose reset time has
// passed. Caller holds the lock.
func (p *Pool) reactivateExpired(now time.Time) {
	for _, cred := range p.creds {
		if !cred.Active && !cred.ResetAt.After(now) {
			cred.Active = true
			cred.Remaining = cred.Quota
		}
	}
}

// earliestResetLocked returns the soonest reset among all credentials.
// Caller holds the lock.
func (p *Pool) earliestResetLocked() time.Time {
	var earliest time.Time
	for _, cred := range p.creds {
		if earliest.IsZero() || cred.ResetAt.Before(earliest) {
			earliest = cred.ResetAt
		}
	}
	if earliest.IsZero() {
		earliest = time.Now().Add(fallbackResetDelay)
	}
	return earliest
}
