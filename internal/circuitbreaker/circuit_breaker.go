// Package circuitbreaker guards calls to flaky external providers. After a
// run of consecutive failures the breaker opens and rejects calls outright,
// then probes the provider again once a cooldown has passed.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wallet-watchdog/internal/logging"
)

// State is the breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned when the breaker rejects a call without executing it
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a breaker
type Config struct {
	Name        string
	MaxFailures int           // consecutive failures before opening
	Cooldown    time.Duration // time open before allowing a probe
}

// DefaultConfig suits a payment provider: trip fast, probe after 30s
func DefaultConfig(name string) *Config {
	return &Config{
		Name:        name,
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// Breaker tracks consecutive failures against a single provider
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeActive bool
}

// New creates a breaker in the closed state
func New(config *Config) *Breaker {
	return &Breaker{
		name:        config.Name,
		maxFailures: config.MaxFailures,
		cooldown:    config.Cooldown,
		state:       StateClosed,
	}
}

// Execute runs fn unless the breaker is open. In the half-open state only a
// single probe call is admitted at a time.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err == nil)
	return err
}

// CurrentState reports the breaker state, transitioning open breakers to
// half-open when the cooldown has elapsed.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()

	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probeActive {
			return ErrOpen
		}
		b.probeActive = true
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeActive = false

	if success {
		if b.state != StateClosed {
			logging.GetGlobalLogger().WithField("breaker", b.name).Info("Circuit breaker closed, provider recovered")
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = time.Now()
		logging.GetGlobalLogger().WithFields(map[string]interface{}{
			"breaker":  b.name,
			"failures": b.failures,
			"cooldown": b.cooldown.String(),
		}).Error("Circuit breaker opened")
	}
}

// refresh moves an open breaker to half-open once the cooldown passes.
// Caller must hold the lock.
func (b *Breaker) refresh() {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
		b.probeActive = false
	}
}
