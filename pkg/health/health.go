// Package health provides Kubernetes-style liveness and readiness probe
// endpoints. Registered checks run periodically in the background; failure
// and success thresholds keep a flapping dependency from toggling the
// reported state on every tick.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one component, returning nil when healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// check holds configuration and last-known state for a single probe. State
// is guarded by the owning Service's mutex.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy bool
	lastErr error
	fails   int
	oks     int
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(probeCtx)
	c.lastErr = err
	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= defaultFailureThreshold {
			c.healthy = false
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= defaultSuccessThreshold {
		c.healthy = true
	}
}

// Service manages liveness and readiness checks.
type Service struct {
	mu        sync.Mutex
	ready     bool
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Service. It starts not-ready; call SetReady(true) once
// initialization has finished.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a probe for process liveness (goroutine count,
// deadlock detection, and the like).
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, &check{name: name, timeout: timeout, fn: fn, healthy: true})
}

// AddReadinessCheck registers a probe for a dependency the service cannot
// serve traffic without (the database, for instance).
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, &check{name: name, timeout: timeout, fn: fn, healthy: true})
}

// SetReady flips the top-level readiness gate, independent of check results.
func (s *Service) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Start launches the background loop running every check at the given
// interval until Stop is called or ctx is cancelled. Checks also run once
// immediately.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		s.runAll(runCtx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runAll(runCtx)
			}
		}
	}()
}

// Stop halts the background loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.mu.Lock()
	checks := make([]*check, 0, len(s.liveness)+len(s.readiness))
	checks = append(checks, s.liveness...)
	checks = append(checks, s.readiness...)
	s.mu.Unlock()

	for _, c := range checks {
		s.mu.Lock()
		c.run(ctx)
		s.mu.Unlock()
	}
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe: 200 while every liveness check is
// healthy, 503 otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	healthy, details := report(s.liveness)
	s.mu.Unlock()

	writeProbe(w, healthy, details)
}

// ReadyEndpoint serves the readiness probe: 200 only when the readiness gate
// is open and every readiness check is healthy.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	healthy, details := report(s.readiness)
	healthy = healthy && s.ready
	s.mu.Unlock()

	writeProbe(w, healthy, details)
}

func report(checks []*check) (bool, map[string]string) {
	healthy := true
	details := make(map[string]string, len(checks))
	for _, c := range checks {
		if c.healthy {
			details[c.name] = "ok"
			continue
		}
		healthy = false
		if c.lastErr != nil {
			details[c.name] = c.lastErr.Error()
		} else {
			details[c.name] = "unhealthy"
		}
	}
	return healthy, details
}

func writeProbe(w http.ResponseWriter, healthy bool, details map[string]string) {
	status := http.StatusOK
	body := probeResponse{Status: "ok", Checks: details}
	if !healthy {
		status = http.StatusServiceUnavailable
		body.Status = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
