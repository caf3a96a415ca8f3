package health

import (
	"context"
	"sort"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Probe is a named component check.
type Probe struct {
	Name  string
	Check Checker
}

// Service coordinates health checks.
type Service struct {
	probes  []Probe
	timeout time.Duration
}

// New creates a Service with the store probe named "database" followed by
// any extra probes. A zero timeout leaves probes bounded only by ctx.
func New(db Pinger, timeout time.Duration, extra ...Probe) *Service {
	probes := make([]Probe, 0, len(extra)+1)
	probes = append(probes, Probe{Name: "database", Check: CheckerFunc(db.Ping)})
	for _, p := range extra {
		if p.Check != nil {
			probes = append(probes, p)
		}
	}
	return &Service{probes: probes, timeout: timeout}
}

// Names lists the configured probes in order.
func (s *Service) Names() []string {
	names := make([]string, len(s.probes))
	for i, p := range s.probes {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Check runs every probe.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	status := Healthy

	for _, p := range s.probes {
		if s.run(ctx, p) != nil {
			checks[p.Name] = CheckError
			status = Degraded
			continue
		}
		checks[p.Name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, p Probe) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Check.HealthCheck(ctx)
}
