package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every check failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckEngine = "engine"
	CheckRedis  = "redis"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine Pinger
	redis  Pinger
	stores []StoreChecker
}

// New creates a Service. redis is nil when stores are file backed.
func New(engine Pinger, redis Pinger, stores ...StoreChecker) *Service {
	return &Service{engine: engine, redis: redis, stores: stores}
}

// Check runs health checks against all components. Stores are reported as
// "store:<name>".
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckEngine] = result(s.engine.Ping(ctx))
	if s.redis != nil {
		checks[CheckRedis] = result(s.redis.Ping(ctx))
	}
	for _, st := range s.stores {
		_, err := st.Keys(ctx)
		checks["store:"+st.Name()] = result(err)
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
