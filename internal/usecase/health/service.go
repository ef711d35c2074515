package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store answers but an index is missing.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates an index that has not been created.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	prober  IndexProber
	indexes []string
}

// New creates a Service that pings db and probes each named index.
func New(db DBPinger, prober IndexProber, indexes ...string) *Service {
	return &Service{db: db, prober: prober, indexes: indexes}
}

// Check runs health checks against all components.
// Index probes are skipped when the database does not answer.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.indexes)+1)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	status := Healthy
	for _, name := range s.indexes {
		exists, err := s.prober.IndexExists(ctx, name)
		switch {
		case err != nil:
			checks["index:"+name] = CheckError
			status = Degraded
		case !exists:
			checks["index:"+name] = CheckMissing
			status = Degraded
		default:
			checks["index:"+name] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
