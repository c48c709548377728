package ports

import "context"

// HealthChecker is used to check dependency readiness.
type HealthChecker interface {
	Health(ctx context.Context) error
}
