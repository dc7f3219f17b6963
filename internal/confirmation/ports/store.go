package ports

import "context"

// Scope addresses one partition of one user session.
type Scope struct {
	SessionID string
	Partition string
}

// SessionStore persists per-session key/value entries across requests.
// Missing keys are never errors: Get and Take report found=false, Clear and
// ClearAll are no-ops.
type SessionStore interface {
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, scope Scope, key string, value []byte) error
	Get(ctx context.Context, scope Scope, key string) ([]byte, bool, error)
	Clear(ctx context.Context, scope Scope, key string) error
	ClearAll(ctx context.Context, scope Scope) error
	// Take reads and removes the entry in one atomic step. At most one caller
	// observes found=true for a given Set.
	Take(ctx context.Context, scope Scope, key string) ([]byte, bool, error)
}

// HealthChecker is implemented by stores backed by an external service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
