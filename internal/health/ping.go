package health

import "context"

// HealthPinger is implemented by dependencies the aggregate health rolls up
// (the record store, the browser bridge). HealthPing returns nil when the
// dependency is usable.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
