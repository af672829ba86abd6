package subcache

import (
	"github.com/LavishGent/subtitlecache/internal/types"
)

// Re-export health types from internal/types.
type (
	HealthStatus            = types.HealthStatus
	HealthMetrics           = types.HealthMetrics
	VolatileHealthMetrics   = types.VolatileHealthMetrics
	PersistentHealthMetrics = types.PersistentHealthMetrics
	RemoteHealthMetrics     = types.RemoteHealthMetrics
	MetricsSnapshot         = types.MetricsSnapshot
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)
