package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/domain"
	"github.com/Shugur-Network/relaydex/internal/metrics"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the status of a specific component
type ComponentStatus struct {
	Name    string                 `json:"name"`
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status     HealthStatus           `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Components []*ComponentStatus     `json:"components"`
	Summary    map[string]interface{} `json:"summary"`
}

// HealthChecker performs comprehensive health checks
type HealthChecker struct {
	node    domain.NodeInterface
	logger  *zap.Logger
	version string
	now     func() time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(node domain.NodeInterface, logger *zap.Logger, version string) *HealthChecker {
	return &HealthChecker{
		node:    node,
		logger:  logger.Named("health"),
		version: version,
		now:     time.Now,
	}
}

// CheckHealth performs a comprehensive health check
func (h *HealthChecker) CheckHealth(ctx context.Context) *HealthResponse {
	startTime := h.now()

	components := []*ComponentStatus{
		h.checkDatabase(ctx),
		h.checkCache(),
	}
	if state := h.node.DiscoveryState(); state != "" {
		components = append(components, h.checkDiscovery(state))
	}
	components = append(components, h.checkMemory(), h.checkSystemResources())

	overallStatus := h.determineOverallStatus(components)

	return &HealthResponse{
		Status:     overallStatus,
		Timestamp:  h.now(),
		Version:    h.version,
		Uptime:     formatUptime(h.now().Sub(h.node.GetStartTime())),
		Components: components,
		Summary: map[string]interface{}{
			"total_components":     len(components),
			"healthy_components":   countComponentsByStatus(components, StatusHealthy),
			"degraded_components":  countComponentsByStatus(components, StatusDegraded),
			"unhealthy_components": countComponentsByStatus(components, StatusUnhealthy),
			"lookups_total":        metrics.GetLookupCount(),
			"lookups_per_second":   metrics.GetLookupsPerSecond(),
			"lookups_in_flight":    metrics.GetInFlight(),
			"check_duration_ms":    h.now().Sub(startTime).Milliseconds(),
		},
	}
}

// checkDatabase checks store connectivity and pool pressure
func (h *HealthChecker) checkDatabase(ctx context.Context) *ComponentStatus {
	status := &ComponentStatus{
		Name:    "database",
		Details: make(map[string]interface{}),
	}

	db := h.node.Database()
	if db == nil {
		status.Status = StatusUnhealthy
		status.Message = "Database not initialized"
		return status
	}

	if err := db.Ping(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Message = "Database connection failed"
		status.Details["error"] = err.Error()
		return status
	}

	stats := db.Stats()
	status.Details["open_connections"] = stats.OpenConnections
	status.Details["in_use"] = stats.InUse
	status.Details["idle"] = stats.Idle
	status.Details["max_open_connections"] = stats.MaxOpenConnections
	status.Details["errors"] = stats.Errors

	if total, seen, err := db.CountRelays(ctx); err == nil {
		status.Details["relays_total"] = total
		status.Details["relays_seen"] = seen
	}

	var utilization float64
	if stats.MaxOpenConnections > 0 {
		utilization = float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	}
	status.Details["connection_utilization_percent"] = utilization

	switch {
	case utilization > 95:
		status.Status = StatusUnhealthy
		status.Message = "Critical database connection utilization"
	case utilization > 90:
		status.Status = StatusDegraded
		status.Message = "High database connection utilization"
	default:
		status.Status = StatusHealthy
		status.Message = "Database is healthy"
	}

	return status
}

// checkCache reports the freshness cache fill and hit ratio
func (h *HealthChecker) checkCache() *ComponentStatus {
	stats := h.node.CacheStats()
	status := &ComponentStatus{
		Name:   "cache",
		Status: StatusHealthy,
		Details: map[string]interface{}{
			"entries":   stats.Entries,
			"capacity":  stats.Capacity,
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
		},
	}

	var hitRatio float64
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		hitRatio = float64(stats.Hits) / float64(lookups)
	}
	status.Details["hit_ratio"] = hitRatio
	status.Message = fmt.Sprintf("%d/%d entries", stats.Entries, stats.Capacity)
	return status
}

// checkDiscovery maps the consumer state to a health status
func (h *HealthChecker) checkDiscovery(state string) *ComponentStatus {
	status := &ComponentStatus{
		Name: "discovery",
		Details: map[string]interface{}{
			"state":           state,
			"events_received": metrics.GetEventCount(),
		},
	}
	if last := metrics.GetLastEventTime(); !last.IsZero() {
		status.Details["last_event"] = last.UTC().Format(time.RFC3339)
	}

	switch state {
	case "subscribed", "consuming":
		status.Status = StatusHealthy
		status.Message = "Discovery stream is active"
	case "connecting":
		status.Status = StatusDegraded
		status.Message = "Connecting to seed relays"
	default:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("Discovery stream is %s", state)
	}
	return status
}

// checkMemory checks memory usage
func (h *HealthChecker) checkMemory() *ComponentStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := &ComponentStatus{
		Name:    "memory",
		Details: make(map[string]interface{}),
	}

	// Convert to MB for readability
	allocMB := float64(m.Alloc) / 1024 / 1024
	status.Details["alloc_mb"] = allocMB
	status.Details["sys_mb"] = float64(m.Sys) / 1024 / 1024
	status.Details["heap_mb"] = float64(m.HeapAlloc) / 1024 / 1024
	status.Details["num_gc"] = m.NumGC

	const (
		memoryWarningMB  = 500
		memoryCriticalMB = 1000
	)

	switch {
	case allocMB > memoryCriticalMB:
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("High memory usage: %.1f MB", allocMB)
	case allocMB > memoryWarningMB:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("Elevated memory usage: %.1f MB", allocMB)
	default:
		status.Status = StatusHealthy
		status.Message = fmt.Sprintf("Memory usage normal: %.1f MB", allocMB)
	}

	return status
}

// checkSystemResources checks system-level resources
func (h *HealthChecker) checkSystemResources() *ComponentStatus {
	goroutineCount := runtime.NumGoroutine()
	status := &ComponentStatus{
		Name: "system",
		Details: map[string]interface{}{
			"goroutines": goroutineCount,
			"cpus":       runtime.NumCPU(),
		},
	}

	const (
		goroutineWarning  = 1000
		goroutineCritical = 5000
	)

	switch {
	case goroutineCount > goroutineCritical:
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("High goroutine count: %d", goroutineCount)
	case goroutineCount > goroutineWarning:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("Elevated goroutine count: %d", goroutineCount)
	default:
		status.Status = StatusHealthy
		status.Message = fmt.Sprintf("System resources normal: %d goroutines", goroutineCount)
	}

	return status
}

// determineOverallStatus determines the overall health status from components
func (h *HealthChecker) determineOverallStatus(components []*ComponentStatus) HealthStatus {
	if countComponentsByStatus(components, StatusUnhealthy) > 0 {
		return StatusUnhealthy
	}
	if countComponentsByStatus(components, StatusDegraded) > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func countComponentsByStatus(components []*ComponentStatus, status HealthStatus) int {
	count := 0
	for _, comp := range components {
		if comp.Status == status {
			count++
		}
	}
	return count
}

// formatUptime formats uptime duration as a human-readable string
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// HandleHealth is the HTTP handler for health checks. With ?ready=1 a degraded
// node reports 503 so it is kept out of rotation until discovery is active.
func (h *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.HealthCheckTimeout*time.Second)
	defer cancel()

	ready := r.URL.Query().Get("ready") == "1"
	healthResponse := h.CheckHealth(ctx)

	statusCode := http.StatusOK
	switch healthResponse.Status {
	case StatusUnhealthy:
		statusCode = http.StatusServiceUnavailable
	case StatusDegraded:
		if ready {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(healthResponse); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
		return
	}

	h.logger.Debug("Health check completed",
		zap.String("status", string(healthResponse.Status)),
		zap.Int("status_code", statusCode),
		zap.String("client_ip", r.RemoteAddr),
		zap.Int64("duration_ms", healthResponse.Summary["check_duration_ms"].(int64)))
}
