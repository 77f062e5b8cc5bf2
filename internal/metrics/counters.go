package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// SlidingWindow represents a simple sliding window for rate calculations
type SlidingWindow struct {
	mu      sync.RWMutex
	events  []int64 // unix timestamps
	window  time.Duration
	maxSize int
}

// NewSlidingWindow creates a new sliding window
func NewSlidingWindow(window time.Duration, maxSize int) *SlidingWindow {
	return &SlidingWindow{
		events:  make([]int64, 0, maxSize),
		window:  window,
		maxSize: maxSize,
	}
}

// Add adds an event timestamp to the window
func (sw *SlidingWindow) Add(timestamp int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.events = append(sw.events, timestamp)

	cutoff := timestamp - int64(sw.window.Seconds())
	i := 0
	for i < len(sw.events) && sw.events[i] < cutoff {
		i++
	}
	if i > 0 {
		sw.events = sw.events[i:]
	}

	if len(sw.events) > sw.maxSize {
		sw.events = sw.events[len(sw.events)-sw.maxSize:]
	}
}

// Rate returns events per second observed within the window ending at now.
func (sw *SlidingWindow) Rate(now int64) float64 {
	sw.mu.RLock()
	defer sw.mu.RUnlock()

	cutoff := now - int64(sw.window.Seconds())
	count := 0
	for _, ts := range sw.events {
		if ts >= cutoff {
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(count) / sw.window.Seconds()
}

var lookupWindow = NewSlidingWindow(60*time.Second, 10000)

// Local counters for the health report (prometheus metrics can't be read back directly)
var (
	lookupCount     int64
	errorCount      int64
	eventCount      int64
	lastEventUnix   int64
	inFlightLookups int64
)

// RecordLookup counts one registry lookup resolved through path.
func RecordLookup(path string, took time.Duration) {
	Lookups.WithLabelValues(path).Inc()
	LookupDuration.Observe(took.Seconds())
	atomic.AddInt64(&lookupCount, 1)
	lookupWindow.Add(time.Now().Unix())
}

// GetLookupCount returns the number of lookups since start
func GetLookupCount() int64 {
	return atomic.LoadInt64(&lookupCount)
}

// GetLookupsPerSecond calculates lookups per second over the last minute
func GetLookupsPerSecond() float64 {
	return lookupWindow.Rate(time.Now().Unix())
}

// RecordEvent counts one discovery event of the given kind.
func RecordEvent(kind string) {
	EventsReceived.WithLabelValues(kind).Inc()
	atomic.AddInt64(&eventCount, 1)
	atomic.StoreInt64(&lastEventUnix, time.Now().Unix())
}

// GetEventCount returns the number of discovery events since start
func GetEventCount() int64 {
	return atomic.LoadInt64(&eventCount)
}

// GetLastEventTime returns when the last discovery event arrived, zero if none yet.
func GetLastEventTime() time.Time {
	ts := atomic.LoadInt64(&lastEventUnix)
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// IncrementErrorCount records an error of the given type
func IncrementErrorCount(errType string) {
	ErrorsCount.WithLabelValues(errType).Inc()
	atomic.AddInt64(&errorCount, 1)
}

// GetErrorCount returns the current error count
func GetErrorCount() int64 {
	return atomic.LoadInt64(&errorCount)
}

// IncrementInFlight marks one more lookup dispatched.
func IncrementInFlight() {
	LookupsInFlight.Inc()
	atomic.AddInt64(&inFlightLookups, 1)
}

// DecrementInFlight marks one dispatched lookup finished.
func DecrementInFlight() {
	LookupsInFlight.Dec()
	atomic.AddInt64(&inFlightLookups, -1)
}

// GetInFlight returns the lookups currently dispatched.
func GetInFlight() int64 {
	return atomic.LoadInt64(&inFlightLookups)
}
