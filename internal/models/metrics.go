package models

import "time"

// SystemMetrics is a JSON friendly snapshot of process level counters.
type SystemMetrics struct {
	RequestsTotal            uint64           `json:"requestsTotal"`
	AverageRequestDurationMs float64          `json:"averageRequestDurationMs"`
	CacheHits                uint64           `json:"cacheHits"`
	CacheMisses              uint64           `json:"cacheMisses"`
	CacheHitRatio            float64          `json:"cacheHitRatio"`
	Registrations            map[string]int64 `json:"registrations"`
	Goroutines               int              `json:"goroutines"`
	GeneratedAt              time.Time        `json:"generatedAt"`
}
