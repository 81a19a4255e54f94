package handler

import (
	"sync/atomic"
	"time"
)

// processing counters
var (
	totalCommands        int64
	totalInteractions    int64
	totalStaged          int64
	totalPublished       int64
	totalRejected        int64
	totalErrors          int64
	totalAuthFailures    int64
	totalReplaysRejected int64
	startTime            = time.Now()
)

// incrementCounter safely increases a counter
func incrementCounter(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// GetProcessingStats returns processing statistics for the health endpoint
func GetProcessingStats() map[string]interface{} {
	uptime := time.Since(startTime)

	return map[string]interface{}{
		"uptime_seconds":         int64(uptime.Seconds()),
		"total_commands":         atomic.LoadInt64(&totalCommands),
		"total_interactions":     atomic.LoadInt64(&totalInteractions),
		"confessions_staged":     atomic.LoadInt64(&totalStaged),
		"confessions_published":  atomic.LoadInt64(&totalPublished),
		"confessions_rejected":   atomic.LoadInt64(&totalRejected),
		"total_errors":           atomic.LoadInt64(&totalErrors),
		"auth_failures":          atomic.LoadInt64(&totalAuthFailures),
		"replays_rejected":       atomic.LoadInt64(&totalReplaysRejected),
	}
}
