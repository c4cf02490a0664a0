// pkg/driver/types.go
package driver

import (
	"time"
)

// DriverInfo contains basic printer model information
type DriverInfo struct {
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	Protocol     string   `json:"protocol"`
	LineWidth    int      `json:"line_width"`
	Commands     []string `json:"commands"`
}

// HealthMetrics contains command-level health information
type HealthMetrics struct {
	HealthScore     int           `json:"health_score"` // 0-100
	ResponseTime    time.Duration `json:"response_time"`
	SuccessRate     float64       `json:"success_rate"` // 0.0-1.0
	ErrorCount      int64         `json:"error_count"`
	RejectionCount  int64         `json:"rejection_count"`
	TotalOperations int64         `json:"total_operations"`
	LastErrorTime   *time.Time    `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time    `json:"last_success_time,omitempty"`
}

// Record updates the metrics after one command.
// A rejection is a device answer that was not affirmative; a fault is a
// transport or decode failure.
func (h *HealthMetrics) Record(latency time.Duration, rejected bool, fault bool) {
	now := time.Now()
	h.TotalOperations++

	switch {
	case fault:
		h.ErrorCount++
		h.LastErrorTime = &now
	case rejected:
		h.RejectionCount++
		h.LastErrorTime = &now
	default:
		h.LastSuccessTime = &now
	}

	if h.ResponseTime == 0 {
		h.ResponseTime = latency
	} else {
		h.ResponseTime = (h.ResponseTime + latency) / 2
	}

	failures := h.ErrorCount + h.RejectionCount
	h.SuccessRate = float64(h.TotalOperations-failures) / float64(h.TotalOperations)
	h.HealthScore = h.calculateHealthScore()
}

func (h *HealthMetrics) calculateHealthScore() int {
	score := int(h.SuccessRate * 100)

	// Penalize slow exchanges
	if h.ResponseTime > 2*time.Second {
		score -= 20
	} else if h.ResponseTime > 500*time.Millisecond {
		score -= 5
	}

	if score < 0 {
		return 0
	}
	return score
}

// Snapshot returns a copy safe to hand out
func (h *HealthMetrics) Snapshot() *HealthMetrics {
	snapshot := *h
	return &snapshot
}
