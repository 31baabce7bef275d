package pack

import (
	"sync"
	"time"
)

// Result describes one asset pack attempt.
type Result struct {
	Asset string `json:"asset" yaml:"asset"`
	// Path is the output file; empty for streamed packs.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Packed is false when the asset was up to date or the attempt failed.
	Packed   bool          `json:"packed" yaml:"packed"`
	Inputs   []string      `json:"inputs" yaml:"inputs"`
	Missing  []error       `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
}

// UpToDate reports whether the asset was skipped because nothing changed.
func (r Result) UpToDate() bool {
	return !r.Packed && r.Err == nil
}

// Metrics tracks pack performance
type Metrics struct {
	TotalPacks      int64         `json:"total_packs"`
	Packed          int64         `json:"packed"`
	UpToDate        int64         `json:"up_to_date"`
	Failed          int64         `json:"failed"`
	MissingInputs   int64         `json:"missing_inputs"`
	AverageDuration time.Duration `json:"average_duration"`
	TotalDuration   time.Duration `json:"total_duration"`
	mutex           sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record records a pack result in the metrics
func (m *Metrics) Record(result Result) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalPacks++
	m.TotalDuration += result.Duration
	m.MissingInputs += int64(len(result.Missing))

	switch {
	case result.Err != nil:
		m.Failed++
	case result.Packed:
		m.Packed++
	default:
		m.UpToDate++
	}

	if m.TotalPacks > 0 {
		m.AverageDuration = m.TotalDuration / time.Duration(m.TotalPacks)
	}
}

// Snapshot returns a copy of the current metrics
func (m *Metrics) Snapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Metrics{
		TotalPacks:      m.TotalPacks,
		Packed:          m.Packed,
		UpToDate:        m.UpToDate,
		Failed:          m.Failed,
		MissingInputs:   m.MissingInputs,
		AverageDuration: m.AverageDuration,
		TotalDuration:   m.TotalDuration,
	}
}

// SuccessRate returns the share of attempts that did not fail, as a percentage
func (m *Metrics) SuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalPacks == 0 {
		return 0.0
	}

	return float64(m.TotalPacks-m.Failed) / float64(m.TotalPacks) * 100.0
}
