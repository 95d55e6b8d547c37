package record

import (
	"time"

	"github.com/montanaflynn/stats"
)

// ProcessingStats accumulates counters during a single parse/validate
// pass. It is owned by one processing call and read-only afterward; the
// derived metrics are computed on demand from the counters.
type ProcessingStats struct {
	RowsProcessed    int `json:"rows_processed"`
	CellsProcessed   int `json:"cells_processed"`
	TabsProcessed    int `json:"tabs_processed"`
	FieldsProcessed  int `json:"fields_processed"`
	ValidationErrors int `json:"validation_errors"`
	ProcessingErrors int `json:"processing_errors"`
	Warnings         int `json:"warnings"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	tabDurationsMs []float64
}

// NewProcessingStats starts a stats pass at the current instant.
func NewProcessingStats() *ProcessingStats {
	return &ProcessingStats{StartTime: time.Now().UTC()}
}

// Finish stamps the end of the pass.
func (s *ProcessingStats) Finish() {
	s.EndTime = time.Now().UTC()
}

// RecordTabDuration adds one tab's extraction duration to the timing
// sample used by TimingSummary.
func (s *ProcessingStats) RecordTabDuration(d time.Duration) {
	s.tabDurationsMs = append(s.tabDurationsMs, float64(d.Nanoseconds())/1e6)
}

// Elapsed returns the wall-clock duration of the pass. If Finish has not
// been called yet the duration is measured up to now.
func (s *ProcessingStats) Elapsed() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(s.StartTime)
}

// CellsPerSecond returns the cell processing rate over the elapsed time.
func (s *ProcessingStats) CellsPerSecond() float64 {
	secs := s.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.CellsProcessed) / secs
}

// SuccessRatio is the fraction of processed fields that produced no
// validation error. 1.0 when nothing was processed.
func (s *ProcessingStats) SuccessRatio() float64 {
	if s.FieldsProcessed == 0 {
		return 1.0
	}
	failed := s.ValidationErrors
	if failed > s.FieldsProcessed {
		failed = s.FieldsProcessed
	}
	return float64(s.FieldsProcessed-failed) / float64(s.FieldsProcessed)
}

// TimingSummary returns mean/median/p95 per-tab extraction durations in
// milliseconds. Empty map when no tab durations were recorded.
func (s *ProcessingStats) TimingSummary() map[string]float64 {
	if len(s.tabDurationsMs) == 0 {
		return map[string]float64{}
	}
	mean, _ := stats.Mean(s.tabDurationsMs)
	median, _ := stats.Median(s.tabDurationsMs)
	p95, _ := stats.Percentile(s.tabDurationsMs, 95)
	return map[string]float64{
		"tab_ms_mean":   mean,
		"tab_ms_median": median,
		"tab_ms_p95":    p95,
	}
}

// ToDict projects counters and derived metrics into a serializable map.
func (s *ProcessingStats) ToDict() map[string]interface{} {
	d := map[string]interface{}{
		"rows_processed":    s.RowsProcessed,
		"cells_processed":   s.CellsProcessed,
		"tabs_processed":    s.TabsProcessed,
		"fields_processed":  s.FieldsProcessed,
		"validation_errors": s.ValidationErrors,
		"processing_errors": s.ProcessingErrors,
		"warnings":          s.Warnings,
		"start_time":        s.StartTime.Format(time.RFC3339),
		"elapsed_ms":        float64(s.Elapsed().Nanoseconds()) / 1e6,
		"cells_per_second":  s.CellsPerSecond(),
		"success_ratio":     s.SuccessRatio(),
	}
	if !s.EndTime.IsZero() {
		d["end_time"] = s.EndTime.Format(time.RFC3339)
	}
	for k, v := range s.TimingSummary() {
		d[k] = v
	}
	return d
}
