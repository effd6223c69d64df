// Package report records benchmark results as rows of parameters and
// metrics and renders comparisons between runs.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Parameter names.
const (
	ParamType                 = "type"
	ParamLabel                = "label"
	ParamDataset              = "dataset"
	ParamAlgorithm            = "algorithm"
	ParamDistanceMetric       = "distance_metric"
	ParamTargetHits           = "target_hits"
	ParamExploreHits          = "explore_hits"
	ParamFilterPercent        = "filter_percent"
	ParamApproximateThreshold = "approximate_threshold"
	ParamSlack                = "slack"
	ParamClients              = "clients"
	ParamThreadsPerSearch     = "threads_per_search"
)

// Metric names.
const (
	MetricRecallAvg       = "recall.avg"
	MetricRecallMedian    = "recall.median"
	MetricRecallMin       = "recall.min"
	MetricRecallMax       = "recall.max"
	MetricRecallVsFloat   = "recall_vs_float"
	MetricAvgResponseTime = "avgresponsetime"
	MetricQueries         = "queries"
)

// Row is one reported result.
type Row struct {
	RunID      string             `json:"run_id"`
	Time       time.Time          `json:"time"`
	Parameters map[string]string  `json:"parameters"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Filler sets one parameter or metric of a row.
type Filler func(*Row)

// Param sets a parameter. Numbers are rendered in their shortest form.
func Param(name string, value any) Filler {
	return func(r *Row) {
		r.Parameters[name] = formatParam(value)
	}
}

// Metric sets a metric.
func Metric(name string, value float64) Filler {
	return func(r *Row) {
		r.Metrics[name] = value
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewRow builds a row stamped with the current time.
func NewRow(runID string, fillers ...Filler) Row {
	r := Row{
		RunID:      runID,
		Time:       time.Now().UTC(),
		Parameters: make(map[string]string, len(fillers)),
		Metrics:    make(map[string]float64),
	}
	for _, f := range fillers {
		f(&r)
	}
	return r
}

// Param returns a parameter value or "".
func (r Row) Param(name string) string {
	return r.Parameters[name]
}

// IntParam parses an integer parameter. A missing parameter yields def.
func (r Row) IntParam(name string, def int) (int, error) {
	s, ok := r.Parameters[name]
	if !ok || s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("report: parameter %s: %w", name, err)
	}
	return n, nil
}

// Metric returns a metric value.
func (r Row) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
