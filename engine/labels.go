package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Algorithms.
const (
	HNSW       = "hnsw"
	BruteForce = "bruteforce"
)

// Result row types.
const (
	TypeQuery        = "rq_query"
	TypeQueryFilter  = "rq_query_filter"
	TypeQueryThreads = "rq_query_threads"
	TypeFloatQuery   = "float_query"
	TypeRecall       = "rq_recall"
	TypeCrossRecall  = "rq_vs_float_recall"
)

// LabelParams names one benchmark configuration.
type LabelParams struct {
	Metric           string
	Algorithm        string
	TargetHits       int
	ExploreHits      int
	FilterPercent    int
	Slack            float64
	Clients          int
	ThreadsPerSearch int
	SkipRotation     bool
}

// Label renders the query benchmark label, e.g.
// rq_euclidean-hnsw-th10-eh90-f0-n1-t0.
func Label(p LabelParams) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s-%s-th%d-eh%d-f%d", p.Metric, p.Algorithm, p.TargetHits, p.ExploreHits, p.FilterPercent)
	if p.Slack != 0 {
		sb.WriteString("-s")
		sb.WriteString(formatSlack(p.Slack))
	}
	clients := p.Clients
	if clients <= 0 {
		clients = 1
	}
	fmt.Fprintf(&sb, "-n%d-t%d", clients, p.ThreadsPerSearch)
	if p.SkipRotation {
		sb.WriteString("-norot")
	}
	return sb.String()
}

// RecallLabel renders the label of a recall row.
func RecallLabel(metric string, targetHits, exploreHits, filterPercent int) string {
	return fmt.Sprintf("%s-th%d-eh%d-f%d", metric, targetHits, exploreHits, filterPercent)
}

// CrossLabel renders the label of a cross-encoding recall row.
func CrossLabel(metric string, targetHits int) string {
	return fmt.Sprintf("%s-vs-float-th%d", metric, targetHits)
}

// QueryType classifies a query benchmark row.
func QueryType(filterPercent, threadsPerSearch int) string {
	switch {
	case threadsPerSearch > 0:
		return TypeQueryThreads
	case filterPercent == 0:
		return TypeQuery
	default:
		return TypeQueryFilter
	}
}

// formatSlack always keeps a fractional part: 1 renders as "1.0".
func formatSlack(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
