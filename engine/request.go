package engine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultApproximateThreshold is the ranking.matching.approximateThreshold
// used by the benchmark queries.
const DefaultApproximateThreshold = 0.05

// Request is one nearestNeighbor query.
type Request struct {
	// DocTensor is the document tensor field searched.
	DocTensor string
	// QueryTensor is the name of the query tensor feature.
	QueryTensor string
	Vector      []float32

	TargetHits  int
	ExploreHits int
	// Exact forces a brute-force search (approximate:false).
	Exact bool
	// Hits defaults to TargetHits.
	Hits    int
	Ranking string
	// Summary selects the document summary, e.g. "minimal".
	Summary string

	ApproximateThreshold float64
	ExplorationSlack     float64
	// FilterPercent adds a "filter=N" term when positive.
	FilterPercent int
}

// WithVector returns a copy of r querying v.
func (r Request) WithVector(v []float32) Request {
	r.Vector = v
	return r
}

func (r Request) validate() error {
	switch {
	case r.DocTensor == "":
		return fmt.Errorf("%w: missing document tensor", ErrInvalidRequest)
	case r.QueryTensor == "":
		return fmt.Errorf("%w: missing query tensor", ErrInvalidRequest)
	case len(r.Vector) == 0:
		return fmt.Errorf("%w: empty query vector", ErrInvalidRequest)
	case r.TargetHits <= 0:
		return fmt.Errorf("%w: target hits must be positive", ErrInvalidRequest)
	case r.ExploreHits < 0:
		return fmt.Errorf("%w: explore hits must not be negative", ErrInvalidRequest)
	}
	return nil
}

// YQL renders the select statement for docType.
func (r Request) YQL(docType string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "select id from %s where {targetHits:%d", docType, r.TargetHits)
	if r.ExploreHits > 0 {
		fmt.Fprintf(&sb, ",hnsw.exploreAdditionalHits:%d", r.ExploreHits)
	}
	fmt.Fprintf(&sb, ",approximate:%t}nearestNeighbor(%s,%s)", !r.Exact, r.DocTensor, r.QueryTensor)
	if r.FilterPercent > 0 {
		fmt.Fprintf(&sb, " and filter=%d", r.FilterPercent)
	}
	return sb.String()
}

// Values renders the full query string parameters.
func (r Request) Values(docType string) url.Values {
	hits := r.Hits
	if hits <= 0 {
		hits = r.TargetHits
	}

	v := url.Values{}
	v.Set("yql", r.YQL(docType))
	v.Set("hits", strconv.Itoa(hits))
	v.Set(queryFeature(r.QueryTensor), FormatTensor(r.Vector))
	if r.Summary != "" {
		v.Set("summary", r.Summary)
	}
	if r.Ranking != "" {
		v.Set("ranking", r.Ranking)
	}
	if r.ApproximateThreshold > 0 {
		v.Set("ranking.matching.approximateThreshold", formatFloat(r.ApproximateThreshold))
	}
	if r.ExplorationSlack > 0 {
		v.Set("ranking.matching.explorationSlack", formatFloat(r.ExplorationSlack))
	}
	return v
}

// RecallRequest asks the searcher to compute the recall of one query itself
// by running the approximate search and its exact counterpart.
type RecallRequest struct {
	DocTensor            string
	QueryTensor          string
	Vector               []float32
	TargetHits           int
	ExploreHits          int
	FilterPercent        int
	ApproximateThreshold float64
}

// WithVector returns a copy of r querying v.
func (r RecallRequest) WithVector(v []float32) RecallRequest {
	r.Vector = v
	return r
}

func (r RecallRequest) validate() error {
	return Request{
		DocTensor:   r.DocTensor,
		QueryTensor: r.QueryTensor,
		Vector:      r.Vector,
		TargetHits:  r.TargetHits,
		ExploreHits: r.ExploreHits,
	}.validate()
}

// Values renders the query string parameters.
func (r RecallRequest) Values(docType string) url.Values {
	v := url.Values{}
	v.Set("query", "sddocname:"+docType)
	v.Set("summary", "minimal")
	v.Set(queryFeature(r.QueryTensor), FormatTensor(r.Vector))
	v.Set("nnr.enable", "true")
	v.Set("nnr.docTensor", r.DocTensor)
	v.Set("nnr.targetHits", strconv.Itoa(r.TargetHits))
	v.Set("nnr.exploreHits", strconv.Itoa(r.ExploreHits))
	v.Set("nnr.filterPercent", strconv.Itoa(r.FilterPercent))
	v.Set("nnr.approximateThreshold", formatFloat(r.ApproximateThreshold))
	v.Set("nnr.queryTensor", r.QueryTensor)
	return v
}

func queryFeature(name string) string {
	return "ranking.features.query(" + name + ")"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
