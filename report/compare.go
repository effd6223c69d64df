package report

import (
	"fmt"
	"strings"

	"github.com/tidwall/btree"
)

var (
	latencyTypes = map[string]bool{"query": true, "rq_query": true, "float_query": true}
	recallTypes  = map[string]bool{"recall": true, "rq_recall": true}
)

type compareKey struct {
	targetHits  int
	exploreHits int
}

type compareEntry struct {
	compareKey
	latency [2]*float64
	recall  [2]*float64
}

func compareLess(a, b compareEntry) bool {
	if a.targetHits != b.targetHits {
		return a.targetHits < b.targetHits
	}
	return a.exploreHits < b.exploreHits
}

// Compare renders a markdown table comparing a quantized run with a float
// run. Rows are joined on (target_hits, explore_hits). Latency comes from
// HNSW query rows (avgresponsetime, in ms) and recall from recall rows
// (recall.avg). A configuration is listed only when both runs have a
// non-zero latency for it; target_hits 0 is never listed.
func Compare(quantized, float []Row) string {
	tree := btree.NewBTreeG[compareEntry](compareLess)
	collect(tree, quantized, 0)
	collect(tree, float, 1)

	out := []string{"# Comparison: RQ vs. Float32\n"}
	current := -1
	tree.Scan(func(e compareEntry) bool {
		if e.targetHits == 0 {
			return true
		}
		if e.targetHits != current {
			if current != -1 {
				out = append(out, "\n")
			}
			current = e.targetHits
			out = append(out,
				fmt.Sprintf("## Target Hits: %d\n", e.targetHits),
				"| EH | RQ Latency | RQ Recall | Float32 Latency | Float32 Recall | Latency Gap |",
				"| :--- | :--- | :--- | :--- | :--- | :--- |",
			)
		}
		rq, fl := e.latency[0], e.latency[1]
		if rq == nil || fl == nil || *rq == 0 || *fl == 0 {
			return true
		}
		out = append(out, fmt.Sprintf("| %d | %.2f ms | %s | %.2f ms | %s | %+.2f ms |",
			e.exploreHits, *rq, formatRecall(e.recall[0]), *fl, formatRecall(e.recall[1]), *rq-*fl))
		return true
	})
	if current != -1 {
		out = append(out, "\n")
	}
	return strings.Join(out, "\n")
}

func collect(tree *btree.BTreeG[compareEntry], rows []Row, side int) {
	for _, r := range rows {
		typ := r.Param(ParamType)
		isLatency := latencyTypes[typ] && r.Param(ParamAlgorithm) == "hnsw"
		isRecall := recallTypes[typ]
		if !isLatency && !isRecall {
			continue
		}

		th, err := r.IntParam(ParamTargetHits, 0)
		if err != nil {
			continue
		}
		eh, err := r.IntParam(ParamExploreHits, 0)
		if err != nil {
			continue
		}

		e, _ := tree.Get(compareEntry{compareKey: compareKey{th, eh}})
		e.compareKey = compareKey{th, eh}
		if isLatency {
			v, _ := r.Metric(MetricAvgResponseTime)
			e.latency[side] = &v
		} else {
			v, _ := r.Metric(MetricRecallAvg)
			e.recall[side] = &v
		}
		tree.Set(e)
	}
}

func formatRecall(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}
