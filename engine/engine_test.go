package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/metrics"
	"github.com/hupe1980/annbench/recall"
)

func hitsJSON(ids ...int) string {
	children := make([]string, len(ids))
	for i, id := range ids {
		children[i] = fmt.Sprintf(`{"id":"id:test:test::%d","relevance":%d,"fields":{"id":%d}}`, id, len(ids)-i, id)
	}
	return fmt.Sprintf(`{"root":{"id":"toplevel","fields":{"totalCount":%d},"children":[%s]}}`, len(ids), strings.Join(children, ","))
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestFormatTensor(t *testing.T) {
	assert.Equal(t, "[]", FormatTensor(nil))
	assert.Equal(t, "[0.5,-1,3.25]", FormatTensor([]float32{0.5, -1, 3.25}))
	assert.Equal(t, "[0.1]", FormatTensor([]float32{0.1}))
}

func TestRequest_YQL(t *testing.T) {
	req := Request{DocTensor: "vec_rq_euclidean", QueryTensor: "q_rq", TargetHits: 10, ExploreHits: 90}
	assert.Equal(t,
		"select id from test where {targetHits:10,hnsw.exploreAdditionalHits:90,approximate:true}nearestNeighbor(vec_rq_euclidean,q_rq)",
		req.YQL("test"))

	req = Request{DocTensor: "vec_float", QueryTensor: "q_float", TargetHits: 100, Exact: true, FilterPercent: 10}
	assert.Equal(t,
		"select id from test where {targetHits:100,approximate:false}nearestNeighbor(vec_float,q_float) and filter=10",
		req.YQL("test"))
}

func TestRequest_Values(t *testing.T) {
	req := Request{
		DocTensor:            "d",
		QueryTensor:          "q",
		Vector:               []float32{1, 2},
		TargetHits:           10,
		Summary:              "minimal",
		Ranking:              "float-exact",
		ApproximateThreshold: 0.05,
		ExplorationSlack:     0.1,
	}
	v := req.Values("test")
	assert.Equal(t, "10", v.Get("hits"))
	assert.Equal(t, "[1,2]", v.Get("ranking.features.query(q)"))
	assert.Equal(t, "minimal", v.Get("summary"))
	assert.Equal(t, "float-exact", v.Get("ranking"))
	assert.Equal(t, "0.05", v.Get("ranking.matching.approximateThreshold"))
	assert.Equal(t, "0.1", v.Get("ranking.matching.explorationSlack"))

	req.Hits = 3
	req.ApproximateThreshold = 0
	v = req.Values("test")
	assert.Equal(t, "3", v.Get("hits"))
	assert.False(t, v.Has("ranking.matching.approximateThreshold"))
}

func TestRecallRequest_Values(t *testing.T) {
	req := RecallRequest{
		DocTensor:            "vec_rq_euclidean",
		QueryTensor:          "q_rq",
		Vector:               []float32{0.5},
		TargetHits:           10,
		ExploreHits:          0,
		FilterPercent:        1,
		ApproximateThreshold: 0.05,
	}
	v := req.Values("test")
	assert.Equal(t, "sddocname:test", v.Get("query"))
	assert.Equal(t, "minimal", v.Get("summary"))
	assert.Equal(t, "true", v.Get("nnr.enable"))
	assert.Equal(t, "vec_rq_euclidean", v.Get("nnr.docTensor"))
	assert.Equal(t, "10", v.Get("nnr.targetHits"))
	assert.Equal(t, "0", v.Get("nnr.exploreHits"))
	assert.Equal(t, "1", v.Get("nnr.filterPercent"))
	assert.Equal(t, "0.05", v.Get("nnr.approximateThreshold"))
	assert.Equal(t, "q_rq", v.Get("nnr.queryTensor"))
	assert.Equal(t, "[0.5]", v.Get("ranking.features.query(q_rq)"))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/search/", c.Endpoint())
	assert.Equal(t, DefaultDocumentType, c.DocumentType())

	c, err = NewClient("http://localhost:8080/custom/", WithDocumentType("doc"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/custom/", c.Endpoint())
	assert.Equal(t, "doc", c.DocumentType())

	_, err = NewClient("localhost:8080")
	require.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultPath, r.URL.Path)
		got = r.URL.Query()
		fmt.Fprint(w, hitsJSON(4, 2, 9))
	}, WithTimeout(5*time.Second))

	res, err := c.Search(context.Background(), Request{
		DocTensor: "d", QueryTensor: "q", Vector: []float32{1, 2, 3}, TargetHits: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 2, 9}, res.IDs())
	assert.Equal(t, 3, res.TotalCount)
	assert.Positive(t, res.Latency)

	assert.Equal(t, "[1,2,3]", got.Get("ranking.features.query(q)"))
	assert.Equal(t, "5", got.Get("timeout"))
	assert.Contains(t, got.Get("yql"), "nearestNeighbor(d,q)")
}

func TestClient_Search_InvalidRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, hitsJSON())
	})

	tests := []Request{
		{QueryTensor: "q", Vector: []float32{1}, TargetHits: 1},
		{DocTensor: "d", Vector: []float32{1}, TargetHits: 1},
		{DocTensor: "d", QueryTensor: "q", TargetHits: 1},
		{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}},
		{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1, ExploreHits: -1},
	}
	for _, req := range tests {
		_, err := c.Search(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Zero(t, calls.Load())
}

func TestClient_Search_EngineError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"root":{"errors":[{"code":4,"summary":"Invalid query parameter","message":"Could not parse query tensor"}]}}`)
	})

	_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
	var eqe *recall.EngineQueryError
	require.ErrorAs(t, err, &eqe)
	assert.Equal(t, "4: Could not parse query tensor", eqe.Message)
}

func TestClient_Search_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Equal(t, "overloaded", he.Body)
}

func TestClient_Search_MalformedHits(t *testing.T) {
	tests := map[string]string{
		"not json":   `<html>`,
		"missing id": `{"root":{"children":[{"fields":{}}]}}`,
		"negative":   `{"root":{"children":[{"fields":{"id":-1}}]}}`,
		"fraction":   `{"root":{"children":[{"fields":{"id":1.5}}]}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, body)
			})
			_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
			assert.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestClient_Search_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Search_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		fmt.Fprint(w, hitsJSON())
	}, WithTimeout(50*time.Millisecond))

	_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Metrics(t *testing.T) {
	var m metrics.BasicCollector
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ranking") == FloatExactRanking {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, hitsJSON(1))
	}, WithMetrics(&m), WithCodec(codec.JSON{}))

	_, err := c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), Request{DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 1, Ranking: FloatExactRanking})
	require.Error(t, err)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
}

func TestClient_SearcherRecall(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
		engine  bool
	}{
		{name: "recall", body: `{"root":{"children":[{"fields":{"recall":9}}]}}`, want: 9},
		{name: "error field", body: `{"root":{"children":[{"fields":{"error":"tensor type mismatch"}}]}}`, engine: true},
		{name: "no hits", body: `{"root":{"children":[]}}`, wantErr: ErrUnexpectedResponse},
		{name: "two hits", body: `{"root":{"children":[{"fields":{"recall":1}},{"fields":{"recall":2}}]}}`, wantErr: ErrUnexpectedResponse},
		{name: "fractional", body: `{"root":{"children":[{"fields":{"recall":1.5}}]}}`, wantErr: ErrUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("nnr.enable"))
				fmt.Fprint(w, tt.body)
			})
			got, err := c.SearcherRecall(context.Background(), RecallRequest{
				DocTensor: "d", QueryTensor: "q", Vector: []float32{1}, TargetHits: 10,
			})
			switch {
			case tt.engine:
				var eqe *recall.EngineQueryError
				require.ErrorAs(t, err, &eqe)
				assert.Equal(t, "tensor type mismatch", eqe.Message)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRecallEvaluator(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ranking") == FloatExactRanking {
			fmt.Fprint(w, hitsJSON(1, 2, 3, 4, 5))
			return
		}
		fmt.Fprint(w, hitsJSON(3, 4, 5, 6, 7))
	})

	approx, exact := CrossTemplates("vec_rq", "q_rq", "vec_float", "q_float", 5)
	eval := RecallEvaluator(c, approx, exact)

	queries := Queries([][]float32{{1, 2}, {3, 4}})
	samples, err := recall.Evaluate(context.Background(), queries, eval, recall.WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.Equal(t, 3, s.Recall)
	}

	res, err := recall.CrossEncoding(context.Background(), queries, eval, 5)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.Percent, 1e-9)
}

func TestSearcherRecallScorer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"root":{"children":[{"fields":{"recall":7}}]}}`)
	})

	score := SearcherRecallScorer(c, RecallRequest{DocTensor: "d", QueryTensor: "q", TargetHits: 10})
	samples, err := recall.EvaluateScores(context.Background(), Queries([][]float32{{1}, {2}, {3}}), score)
	require.NoError(t, err)
	stats, err := recall.Aggregate(samples)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, stats.Average, 1e-9)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "rq_euclidean-hnsw-th10-eh90-f0-n1-t0", Label(LabelParams{
		Metric: "rq_euclidean", Algorithm: HNSW, TargetHits: 10, ExploreHits: 90,
	}))
	assert.Equal(t, "rq_angular-hnsw-th100-eh0-f50-s1.0-n16-t4-norot", Label(LabelParams{
		Metric: "rq_angular", Algorithm: HNSW, TargetHits: 100, FilterPercent: 50,
		Slack: 1, Clients: 16, ThreadsPerSearch: 4, SkipRotation: true,
	}))
	assert.Equal(t, "rq_euclidean-hnsw-th10-eh0-f0-s0.05-n1-t0", Label(LabelParams{
		Metric: "rq_euclidean", Algorithm: HNSW, TargetHits: 10, Slack: 0.05,
	}))
	assert.Equal(t, "rq_euclidean-th10-eh90-f0", RecallLabel("rq_euclidean", 10, 90, 0))
	assert.Equal(t, "rq_angular-vs-float-th100", CrossLabel("rq_angular", 100))

	assert.Equal(t, TypeQueryThreads, QueryType(10, 2))
	assert.Equal(t, TypeQuery, QueryType(0, 0))
	assert.Equal(t, TypeQueryFilter, QueryType(10, 0))
}
