package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/codec"
)

func TestNewRow(t *testing.T) {
	id := NewRunID()
	require.Len(t, id, 36)

	r := NewRow(id,
		Param(ParamType, "rq_recall"),
		Param(ParamTargetHits, 10),
		Param(ParamApproximateThreshold, 0.05),
		Param(ParamSlack, float32(0.5)),
		Param("enabled", true),
		Metric(MetricRecallAvg, 97.5),
	)
	assert.Equal(t, id, r.RunID)
	assert.Equal(t, "rq_recall", r.Param(ParamType))
	assert.Equal(t, "10", r.Param(ParamTargetHits))
	assert.Equal(t, "0.05", r.Param(ParamApproximateThreshold))
	assert.Equal(t, "0.5", r.Param(ParamSlack))
	assert.Equal(t, "true", r.Param("enabled"))
	assert.False(t, r.Time.IsZero())

	v, ok := r.Metric(MetricRecallAvg)
	assert.True(t, ok)
	assert.Equal(t, 97.5, v)
	_, ok = r.Metric(MetricRecallMedian)
	assert.False(t, ok)

	n, err := r.IntParam(ParamTargetHits, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	n, err = r.IntParam(ParamExploreHits, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	_, err = r.IntParam(ParamApproximateThreshold, 0)
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	var s MemorySink
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Write(context.Background(), NewRow("run", Param(ParamTargetHits, i))))
		}()
	}
	wg.Wait()
	assert.Len(t, s.Rows(), 20)
	assert.NoError(t, s.Close())
}

func TestJSONLSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		s, err := NewJSONLSink(path, c)
		require.NoError(t, err)
		require.NoError(t, s.Write(context.Background(), NewRow("a", Param(ParamLabel, c.Name()), Metric(MetricRecallAvg, 90))))
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.ErrorIs(t, s.Write(context.Background(), NewRow("a")), os.ErrClosed)
	}

	rows, err := ReadJSONLFile(path, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "json", rows[0].Param(ParamLabel))
	assert.Equal(t, "go-json", rows[1].Param(ParamLabel))
	v, _ := rows[1].Metric(MetricRecallAvg)
	assert.Equal(t, 90.0, v)
}

func TestReadJSONL(t *testing.T) {
	rows, err := ReadJSONL(strings.NewReader("\n{\"run_id\":\"x\",\"parameters\":{\"type\":\"recall\"}}\n\n"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "recall", rows[0].Param(ParamType))

	_, err = ReadJSONL(strings.NewReader("{}\nnot json\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadJSONLFile(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	assert.Error(t, err)
}

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, Row) error { return f.err }
func (f failingSink) Close() error                     { return f.err }

func TestMulti(t *testing.T) {
	var a, b MemorySink
	boom := errors.New("boom")
	m := Multi(&a, failingSink{boom}, &b)

	err := m.Write(context.Background(), NewRow("r"))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.Rows(), 1)
	assert.Len(t, b.Rows(), 1)
	assert.ErrorIs(t, m.Close(), boom)

	assert.NoError(t, Discard.Write(context.Background(), NewRow("r")))
}

type mockDDB struct {
	mu    sync.Mutex
	items []*dynamodb.PutItemInput
	err   error
}

func (m *mockDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, params)
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoDBSink(t *testing.T) {
	client := &mockDDB{}
	s := NewDynamoDBSink(client, "annbench-results")

	row := NewRow("run-1",
		Param(ParamType, "rq_vs_float_recall"),
		Param(ParamLabel, "rq_euclidean-vs-float-th10"),
		Metric(MetricRecallVsFloat, 93.25),
	)
	require.NoError(t, s.Write(context.Background(), row))
	require.NoError(t, s.Close())
	require.Len(t, client.items, 1)

	in := client.items[0]
	assert.Equal(t, "annbench-results", *in.TableName)
	assert.Equal(t, "run-1", in.Item["run_id"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "rq_euclidean-vs-float-th10", in.Item["label"].(*types.AttributeValueMemberS).Value)
	assert.Len(t, in.Item["row_id"].(*types.AttributeValueMemberS).Value, 36)

	params := in.Item["parameters"].(*types.AttributeValueMemberM).Value
	assert.Equal(t, "rq_vs_float_recall", params[ParamType].(*types.AttributeValueMemberS).Value)
	metrics := in.Item["metrics"].(*types.AttributeValueMemberM).Value
	assert.Equal(t, "93.25", metrics[MetricRecallVsFloat].(*types.AttributeValueMemberN).Value)

	client.err = errors.New("throttled")
	assert.ErrorIs(t, s.Write(context.Background(), row), client.err)
}

func queryRow(typ, algorithm string, th, eh int, ms float64) Row {
	return NewRow("r",
		Param(ParamType, typ),
		Param(ParamAlgorithm, algorithm),
		Param(ParamTargetHits, th),
		Param(ParamExploreHits, eh),
		Metric(MetricAvgResponseTime, ms),
	)
}

func recallRow(typ string, th, eh int, pct float64) Row {
	return NewRow("r",
		Param(ParamType, typ),
		Param(ParamTargetHits, th),
		Param(ParamExploreHits, eh),
		Metric(MetricRecallAvg, pct),
	)
}

func TestCompare(t *testing.T) {
	quantized := []Row{
		queryRow("rq_query", "hnsw", 10, 90, 1.5),
		recallRow("rq_recall", 10, 90, 97.3),
		queryRow("rq_query", "hnsw", 10, 0, 1.0),
		queryRow("rq_query", "hnsw", 100, 0, 3.0),
		queryRow("rq_query", "bruteforce", 10, 90, 50),
		queryRow("rq_query", "hnsw", 0, 0, 9),
		queryRow("rq_query", "hnsw", 10, 400, 4.0),
	}
	float := []Row{
		queryRow("query", "hnsw", 10, 90, 2.0),
		recallRow("recall", 10, 90, 99.0),
		queryRow("query", "hnsw", 10, 0, 1.25),
		queryRow("query", "hnsw", 100, 0, 2.5),
		queryRow("query", "hnsw", 0, 0, 9),
	}

	want := strings.Join([]string{
		"# Comparison: RQ vs. Float32\n",
		"## Target Hits: 10\n",
		"| EH | RQ Latency | RQ Recall | Float32 Latency | Float32 Recall | Latency Gap |",
		"| :--- | :--- | :--- | :--- | :--- | :--- |",
		"| 0 | 1.00 ms | - | 1.25 ms | - | -0.25 ms |",
		"| 90 | 1.50 ms | 97.3% | 2.00 ms | 99.0% | -0.50 ms |",
		"\n",
		"## Target Hits: 100\n",
		"| EH | RQ Latency | RQ Recall | Float32 Latency | Float32 Recall | Latency Gap |",
		"| :--- | :--- | :--- | :--- | :--- | :--- |",
		"| 0 | 3.00 ms | - | 2.50 ms | - | +0.50 ms |",
		"\n",
	}, "\n")
	assert.Equal(t, want, Compare(quantized, float))
}

func TestCompare_Empty(t *testing.T) {
	assert.Equal(t, "# Comparison: RQ vs. Float32\n", Compare(nil, nil))
}
