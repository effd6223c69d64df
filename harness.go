package annbench

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/fvecs"
	"github.com/hupe1980/annbench/groundtruth"
	"github.com/hupe1980/annbench/recall"
	"github.com/hupe1980/annbench/report"
)

// Tensor names used when a parameter leaves them empty.
const (
	QuantizedQueryTensor = "q_rq"
	FloatQueryTensor     = "q_float"
	FloatDocTensor       = "vec_float"
)

// DocTensor returns the document tensor fed for metric m, e.g.
// vec_rq_euclidean.
func DocTensor(m dataset.Metric) string {
	if !m.Quantized() {
		return FloatDocTensor
	}
	return "vec_" + m.String()
}

// QueryTensor returns the query tensor matching DocTensor(m).
func QueryTensor(m dataset.Metric) string {
	if m.Quantized() {
		return QuantizedQueryTensor
	}
	return FloatQueryTensor
}

// Harness prepares datasets and measures recall against a running engine.
type Harness struct {
	client   *engine.Client
	catalog  *dataset.Catalog
	preparer *dataset.Preparer
	opts     options
}

// New returns a Harness querying client for datasets of catalog whose raw
// corpora are resolved by locator. client may be nil when only datasets are
// prepared.
func New(client *engine.Client, catalog *dataset.Catalog, locator dataset.Locator, optFns ...Option) *Harness {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.runID == "" {
		opts.runID = report.NewRunID()
	}
	opts.logger = opts.logger.WithRunID(opts.runID)

	prepOpts := append([]dataset.Option{dataset.WithLogger(opts.logger.Logger)}, opts.prepareOptions...)

	return &Harness{
		client:   client,
		catalog:  catalog,
		preparer: dataset.NewPreparer(catalog, locator, prepOpts...),
		opts:     opts,
	}
}

// RunID returns the identifier stamped on every row of this harness.
func (h *Harness) RunID() string { return h.opts.runID }

// Prepared holds the fvecs files of a dataset.
type Prepared struct {
	Dataset dataset.Dataset
	Base    dataset.Artifact
	Queries dataset.Artifact
}

// PrepareDataset converts the base and query corpora of name to fvecs, or
// reuses earlier conversions.
func (h *Harness) PrepareDataset(ctx context.Context, name string) (Prepared, error) {
	ds, err := h.catalog.Lookup(name)
	if err != nil {
		return Prepared{}, translateError(err)
	}
	logger := h.opts.logger.WithDataset(name)

	base, err := h.prepare(ctx, logger, name, "base", h.preparer.PrepareBase)
	if err != nil {
		return Prepared{}, err
	}
	queries, err := h.prepare(ctx, logger, name, "queries", h.preparer.PrepareQueries)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{Dataset: ds, Base: base, Queries: queries}, nil
}

func (h *Harness) prepare(ctx context.Context, logger *Logger, name, role string, fn func(context.Context, string) (dataset.Artifact, error)) (dataset.Artifact, error) {
	start := time.Now()
	a, err := fn(ctx, name)
	if err != nil {
		logger.LogPrepare(ctx, name, role, "", false, err)
		return dataset.Artifact{}, translateError(err)
	}
	if a.Converted {
		h.opts.metrics.RecordConversion(role, a.Stats.Converted, a.Stats.Skipped, time.Since(start))
		logger.LogConversion(ctx, a.Source, a.Path, a.Stats, nil)
	}
	logger.LogPrepare(ctx, name, role, a.Path, a.Cached, nil)
	return a, nil
}

// RecallParams configures a recall run.
type RecallParams struct {
	Dataset string
	// Metric defaults to the dataset's metric.
	Metric        dataset.Metric
	TargetHits    int
	ExploreHits   int
	FilterPercent int
	// ApproximateThreshold defaults to engine.DefaultApproximateThreshold.
	ApproximateThreshold float64
	ExplorationSlack     float64
	// DocTensor and QueryTensor default to DocTensor(Metric) and
	// QueryTensor(Metric).
	DocTensor   string
	QueryTensor string
	// SearcherSide lets the engine compute each query's recall itself.
	SearcherSide bool
	// MaxQueries limits the queries read from the query file; 0 reads all.
	MaxQueries int
	// GroundTruth is an ivecs file of exact neighbors, as published with
	// the ANN datasets or written by GroundTruth. When set, only the
	// approximate search is sent to the engine and its hits are scored
	// against the file. Document ids must be base vector positions.
	GroundTruth string
}

func (p RecallParams) withDefaults(ds dataset.Dataset) RecallParams {
	if p.Metric == "" {
		p.Metric = ds.Metric
	}
	if p.ApproximateThreshold == 0 {
		p.ApproximateThreshold = engine.DefaultApproximateThreshold
	}
	if p.DocTensor == "" {
		p.DocTensor = DocTensor(p.Metric)
	}
	if p.QueryTensor == "" {
		p.QueryTensor = QueryTensor(p.Metric)
	}
	return p
}

// RecallResult is the outcome of Recall.
type RecallResult struct {
	Label string
	// Statistics are percentages of TargetHits.
	Statistics recall.Statistics
	// AvgLatency is the mean latency of the approximate searches. It is zero
	// for searcher-side runs.
	AvgLatency time.Duration
	Rows       []report.Row
}

// Recall evaluates every prepared query of p.Dataset and writes a recall row
// and, unless the searcher computed recall itself, a query row with the
// average latency of the approximate searches.
func (h *Harness) Recall(ctx context.Context, p RecallParams) (RecallResult, error) {
	ds, err := h.catalog.Lookup(p.Dataset)
	if err != nil {
		return RecallResult{}, translateError(err)
	}
	if h.client == nil {
		return RecallResult{}, fmt.Errorf("%w: no engine client", ErrConfiguration)
	}
	if p.TargetHits <= 0 {
		return RecallResult{}, fmt.Errorf("%w: target hits must be positive, got %d", ErrConfiguration, p.TargetHits)
	}
	if p.SearcherSide && p.GroundTruth != "" {
		return RecallResult{}, fmt.Errorf("%w: searcher-side recall cannot use a ground-truth file", ErrConfiguration)
	}
	p = p.withDefaults(ds)

	label := engine.RecallLabel(p.Metric.String(), p.TargetHits, p.ExploreHits, p.FilterPercent)
	logger := h.opts.logger.WithDataset(ds.Name).WithLabel(label)

	vectors, err := h.loadQueries(ctx, ds, p.MaxQueries)
	if err != nil {
		logger.LogRecall(ctx, label, recall.Statistics{}, 0, err)
		return RecallResult{}, err
	}
	evalOpts := []recall.Option{
		recall.WithWorkers(h.opts.workers),
		recall.WithLogger(logger.Logger),
	}

	approx := engine.Request{
		DocTensor:            p.DocTensor,
		QueryTensor:          p.QueryTensor,
		TargetHits:           p.TargetHits,
		ExploreHits:          p.ExploreHits,
		Hits:                 p.TargetHits,
		ApproximateThreshold: p.ApproximateThreshold,
		ExplorationSlack:     p.ExplorationSlack,
		FilterPercent:        p.FilterPercent,
	}

	var (
		latencyNanos atomic.Int64
		latencyCount atomic.Int64
		samples      []recall.Sample
	)
	observe := func(r engine.Result) {
		latencyNanos.Add(r.Latency.Nanoseconds())
		latencyCount.Add(1)
	}

	start := time.Now()
	switch {
	case p.SearcherSide:
		samples, err = recall.EvaluateScores(ctx, engine.Queries(vectors), engine.SearcherRecallScorer(h.client, engine.RecallRequest{
			DocTensor:            p.DocTensor,
			QueryTensor:          p.QueryTensor,
			TargetHits:           p.TargetHits,
			ExploreHits:          p.ExploreHits,
			FilterPercent:        p.FilterPercent,
			ApproximateThreshold: p.ApproximateThreshold,
		}), evalOpts...)
	case p.GroundTruth != "":
		var eval recall.Evaluator[groundtruth.Query]
		if eval, err = h.groundTruthEvaluator(p, len(vectors), approx, observe); err == nil {
			samples, err = recall.Evaluate(ctx, groundtruth.Queries(vectors), eval, evalOpts...)
		}
	default:
		exact := approx
		exact.Exact = true
		exact.ExploreHits = 0
		exact.ExplorationSlack = 0
		samples, err = recall.Evaluate(ctx, engine.Queries(vectors), engine.RecallEvaluator(h.client, approx, exact, observe), evalOpts...)
	}
	elapsed := time.Since(start)
	if err != nil {
		err = translateError(err)
		logger.LogRecall(ctx, label, recall.Statistics{}, elapsed, err)
		return RecallResult{}, err
	}

	raw, err := recall.Aggregate(samples)
	if err != nil {
		return RecallResult{}, translateError(err)
	}
	stats, err := raw.Percent(p.TargetHits)
	if err != nil {
		return RecallResult{}, translateError(err)
	}

	res := RecallResult{Label: label, Statistics: stats}
	res.Rows = append(res.Rows, report.NewRow(h.opts.runID,
		report.Param(report.ParamType, engine.TypeRecall),
		report.Param(report.ParamLabel, label),
		report.Param(report.ParamDataset, ds.Name),
		report.Param(report.ParamAlgorithm, engine.HNSW),
		report.Param(report.ParamDistanceMetric, p.Metric.String()),
		report.Param(report.ParamTargetHits, p.TargetHits),
		report.Param(report.ParamExploreHits, p.ExploreHits),
		report.Param(report.ParamFilterPercent, p.FilterPercent),
		report.Param(report.ParamApproximateThreshold, p.ApproximateThreshold),
		report.Metric(report.MetricRecallAvg, stats.Average),
		report.Metric(report.MetricRecallMedian, stats.Median),
		report.Metric(report.MetricRecallMin, stats.Min),
		report.Metric(report.MetricRecallMax, stats.Max),
		report.Metric(report.MetricQueries, float64(stats.Count)),
	))

	if n := latencyCount.Load(); n > 0 {
		res.AvgLatency = time.Duration(latencyNanos.Load() / n)
		res.Rows = append(res.Rows, h.queryRow(ds, p, res.AvgLatency, int(n)))
	}

	for _, row := range res.Rows {
		if err := h.opts.sink.Write(ctx, row); err != nil {
			return RecallResult{}, fmt.Errorf("write %s row: %w", row.Param(report.ParamType), err)
		}
	}

	h.opts.metrics.RecordRecall(label, stats.Average)
	logger.LogRecall(ctx, label, stats, elapsed, nil)
	return res, nil
}

// groundTruthEvaluator scores approximate engine hits against the first
// TargetHits rows of p.GroundTruth.
func (h *Harness) groundTruthEvaluator(p RecallParams, queries int, approx engine.Request, observe func(engine.Result)) (recall.Evaluator[groundtruth.Query], error) {
	truth, err := groundtruth.FromIvecs(p.GroundTruth, p.TargetHits)
	if err != nil {
		return nil, fmt.Errorf("%w: ground truth: %w", ErrConfiguration, err)
	}
	if len(truth) < queries {
		return nil, fmt.Errorf("%w: ground truth %s covers %d queries, need %d", ErrConfiguration, p.GroundTruth, len(truth), queries)
	}
	search := func(ctx context.Context, q groundtruth.Query) ([]uint64, error) {
		r, err := h.client.Search(ctx, approx.WithVector(q.Vector))
		if err != nil {
			return nil, err
		}
		observe(r)
		return r.IDs(), nil
	}
	return groundtruth.Evaluator(truth, p.TargetHits, search), nil
}

// GroundTruthParams configures GroundTruth.
type GroundTruthParams struct {
	Dataset string
	// Metric defaults to the dataset's; quantized metrics use their float
	// distance.
	Metric dataset.Metric
	K      int
	// MaxQueries limits the queries scanned; 0 uses all.
	MaxQueries int
	// Output, when set, receives the neighbors as an ivecs file.
	Output string
}

// GroundTruth computes the exact K nearest base vectors of every prepared
// query of p.Dataset by exhaustive scan. The base corpus is held in memory.
func (h *Harness) GroundTruth(ctx context.Context, p GroundTruthParams) ([][]uint64, error) {
	ds, err := h.catalog.Lookup(p.Dataset)
	if err != nil {
		return nil, translateError(err)
	}
	if p.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrConfiguration, p.K)
	}
	if p.Metric == "" {
		p.Metric = ds.Metric
	}
	logger := h.opts.logger.WithDataset(ds.Name)

	a, err := h.prepare(ctx, logger, ds.Name, "base", h.preparer.PrepareBase)
	if err != nil {
		return nil, err
	}
	base, err := fvecs.Load(a.Path, ds.Dimensions, 0)
	if err != nil {
		return nil, translateError(fmt.Errorf("read base %s: %w", a.Path, err))
	}
	queries, err := h.loadQueries(ctx, ds, p.MaxQueries)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	truth, err := groundtruth.Compute(ctx, base, queries, p.K, p.Metric, h.opts.workers)
	if err != nil {
		return nil, translateError(err)
	}
	if p.Output != "" {
		if err := groundtruth.Save(p.Output, truth); err != nil {
			return nil, fmt.Errorf("write ground truth: %w", err)
		}
	}
	logger.InfoContext(ctx, "ground truth computed",
		"metric", p.Metric.String(),
		"k", p.K,
		"base", len(base),
		"queries", len(queries),
		"output", p.Output,
		"elapsed", time.Since(start),
	)
	return truth, nil
}

func (h *Harness) queryRow(ds dataset.Dataset, p RecallParams, avg time.Duration, queries int) report.Row {
	typ := engine.QueryType(p.FilterPercent, 0)
	if !p.Metric.Quantized() {
		typ = engine.TypeFloatQuery
	}
	label := engine.Label(engine.LabelParams{
		Metric:        p.Metric.String(),
		Algorithm:     engine.HNSW,
		TargetHits:    p.TargetHits,
		ExploreHits:   p.ExploreHits,
		FilterPercent: p.FilterPercent,
		Slack:         p.ExplorationSlack,
		Clients:       h.opts.workers,
	})
	return report.NewRow(h.opts.runID,
		report.Param(report.ParamType, typ),
		report.Param(report.ParamLabel, label),
		report.Param(report.ParamDataset, ds.Name),
		report.Param(report.ParamAlgorithm, engine.HNSW),
		report.Param(report.ParamDistanceMetric, p.Metric.String()),
		report.Param(report.ParamTargetHits, p.TargetHits),
		report.Param(report.ParamExploreHits, p.ExploreHits),
		report.Param(report.ParamFilterPercent, p.FilterPercent),
		report.Param(report.ParamApproximateThreshold, p.ApproximateThreshold),
		report.Param(report.ParamSlack, p.ExplorationSlack),
		report.Param(report.ParamClients, h.opts.workers),
		report.Metric(report.MetricAvgResponseTime, float64(avg.Nanoseconds())/1e6),
		report.Metric(report.MetricQueries, float64(queries)),
	)
}

// CrossParams configures a cross-encoding run.
type CrossParams struct {
	Dataset string
	// Metric defaults to the dataset's metric and must be quantized.
	Metric     dataset.Metric
	TargetHits int
	// Tensor names default to DocTensor(Metric), QuantizedQueryTensor,
	// FloatDocTensor and FloatQueryTensor.
	QuantizedTensor string
	QuantizedQuery  string
	FloatTensor     string
	FloatQuery      string
}

func (p CrossParams) withDefaults(ds dataset.Dataset) CrossParams {
	if p.Metric == "" {
		p.Metric = ds.Metric
	}
	if p.QuantizedTensor == "" {
		p.QuantizedTensor = DocTensor(p.Metric)
	}
	if p.QuantizedQuery == "" {
		p.QuantizedQuery = QuantizedQueryTensor
	}
	if p.FloatTensor == "" {
		p.FloatTensor = FloatDocTensor
	}
	if p.FloatQuery == "" {
		p.FloatQuery = FloatQueryTensor
	}
	return p
}

// CrossResult is the outcome of CrossRecall.
type CrossResult struct {
	Label string
	recall.CrossResult
	Row report.Row
}

// CrossRecall compares the approximate results over the quantized tensor
// with exact results over the float tensor for the first queries of
// p.Dataset and writes a rq_vs_float_recall row.
func (h *Harness) CrossRecall(ctx context.Context, p CrossParams) (CrossResult, error) {
	ds, err := h.catalog.Lookup(p.Dataset)
	if err != nil {
		return CrossResult{}, translateError(err)
	}
	if h.client == nil {
		return CrossResult{}, fmt.Errorf("%w: no engine client", ErrConfiguration)
	}
	p = p.withDefaults(ds)
	if !p.Metric.Quantized() {
		return CrossResult{}, fmt.Errorf("%w: cross-encoding recall needs a quantized metric, got %s", ErrConfiguration, p.Metric)
	}
	if p.TargetHits <= 0 {
		return CrossResult{}, fmt.Errorf("%w: target hits must be positive, got %d", ErrConfiguration, p.TargetHits)
	}

	label := engine.CrossLabel(p.Metric.String(), p.TargetHits)
	logger := h.opts.logger.WithDataset(ds.Name).WithLabel(label)

	vectors, err := h.loadQueries(ctx, ds, h.opts.maxCrossQuery)
	if err != nil {
		logger.LogCrossRecall(ctx, label, recall.CrossResult{}, err)
		return CrossResult{}, err
	}

	approx, exact := engine.CrossTemplates(p.QuantizedTensor, p.QuantizedQuery, p.FloatTensor, p.FloatQuery, p.TargetHits)
	res, err := recall.CrossEncoding(ctx, engine.Queries(vectors), engine.RecallEvaluator(h.client, approx, exact), p.TargetHits,
		recall.WithMaxQueries(h.opts.maxCrossQuery),
		recall.WithLogger(logger.Logger),
	)
	if err != nil {
		err = translateError(err)
		logger.LogCrossRecall(ctx, label, recall.CrossResult{}, err)
		return CrossResult{}, err
	}

	row := report.NewRow(h.opts.runID,
		report.Param(report.ParamType, engine.TypeCrossRecall),
		report.Param(report.ParamLabel, label),
		report.Param(report.ParamDataset, ds.Name),
		report.Param(report.ParamDistanceMetric, p.Metric.String()),
		report.Param(report.ParamTargetHits, p.TargetHits),
		report.Metric(report.MetricRecallVsFloat, res.Percent),
		report.Metric(report.MetricQueries, float64(res.Queries)),
	)
	if err := h.opts.sink.Write(ctx, row); err != nil {
		return CrossResult{}, fmt.Errorf("write %s row: %w", engine.TypeCrossRecall, err)
	}

	h.opts.metrics.RecordRecall(label, res.Percent)
	logger.LogCrossRecall(ctx, label, res, nil)
	return CrossResult{Label: label, CrossResult: res, Row: row}, nil
}

// loadQueries prepares the query corpus of ds and decodes at most limit
// vectors from a mapping of it.
func (h *Harness) loadQueries(ctx context.Context, ds dataset.Dataset, limit int) ([][]float32, error) {
	a, err := h.prepare(ctx, h.opts.logger.WithDataset(ds.Name), ds.Name, "queries", h.preparer.PrepareQueries)
	if err != nil {
		return nil, err
	}
	mf, err := fvecs.OpenMapped(a.Path)
	if err != nil {
		return nil, translateError(fmt.Errorf("read queries %s: %w", a.Path, err))
	}
	defer mf.Close()

	n := mf.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: %s has no queries", ErrEmptySampleSet, a.Path)
	}
	if mf.Dim() != ds.Dimensions {
		return nil, translateError(fmt.Errorf("read queries %s: %w", a.Path,
			&fvecs.DimensionMismatchError{Expected: ds.Dimensions, Actual: mf.Dim()}))
	}
	if limit > 0 && limit < n {
		n = limit
	}
	vectors, err := mf.Slice(0, n)
	if err != nil {
		return nil, translateError(fmt.Errorf("read queries %s: %w", a.Path, err))
	}
	return vectors, nil
}
