// Package annbench measures the recall of approximate nearest-neighbor search
// in a running search engine.
//
// A benchmark run has three stages:
//
//   - Preparation: raw corpora (fvecs, JSON or JSONL document feeds, query
//     logs) are located in a blob store, fetched to a local cache and converted
//     to fvecs once.
//   - Evaluation: every query is sent twice, as an approximate search and as
//     its exact counterpart, and the overlap of the two hit sets is its recall.
//     Alternatively the engine computes recall itself.
//   - Reporting: aggregated results are written as rows to JSONL files or
//     DynamoDB and can be rendered as a markdown comparison.
//
// # Quick Start
//
//	client, _ := engine.NewClient("http://localhost:8080/search/")
//	h := annbench.New(client, dataset.DefaultCatalog(), blobstore.NewFetcher(store, cacheDir),
//	    annbench.WithSink(sink),
//	)
//	res, _ := h.Recall(ctx, annbench.RecallParams{
//	    Dataset:     "sift",
//	    TargetHits:  10,
//	    ExploreHits: 90,
//	})
//	fmt.Println(res.Label, res.Statistics.Average)
//
// Cross-encoding recall compares the quantized tensor against the float
// tensor of the same corpus:
//
//	res, _ := h.CrossRecall(ctx, annbench.CrossParams{Dataset: "sift", TargetHits: 100})
//
// # Errors
//
// Errors returned by Harness methods match one of ErrConfiguration,
// ErrMalformedRecord, ErrEmptySampleSet or ErrEngineQuery with errors.Is
// whenever the cause falls into one of these categories.
package annbench
