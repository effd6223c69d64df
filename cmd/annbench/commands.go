package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/convert"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/report"
)

type rootFlags struct {
	configPath  string
	metricsAddr string
	logLevel    string
}

func newRootCommand() *cobra.Command {
	var (
		flags rootFlags
		a     *app
	)

	root := &cobra.Command{
		Use:           "annbench",
		Short:         "Measure nearest-neighbor recall of a search engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := annbench.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			if a, err = newApp(cfg); err != nil {
				return err
			}
			if flags.metricsAddr != "" {
				return a.serveMetrics(flags.metricsAddr)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.close(ctx)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	pf.StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	getApp := func() *app { return a }
	root.AddCommand(
		newConvertCommand(getApp),
		newPrepareCommand(getApp),
		newRecallCommand(getApp),
		newCrossRecallCommand(getApp),
		newGroundTruthCommand(getApp),
		newCompareCommand(),
		newDatasetsCommand(getApp),
	)
	return root
}

func newConvertCommand(getApp func() *app) *cobra.Command {
	var codecName string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert corpora to fvecs",
	}
	cmd.PersistentFlags().StringVar(&codecName, "codec", codec.Default.Name(), "JSON decoder: go-json or json")
	withCodec := func() (convert.Option, error) {
		c, ok := codec.ByName(codecName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown codec %q", annbench.ErrConfiguration, codecName)
		}
		return convert.WithCodec(c), nil
	}

	var (
		field   string
		dims    int
		maxDims int
	)
	embeddings := &cobra.Command{
		Use:   "embeddings SRC [DST]",
		Short: "Convert a JSON or JSONL document feed to fvecs",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := withCodec()
			if err != nil {
				return err
			}
			return runConvert(cmd, getApp(), "embeddings", convert.ConvertEmbeddings, args,
				c,
				convert.WithField(field),
				convert.WithExpectedDims(dims),
				convert.WithMaxCellDims(maxDims),
			)
		},
	}
	embeddings.Flags().StringVar(&field, "field", convert.DefaultField, "document field holding the embedding")
	embeddings.Flags().IntVar(&dims, "dims", 0, "tensor length used to densify cell tensors")
	embeddings.Flags().IntVar(&maxDims, "max-cell-dims", convert.DefaultMaxCellDims, "largest cell tensor length derived when --dims is unset")

	var param string
	queries := &cobra.Command{
		Use:   "queries SRC [DST]",
		Short: "Convert a query log to fvecs",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := withCodec()
			if err != nil {
				return err
			}
			return runConvert(cmd, getApp(), "queries", convert.ConvertQueryLog, args,
				c,
				convert.WithParam(param),
			)
		},
	}
	queries.Flags().StringVar(&param, "param", convert.DefaultQueryParam, "query-string parameter carrying the query tensor")

	cmd.AddCommand(embeddings, queries)
	return cmd
}

type convertFunc func(ctx context.Context, src, dst string, optFns ...convert.Option) (convert.Stats, error)

func runConvert(cmd *cobra.Command, a *app, unit string, fn convertFunc, args []string, opts ...convert.Option) error {
	src := args[0]
	dst := convert.DerivedPath(src)
	if len(args) == 2 {
		dst = args[1]
	}

	ctx := cmd.Context()
	opts = append(opts, convert.WithLogger(a.logger.Logger))
	start := time.Now()
	stats, err := fn(ctx, src, dst, opts...)
	a.logger.LogConversion(ctx, src, dst, stats, err)
	if err != nil {
		return err
	}
	a.collector.RecordConversion(unit, stats.Converted, stats.Skipped, time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dst, stats)
	return nil
}

func newPrepareCommand(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare DATASET",
		Short: "Fetch and convert the base and query corpora of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := getApp().harness(cmd.Context(), false)
			if err != nil {
				return err
			}
			p, err := h.PrepareDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base: %s\n", p.Base.Path)
			fmt.Fprintf(out, "queries: %s\n", p.Queries.Path)
			return nil
		},
	}
}

func newRecallCommand(getApp func() *app) *cobra.Command {
	var (
		p      annbench.RecallParams
		metric string
	)
	cmd := &cobra.Command{
		Use:   "recall DATASET",
		Short: "Measure approximate search recall against exact search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Dataset = args[0]
			if metric != "" {
				m, err := dataset.ParseMetric(metric)
				if err != nil {
					return fmt.Errorf("%w: %w", annbench.ErrConfiguration, err)
				}
				p.Metric = m
			}
			h, err := getApp().harness(cmd.Context(), true)
			if err != nil {
				return err
			}
			res, err := h.Recall(cmd.Context(), p)
			if err != nil {
				return err
			}
			s := res.Statistics
			fmt.Fprintf(cmd.OutOrStdout(), "%s: avg=%.2f%% median=%.2f%% min=%.2f%% max=%.2f%% queries=%d\n",
				res.Label, s.Average, s.Median, s.Min, s.Max, s.Count)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.TargetHits, "target-hits", 10, "targetHits of every query")
	f.IntVar(&p.ExploreHits, "explore-hits", 0, "additional hits explored by HNSW")
	f.IntVar(&p.FilterPercent, "filter-percent", 0, "percentage of documents removed by the filter")
	f.Float64Var(&p.ApproximateThreshold, "approximate-threshold", engine.DefaultApproximateThreshold, "approximate threshold")
	f.Float64Var(&p.ExplorationSlack, "slack", 0, "HNSW exploration slack")
	f.StringVar(&metric, "metric", "", "distance metric (defaults to the dataset's)")
	f.StringVar(&p.DocTensor, "doc-tensor", "", "document tensor field")
	f.StringVar(&p.QueryTensor, "query-tensor", "", "query tensor name")
	f.BoolVar(&p.SearcherSide, "searcher", false, "let the engine compute recall per query")
	f.IntVar(&p.MaxQueries, "max-queries", 0, "limit the number of queries (0 uses all)")
	f.StringVar(&p.GroundTruth, "ground-truth", "", "score approximate hits against this ivecs file instead of exact search")
	return cmd
}

func newGroundTruthCommand(getApp func() *app) *cobra.Command {
	var (
		p      annbench.GroundTruthParams
		metric string
	)
	cmd := &cobra.Command{
		Use:   "groundtruth DATASET",
		Short: "Compute exact nearest neighbors of the dataset queries by brute force",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Dataset = args[0]
			if metric != "" {
				m, err := dataset.ParseMetric(metric)
				if err != nil {
					return fmt.Errorf("%w: %w", annbench.ErrConfiguration, err)
				}
				p.Metric = m
			}
			h, err := getApp().harness(cmd.Context(), false)
			if err != nil {
				return err
			}
			truth, err := h.GroundTruth(cmd.Context(), p)
			if err != nil {
				return err
			}
			out := p.Output
			if out == "" {
				out = "(not written)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d queries k=%d -> %s\n", p.Dataset, len(truth), p.K, out)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.K, "k", 100, "neighbors kept per query")
	f.StringVar(&metric, "metric", "", "distance metric (defaults to the dataset's)")
	f.IntVar(&p.MaxQueries, "max-queries", 0, "limit the number of queries (0 uses all)")
	f.StringVarP(&p.Output, "out", "o", "", "ivecs file receiving the neighbors")
	return cmd
}

func newCrossRecallCommand(getApp func() *app) *cobra.Command {
	var (
		p      annbench.CrossParams
		metric string
	)
	cmd := &cobra.Command{
		Use:   "cross-recall DATASET",
		Short: "Compare quantized approximate results with exact float results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Dataset = args[0]
			if metric != "" {
				m, err := dataset.ParseMetric(metric)
				if err != nil {
					return fmt.Errorf("%w: %w", annbench.ErrConfiguration, err)
				}
				p.Metric = m
			}
			h, err := getApp().harness(cmd.Context(), true)
			if err != nil {
				return err
			}
			res, err := h.CrossRecall(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.2f%% (%d queries)\n", res.Label, res.Percent, res.Queries)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.TargetHits, "target-hits", 100, "targetHits of every query")
	f.StringVar(&metric, "metric", "", "quantized distance metric (defaults to the dataset's)")
	f.StringVar(&p.QuantizedTensor, "quantized-tensor", "", "quantized document tensor field")
	f.StringVar(&p.QuantizedQuery, "quantized-query", "", "quantized query tensor name")
	f.StringVar(&p.FloatTensor, "float-tensor", "", "float document tensor field")
	f.StringVar(&p.FloatQuery, "float-query", "", "float query tensor name")
	return cmd
}

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare QUANTIZED.jsonl FLOAT.jsonl",
		Short: "Render a markdown comparison of two result files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantized, err := report.ReadJSONLFile(args[0], codec.Default)
			if err != nil {
				return err
			}
			float, err := report.ReadJSONLFile(args[1], codec.Default)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), report.Compare(quantized, float))
			return err
		},
	}
}

func newDatasetsCommand(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the dataset catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := getApp().cfg.LoadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIMS\tMETRIC\tDOCUMENTS\tBASE\tQUERIES")
			for _, name := range catalog.Names() {
				d, err := catalog.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n", d.Name, d.Dimensions, d.Metric, d.DocumentCount, d.BaseLocation, d.QueryLocation)
			}
			return w.Flush()
		},
	}
}
