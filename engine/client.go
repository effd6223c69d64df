package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/metrics"
	"github.com/hupe1980/annbench/recall"
)

// Query kinds reported to the metrics collector.
const (
	KindApproximate    = "approximate"
	KindExact          = "exact"
	KindSearcherRecall = "searcher_recall"
)

const maxResponseBytes = 64 << 20

// Client queries a search engine over HTTP. It is safe for concurrent use.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	timeout  time.Duration
	codec    codec.Codec
	docType  string
	logger   *slog.Logger
	metrics  metrics.Collector
}

// NewClient creates a client for the search handler at endpoint. An
// endpoint without a path uses DefaultPath.
func NewClient(endpoint string, optFns ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("engine: parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("engine: endpoint %q must be an absolute URL", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	opts := applyOptions(optFns)

	limit := rate.Inf
	if opts.qps > 0 {
		limit = rate.Limit(opts.qps)
	}

	return &Client{
		endpoint: u,
		http:     opts.httpClient,
		limiter:  rate.NewLimiter(limit, opts.burst),
		timeout:  opts.timeout,
		codec:    opts.codec,
		docType:  opts.docType,
		logger:   opts.logger,
		metrics:  opts.metrics,
	}, nil
}

// Endpoint returns the search handler URL.
func (c *Client) Endpoint() string { return c.endpoint.String() }

// DocumentType returns the document type queries select from.
func (c *Client) DocumentType() string { return c.docType }

// Hit is one result of a nearestNeighbor query.
type Hit struct {
	ID        uint64
	Relevance float64
}

// Result is the answer to a Request.
type Result struct {
	Hits       []Hit
	TotalCount int
	Latency    time.Duration
}

// IDs returns the document ids of the hits in rank order.
func (r Result) IDs() []uint64 {
	ids := make([]uint64, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search runs a nearestNeighbor query. Every hit must carry an integral,
// non-negative "id" field.
func (c *Client) Search(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	kind := KindApproximate
	if req.Exact {
		kind = KindExact
	}

	resp, latency, err := c.do(ctx, kind, req.Values(c.docType))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Hits:       make([]Hit, 0, len(resp.Root.Children)),
		TotalCount: resp.Root.Fields.TotalCount,
		Latency:    latency,
	}
	for i, child := range resp.Root.Children {
		id, err := child.Fields.id()
		if err != nil {
			return Result{}, fmt.Errorf("%w: hit %d: %v", ErrUnexpectedResponse, i, err)
		}
		res.Hits = append(res.Hits, Hit{ID: id, Relevance: child.Relevance})
	}

	c.logger.DebugContext(ctx, "engine search",
		slog.String("kind", kind),
		slog.Int("hits", len(res.Hits)),
		slog.Duration("latency", latency),
	)
	return res, nil
}

// SearcherRecall asks the engine to compute the recall of one query. The
// response must contain exactly one hit carrying either a "recall" or an
// "error" field.
func (c *Client) SearcherRecall(ctx context.Context, req RecallRequest) (int, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}

	resp, _, err := c.do(ctx, KindSearcherRecall, req.Values(c.docType))
	if err != nil {
		return 0, err
	}

	if n := len(resp.Root.Children); n != 1 {
		return 0, fmt.Errorf("%w: expected 1 hit, got %d", ErrUnexpectedResponse, n)
	}
	fields := resp.Root.Children[0].Fields
	if fields.Recall == nil {
		msg := "no recall in response"
		if fields.Error != nil {
			msg = fmt.Sprint(fields.Error)
		}
		return 0, &recall.EngineQueryError{Message: msg}
	}
	r := *fields.Recall
	if r < 0 || r != math.Trunc(r) {
		return 0, fmt.Errorf("%w: recall %v is not a count", ErrUnexpectedResponse, r)
	}
	return int(r), nil
}

func (c *Client) do(ctx context.Context, kind string, values url.Values) (resp *response, latency time.Duration, err error) {
	defer func() {
		c.metrics.RecordQuery(kind, latency, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	values.Set("timeout", formatFloat(c.timeout.Seconds()))
	u := *c.endpoint
	u.RawQuery = values.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("engine: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("engine: %s query: %w", kind, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	latency = time.Since(start)
	if err != nil {
		return nil, latency, fmt.Errorf("engine: read response: %w", err)
	}

	var r response
	decodeErr := c.codec.Unmarshal(body, &r)
	if decodeErr == nil && len(r.Root.Errors) > 0 {
		return nil, latency, &recall.EngineQueryError{Message: r.Root.Errors.message()}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, latency, &HTTPError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if decodeErr != nil {
		return nil, latency, fmt.Errorf("%w: %v", ErrUnexpectedResponse, decodeErr)
	}
	return &r, latency, nil
}

type response struct {
	Root struct {
		Fields struct {
			TotalCount int `json:"totalCount"`
		} `json:"fields"`
		Children []struct {
			ID        string    `json:"id"`
			Relevance float64   `json:"relevance"`
			Fields    hitFields `json:"fields"`
		} `json:"children"`
		Errors engineErrors `json:"errors"`
	} `json:"root"`
}

type hitFields struct {
	ID     *float64 `json:"id"`
	Recall *float64 `json:"recall"`
	Error  any      `json:"error"`
}

var errMissingID = errors.New(`missing "id" field`)

func (f hitFields) id() (uint64, error) {
	if f.ID == nil {
		return 0, errMissingID
	}
	v := *f.ID
	if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
		return 0, fmt.Errorf("id %v is not a document number", v)
	}
	return uint64(v), nil
}

type engineErrors []struct {
	Code    int    `json:"code"`
	Summary string `json:"summary"`
	Message string `json:"message"`
}

func (e engineErrors) message() string {
	parts := make([]string, 0, len(e))
	for _, err := range e {
		msg := err.Message
		if msg == "" {
			msg = err.Summary
		}
		parts = append(parts, fmt.Sprintf("%d: %s", err.Code, msg))
	}
	return strings.Join(parts, "; ")
}
