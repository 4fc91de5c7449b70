package orderbook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"basicswap-orderbook-go/internal/config"
	"basicswap-orderbook-go/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Endpoint names one of the three API resources.
type Endpoint string

const (
	EndpointStatus    Endpoint = "status"
	EndpointOrderbook Endpoint = "orderbook"
	EndpointPairs     Endpoint = "pairs"

	statusPath    = "/sync/status"
	orderbookPath = "/v1/orderbook"
	pairsPath     = "/v1/pairs"

	accessKeyHeader = "X-API-Key"
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Result is a fetched value. Fallback is set when Value is the fixed
// fallback data rather than a live response.
type Result[T any] struct {
	Value    T
	Fallback bool
}

// Source defines the interface of the orderbook data source.
type Source interface {
	FetchStatus(ctx context.Context) (Result[*models.Status], error)
	FetchOrderbook(ctx context.Context) (Result[*models.OrderbookResponse], error)
	FetchPairs(ctx context.Context) (Result[*models.PairsResponse], error)
}

// Recorder receives per-request measurements.
type Recorder interface {
	ObserveFetch(endpoint string, d time.Duration, err error)
	RecordFallback(endpoint string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, time.Duration, error) {}
func (nopRecorder) RecordFallback(string)                     {}

// Client fetches snapshots from the orderbook API.
// Every call is a single attempt; failures are handled by the configured
// policy instead of retries.
type Client struct {
	client    *resty.Client
	accessKey string
	policy    string
	logger    *zap.Logger
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	recorder  Recorder
	now       func() time.Time
}

// ensure Client implements the interface
var _ Source = (*Client)(nil)

// NewClient creates a new orderbook API client.
func NewClient(cfg *config.API, logger *zap.Logger, recorder Recorder) *Client {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger = logger.Named("orderbook")

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	logger.Info("Orderbook client configured",
		zap.String("base_url", cfg.BaseURL),
		zap.String("on_fetch_failure", cfg.OnFetchFailure),
	)

	return &Client{
		client:    client,
		accessKey: cfg.AccessKey,
		policy:    cfg.OnFetchFailure,
		logger:    logger,
		limiter:   limiter,
		breaker:   newBreaker(cfg, logger),
		recorder:  recorder,
		now:       time.Now,
	}
}

// newBreaker trips once more than BreakerMinRequests requests were seen in the
// current window and the failure ratio reached BreakerFailureRatio.
func newBreaker(cfg *config.API, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "orderbook-api",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests > cfg.BreakerMinRequests && ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// doRequest performs one rate limited GET through the circuit breaker.
func (c *Client) doRequest(ctx context.Context, endpoint Endpoint, path string, req *resty.Request) (*resty.Response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, path, req)
	c.recorder.ObserveFetch(string(endpoint), time.Since(start), err)
	return resp, err
}

func (c *Client) execute(ctx context.Context, path string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	c.logger.Debug("Executing request", zap.String("url", c.client.BaseURL+path))

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := req.SetContext(ctx).Execute(http.MethodGet, path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status())
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*resty.Response), nil
}

// degrade applies the failure policy: either the fallback value is returned
// in place of the live one, or the error is handed back to the caller.
func degrade[T any](c *Client, endpoint Endpoint, err error, fallback T) (Result[T], error) {
	if c.policy == config.FailurePolicyPropagate {
		return Result[T]{}, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	c.logger.Warn("Using fallback data", zap.String("endpoint", string(endpoint)), zap.Error(err))
	c.recorder.RecordFallback(string(endpoint))
	return Result[T]{Value: fallback, Fallback: true}, nil
}

// FetchStatus fetches the sync status snapshot.
func (c *Client) FetchStatus(ctx context.Context) (Result[*models.Status], error) {
	req := c.client.R().
		ForceContentType("application/json").
		SetResult(&models.Status{})

	resp, err := c.doRequest(ctx, EndpointStatus, statusPath, req)
	if err != nil {
		return degrade(c, EndpointStatus, err, FallbackStatus(c.now()))
	}
	return Result[*models.Status]{Value: resp.Result().(*models.Status)}, nil
}

// FetchOrderbook fetches the full offer collection.
func (c *Client) FetchOrderbook(ctx context.Context) (Result[*models.OrderbookResponse], error) {
	req := c.client.R().
		ForceContentType("application/json").
		SetHeader(accessKeyHeader, c.accessKey).
		SetResult(&models.OrderbookResponse{})

	resp, err := c.doRequest(ctx, EndpointOrderbook, orderbookPath, req)
	if err != nil {
		return degrade(c, EndpointOrderbook, err, FallbackOrderbook(c.now()))
	}

	result := resp.Result().(*models.OrderbookResponse)
	if result.Data == nil {
		result.Data = []models.Offer{}
	}
	return Result[*models.OrderbookResponse]{Value: result}, nil
}

// FetchPairs fetches the per-pair statistics.
func (c *Client) FetchPairs(ctx context.Context) (Result[*models.PairsResponse], error) {
	req := c.client.R().
		ForceContentType("application/json").
		SetHeader(accessKeyHeader, c.accessKey).
		SetResult(&models.PairsResponse{})

	resp, err := c.doRequest(ctx, EndpointPairs, pairsPath, req)
	if err != nil {
		return degrade(c, EndpointPairs, err, FallbackPairs())
	}

	result := resp.Result().(*models.PairsResponse)
	if result.Data == nil {
		result.Data = []models.Pair{}
	}
	return Result[*models.PairsResponse]{Value: result}, nil
}
