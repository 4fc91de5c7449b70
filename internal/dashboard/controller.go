package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"basicswap-orderbook-go/internal/metrics"
	"basicswap-orderbook-go/internal/models"
	"basicswap-orderbook-go/internal/orderbook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by Refresh when a newer cycle started (or the
// cycle was cancelled) before this one could publish.
var ErrSuperseded = errors.New("refresh superseded")

// Journal stores one record per refresh cycle.
type Journal interface {
	Record(ctx context.Context, rec *models.RefreshRecord) error
}

// Event types pushed to subscribers.
const (
	EventRefresh = "refresh"
	EventError   = "error"
)

// Event is pushed to subscribers after a refresh cycle publishes.
type Event struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	Status     string `json:"status,omitempty"`
}

// Notifier receives refresh events.
type Notifier interface {
	Notify(ev Event)
}

// Options configures a Controller. Only Interval is required by Run.
type Options struct {
	Interval   time.Duration
	SessionTTL time.Duration
	Location   *time.Location
	Journal    Journal
	Notifier   Notifier
	Metrics    *metrics.Metrics
	Clock      func() time.Time
}

// Snapshot is the data of the latest published refresh.
type Snapshot struct {
	Status     *models.Status       `json:"status"`
	Offers     []models.Offer       `json:"offers"`
	Pairs      []models.Pair        `json:"pairs"`
	Fallbacks  []orderbook.Endpoint `json:"fallbacks,omitempty"`
	Generation uint64               `json:"generation"`
	LoadedAt   time.Time            `json:"loadedAt"`
	Failed     bool                 `json:"failed"`
}

// Controller runs the refresh cycle and owns all shared page state: the
// latest snapshot and one offer store per viewer session.
type Controller struct {
	logger *zap.Logger
	source orderbook.Source
	opts   Options

	mu       sync.Mutex
	snapshot Snapshot
	sessions map[string]*session
	issued   uint64
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

// NewController creates a Controller reading from source.
func NewController(logger *zap.Logger, source orderbook.Source, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Controller{
		logger:   logger.Named("dashboard"),
		source:   source,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Run refreshes immediately and then on every interval tick until ctx is done.
// A tick cancels a cycle that is still in flight before starting the next one.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	c.logger.Info("Starting refresh loop", zap.Duration("interval", c.opts.Interval))
	c.startCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping refresh loop...")
			c.mu.Lock()
			if c.cancel != nil {
				c.cancel()
			}
			c.mu.Unlock()
			c.wg.Wait()
			return
		case <-ticker.C:
			c.startCycle(ctx)
		}
	}
}

func (c *Controller) startCycle(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			c.logger.Error("Refresh failed", zap.Error(err))
		}
	}()
}

// cycleResult is the joined outcome of the three fetches.
type cycleResult struct {
	status    *models.Status
	orderbook *models.OrderbookResponse
	pairs     *models.PairsResponse
	fallbacks []orderbook.Endpoint
}

// Refresh runs one refresh cycle: fetch everything in parallel, then publish.
// Only the newest cycle publishes; older ones return ErrSuperseded. A failed
// cycle keeps the previous data and marks the snapshot as failed.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.nextGeneration()
	start := c.opts.Clock()
	l := c.logger.With(zap.Uint64("generation", gen))
	l.Debug("Refresh started")

	res, err := c.load(ctx)

	var outcome string
	if ctx.Err() != nil {
		outcome = models.OutcomeSuperseded
	} else {
		outcome = c.publish(gen, res, err)
	}

	c.record(context.WithoutCancel(ctx), gen, start, res, err, outcome)

	switch outcome {
	case models.OutcomeSuperseded:
		l.Info("Refresh discarded, a newer cycle owns the page")
		return ErrSuperseded
	case models.OutcomeFailed:
		return err
	}

	l.Info("Refresh complete",
		zap.Int("offers", len(res.orderbook.Data)),
		zap.Int("pairs", len(res.pairs.Data)),
		zap.String("status", res.status.Status),
		zap.Int("fallbacks", len(res.fallbacks)),
	)
	return nil
}

func (c *Controller) nextGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// load fetches the three endpoints concurrently and joins them.
func (c *Controller) load(ctx context.Context) (*cycleResult, error) {
	var (
		status orderbook.Result[*models.Status]
		offers orderbook.Result[*models.OrderbookResponse]
		pairs  orderbook.Result[*models.PairsResponse]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() (err error) {
		status, err = c.source.FetchStatus(gctx)
		return err
	}))
	g.Go(guard(func() (err error) {
		offers, err = c.source.FetchOrderbook(gctx)
		return err
	}))
	g.Go(guard(func() (err error) {
		pairs, err = c.source.FetchPairs(gctx)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if status.Value == nil || offers.Value == nil || pairs.Value == nil {
		return nil, errors.New("refresh aborted: source returned no data")
	}

	res := &cycleResult{status: status.Value, orderbook: offers.Value, pairs: pairs.Value}
	if status.Fallback {
		res.fallbacks = append(res.fallbacks, orderbook.EndpointStatus)
	}
	if offers.Fallback {
		res.fallbacks = append(res.fallbacks, orderbook.EndpointOrderbook)
	}
	if pairs.Fallback {
		res.fallbacks = append(res.fallbacks, orderbook.EndpointPairs)
	}
	return res, nil
}

// guard turns a panic in fn into an error so one bad fetch aborts only its cycle.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("refresh aborted: %v", r)
			}
		}()
		return fn()
	}
}

// publish applies a finished cycle to the shared state if gen is still the
// newest issued generation.
func (c *Controller) publish(gen uint64, res *cycleResult, err error) string {
	c.mu.Lock()
	if gen != c.issued {
		c.mu.Unlock()
		return models.OutcomeSuperseded
	}

	now := c.opts.Clock()
	if err != nil {
		c.snapshot.Failed = true
		c.mu.Unlock()
		c.notify(Event{Type: EventError, Generation: gen})
		return models.OutcomeFailed
	}

	offers := res.orderbook.Data
	if offers == nil {
		offers = []models.Offer{}
	}
	pairs := res.pairs.Data
	if pairs == nil {
		pairs = []models.Pair{}
	}
	c.snapshot = Snapshot{
		Status:     res.status,
		Offers:     offers,
		Pairs:      pairs,
		Fallbacks:  res.fallbacks,
		Generation: gen,
		LoadedAt:   now,
	}
	c.pruneSessions(now)
	for _, s := range c.sessions {
		s.store.Load(offers)
	}
	sessions := len(c.sessions)
	c.mu.Unlock()

	c.opts.Metrics.SetSnapshot(len(offers), len(pairs), now)
	c.opts.Metrics.SetSessions(sessions)
	c.notify(Event{Type: EventRefresh, Generation: gen, Status: res.status.Status})
	return models.OutcomeOK
}

func (c *Controller) notify(ev Event) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(ev)
	}
}

func (c *Controller) record(ctx context.Context, gen uint64, start time.Time, res *cycleResult, err error, outcome string) {
	finished := c.opts.Clock()
	c.opts.Metrics.RecordRefresh(outcome, finished.Sub(start))

	if c.opts.Journal == nil {
		return
	}
	rec := &models.RefreshRecord{
		Generation: gen,
		StartedAt:  start,
		FinishedAt: finished,
		Outcome:    outcome,
	}
	if res != nil {
		rec.Status = res.status.Status
		rec.OfferCount = len(res.orderbook.Data)
		rec.PairCount = len(res.pairs.Data)
		names := make([]string, 0, len(res.fallbacks))
		for _, e := range res.fallbacks {
			names = append(names, string(e))
		}
		rec.Fallbacks = strings.Join(names, ",")
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if err := c.opts.Journal.Record(ctx, rec); err != nil {
		c.logger.Warn("Failed to journal refresh", zap.Uint64("generation", gen), zap.Error(err))
	}
}

// Snapshot returns the latest published data.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}
