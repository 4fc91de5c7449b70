package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"basicswap-orderbook-go/internal/models"
	"basicswap-orderbook-go/internal/offerbook"
	"basicswap-orderbook-go/internal/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// MockSource is a mock implementation of orderbook.Source.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchStatus(ctx context.Context) (orderbook.Result[*models.Status], error) {
	args := m.Called()
	return args.Get(0).(orderbook.Result[*models.Status]), args.Error(1)
}

func (m *MockSource) FetchOrderbook(ctx context.Context) (orderbook.Result[*models.OrderbookResponse], error) {
	args := m.Called()
	return args.Get(0).(orderbook.Result[*models.OrderbookResponse]), args.Error(1)
}

func (m *MockSource) FetchPairs(ctx context.Context) (orderbook.Result[*models.PairsResponse], error) {
	args := m.Called()
	return args.Get(0).(orderbook.Result[*models.PairsResponse]), args.Error(1)
}

// MockJournal is a mock implementation of Journal.
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, rec *models.RefreshRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func expectLiveData(m *MockSource, status *models.Status, offers []models.Offer) {
	m.On("FetchStatus").Return(orderbook.Result[*models.Status]{Value: status}, nil).Once()
	m.On("FetchOrderbook").Return(orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{Data: offers}}, nil).Once()
	m.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: orderbook.FallbackPairs()}, nil).Once()
}

// setupTest creates a controller over a mock source with a fixed clock.
func setupTest(t *testing.T) (*Controller, *MockSource, *recordingNotifier, *fakeClock) {
	source := new(MockSource)
	notifier := &recordingNotifier{}
	clock := &fakeClock{now: fixedNow}
	c := NewController(zap.NewNop(), source, Options{
		Interval:   time.Minute,
		SessionTTL: 10 * time.Minute,
		Location:   time.UTC,
		Notifier:   notifier,
		Clock:      clock.Now,
	})
	return c, source, notifier, clock
}

func rowIDs(c *Controller, session string) []string {
	v := c.View(session)
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.OfferID)
	}
	return out
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	// Arrange
	c, source, notifier, _ := setupTest(t)
	journal := new(MockJournal)
	c.opts.Journal = journal
	expectLiveData(source, &models.Status{Status: "stale", AgeSeconds: 7300, OfferCount: 99}, orderbook.FallbackOffers(fixedNow))
	journal.On("Record", mock.MatchedBy(func(rec *models.RefreshRecord) bool {
		return rec.Generation == 1 && rec.Outcome == models.OutcomeOK && rec.OfferCount == 5 && rec.PairCount == 4 && rec.Fallbacks == ""
	})).Return(nil).Once()

	// Act
	err := c.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	source.AssertExpectations(t)
	journal.AssertExpectations(t)

	snap := c.Snapshot()
	assert.Equal(t, uint64(1), snap.Generation)
	assert.False(t, snap.Failed)
	assert.Len(t, snap.Offers, 5)

	v := c.View("viewer")
	assert.Equal(t, "Data may be outdated (2h)", v.Freshness.Text)
	assert.Equal(t, 99, v.OfferCount, "count comes from the server status")
	assert.Equal(t, []string{"4", "1", "3", "2", "5"}, rowIDs(c, "viewer"))
	assert.False(t, v.Pagination.Visible)

	assert.Equal(t, []Event{{Type: EventRefresh, Generation: 1, Status: "stale"}}, notifier.Events())
}

func TestRefreshRecordsFallbacks(t *testing.T) {
	c, source, _, _ := setupTest(t)
	journal := new(MockJournal)
	c.opts.Journal = journal
	source.On("FetchStatus").Return(orderbook.Result[*models.Status]{Value: orderbook.FallbackStatus(fixedNow), Fallback: true}, nil)
	source.On("FetchOrderbook").Return(orderbook.Result[*models.OrderbookResponse]{Value: orderbook.FallbackOrderbook(fixedNow), Fallback: true}, nil)
	source.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: &models.PairsResponse{}}, nil)
	journal.On("Record", mock.MatchedBy(func(rec *models.RefreshRecord) bool {
		return rec.Fallbacks == "status,orderbook"
	})).Return(errors.New("disk full"))

	err := c.Refresh(context.Background())

	require.NoError(t, err, "a journal failure does not fail the refresh")
	assert.Equal(t, []orderbook.Endpoint{orderbook.EndpointStatus, orderbook.EndpointOrderbook}, c.Snapshot().Fallbacks)
	assert.Equal(t, "No trading pairs available", c.View("v").PairsEmptyText)
	journal.AssertExpectations(t)
}

func TestRefreshFailureKeepsPreviousData(t *testing.T) {
	// Arrange
	c, source, notifier, _ := setupTest(t)
	expectLiveData(source, &models.Status{Status: "fresh"}, orderbook.FallbackOffers(fixedNow))
	require.NoError(t, c.Refresh(context.Background()))

	source.On("FetchStatus").Return(orderbook.Result[*models.Status]{}, errors.New("failed to fetch status: boom")).Once()
	source.On("FetchOrderbook").Return(orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{}}, nil).Once()
	source.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: &models.PairsResponse{}}, nil).Once()

	// Act
	err := c.Refresh(context.Background())

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	snap := c.Snapshot()
	assert.True(t, snap.Failed)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Len(t, snap.Offers, 5)

	v := c.View("viewer")
	assert.Equal(t, "Error loading data", v.Freshness.Text)
	assert.Len(t, v.Rows, 5)

	events := notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)

	// The next good cycle clears the error.
	expectLiveData(source, &models.Status{Status: "fresh"}, nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "Live data", c.View("viewer").Freshness.Text)
	assert.Equal(t, "No offers found", c.View("viewer").EmptyText)
}

type panickingSource struct{ MockSource }

func (p *panickingSource) FetchOrderbook(ctx context.Context) (orderbook.Result[*models.OrderbookResponse], error) {
	panic("malformed offer")
}

func TestRefreshRecoversFromPanic(t *testing.T) {
	source := &panickingSource{}
	source.On("FetchStatus").Return(orderbook.Result[*models.Status]{Value: &models.Status{Status: "fresh"}}, nil)
	source.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: &models.PairsResponse{}}, nil)
	c := NewController(zap.NewNop(), source, Options{Clock: func() time.Time { return fixedNow }})

	err := c.Refresh(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed offer")
	assert.Equal(t, "Error loading data", c.View("v").Freshness.Text)
}

func TestRefreshRejectsMissingData(t *testing.T) {
	c, source, _, _ := setupTest(t)
	source.On("FetchStatus").Return(orderbook.Result[*models.Status]{}, nil)
	source.On("FetchOrderbook").Return(orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{}}, nil)
	source.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: &models.PairsResponse{}}, nil)

	err := c.Refresh(context.Background())

	assert.Error(t, err)
	assert.True(t, c.Snapshot().Failed)
}

// gatedSource blocks the first orderbook fetch until release is closed.
type gatedSource struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	first   []models.Offer
	second  []models.Offer
}

func (g *gatedSource) FetchStatus(ctx context.Context) (orderbook.Result[*models.Status], error) {
	return orderbook.Result[*models.Status]{Value: &models.Status{Status: "fresh"}}, nil
}

func (g *gatedSource) FetchOrderbook(ctx context.Context) (orderbook.Result[*models.OrderbookResponse], error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
		return orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{Data: g.first}}, nil
	}
	return orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{Data: g.second}}, nil
}

func (g *gatedSource) FetchPairs(ctx context.Context) (orderbook.Result[*models.PairsResponse], error) {
	return orderbook.Result[*models.PairsResponse]{Value: &models.PairsResponse{}}, nil
}

func TestStaleCycleDoesNotOverwriteNewer(t *testing.T) {
	// Arrange
	source := &gatedSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		first:   []models.Offer{{OfferID: "old", CoinFrom: "BTC", CoinTo: "XMR"}},
		second:  []models.Offer{{OfferID: "new", CoinFrom: "LTC", CoinTo: "BTC"}},
	}
	c := NewController(zap.NewNop(), source, Options{Clock: func() time.Time { return fixedNow }})

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.Refresh(context.Background()) }()
	<-source.entered

	// Act: a newer cycle completes while the first is still fetching
	require.NoError(t, c.Refresh(context.Background()))
	close(source.release)

	// Assert
	assert.ErrorIs(t, <-firstErr, ErrSuperseded)
	assert.Equal(t, uint64(2), c.Snapshot().Generation)
	assert.Equal(t, []string{"new"}, rowIDs(c, "v"))
}

func TestCancelledCycleDoesNotPublish(t *testing.T) {
	c, source, notifier, _ := setupTest(t)
	source.On("FetchStatus").Return(orderbook.Result[*models.Status]{Value: &models.Status{Status: "fresh"}}, nil)
	source.On("FetchOrderbook").Return(orderbook.Result[*models.OrderbookResponse]{Value: orderbook.FallbackOrderbook(fixedNow), Fallback: true}, nil)
	source.On("FetchPairs").Return(orderbook.Result[*models.PairsResponse]{Value: orderbook.FallbackPairs()}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Refresh(ctx)

	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Zero(t, c.Snapshot().Generation)
	assert.Empty(t, notifier.Events())
}

func TestSessionsAreIndependent(t *testing.T) {
	c, source, _, _ := setupTest(t)
	expectLiveData(source, &models.Status{Status: "fresh"}, orderbook.FallbackOffers(fixedNow))
	require.NoError(t, c.Refresh(context.Background()))

	c.Update("alice", func(s *offerbook.Store) { s.SetFilter(offerbook.Constraint{From: "BTC"}) })

	assert.Equal(t, []string{"1", "5"}, rowIDs(c, "alice"))
	assert.Len(t, rowIDs(c, "bob"), 5)
	assert.Equal(t, 2, c.SessionCount())
}

func TestRefreshReloadsSessionsKeepingFilters(t *testing.T) {
	c, source, _, _ := setupTest(t)
	expectLiveData(source, &models.Status{Status: "fresh"}, orderbook.FallbackOffers(fixedNow))
	require.NoError(t, c.Refresh(context.Background()))
	c.Update("alice", func(s *offerbook.Store) { s.SetFilter(offerbook.Constraint{From: "BTC"}) })

	expectLiveData(source, &models.Status{Status: "fresh"}, []models.Offer{
		{OfferID: "9", CoinFrom: "BTC", CoinTo: "LTC"},
		{OfferID: "10", CoinFrom: "XMR", CoinTo: "BTC"},
	})
	require.NoError(t, c.Refresh(context.Background()))

	v := c.View("alice")
	assert.Equal(t, []string{"9"}, rowIDs(c, "alice"))
	assert.True(t, v.FromOptions[1].Selected, "BTC stays selected")
}

func TestIdleSessionsArePruned(t *testing.T) {
	c, source, _, clock := setupTest(t)
	expectLiveData(source, &models.Status{Status: "fresh"}, nil)
	expectLiveData(source, &models.Status{Status: "fresh"}, nil)

	c.View("idle")
	clock.Advance(5 * time.Minute)
	c.View("active")
	clock.Advance(6 * time.Minute)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.SessionCount(), "idle session expired after 11 minutes")

	clock.Advance(11 * time.Minute)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Zero(t, c.SessionCount())
}

type countingSource struct {
	gatedSource
	refreshes atomic.Int32
}

func (s *countingSource) FetchStatus(ctx context.Context) (orderbook.Result[*models.Status], error) {
	s.refreshes.Add(1)
	return orderbook.Result[*models.Status]{Value: &models.Status{Status: "fresh"}}, nil
}

func (s *countingSource) FetchOrderbook(ctx context.Context) (orderbook.Result[*models.OrderbookResponse], error) {
	return orderbook.Result[*models.OrderbookResponse]{Value: &models.OrderbookResponse{}}, nil
}

func TestRunRefreshesOnTicks(t *testing.T) {
	source := &countingSource{}
	c := NewController(zap.NewNop(), source, Options{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return source.refreshes.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NotZero(t, c.Snapshot().Generation)
}

func TestConcurrentViewsAndRefreshes(t *testing.T) {
	source := &countingSource{}
	c := NewController(zap.NewNop(), source, Options{Clock: func() time.Time { return fixedNow }})
	require.NoError(t, c.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"alice", "bob"}[i%2]
			for j := 0; j < 50; j++ {
				c.Update(id, func(s *offerbook.Store) { s.SortBy(offerbook.FieldRate) })
				v := c.View(id)
				assert.Equal(t, "Live data", v.Freshness.Text)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, c.Refresh(context.Background()))
	}
	wg.Wait()

	assert.Equal(t, 2, c.SessionCount())
}
