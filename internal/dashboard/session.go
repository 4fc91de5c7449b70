package dashboard

import (
	"time"

	"basicswap-orderbook-go/internal/offerbook"
	"basicswap-orderbook-go/internal/presenter"
)

// session is one viewer's table state.
type session struct {
	store    *offerbook.Store
	lastSeen time.Time
}

// sessionLocked returns the session for id, creating it on first use.
// c.mu must be held.
func (c *Controller) sessionLocked(id string, now time.Time) *session {
	s, ok := c.sessions[id]
	if !ok {
		s = &session{store: offerbook.NewStore()}
		s.store.Load(c.snapshot.Offers)
		c.sessions[id] = s
	}
	s.lastSeen = now
	return s
}

// pruneSessions drops sessions idle for longer than the TTL. c.mu must be held.
func (c *Controller) pruneSessions(now time.Time) {
	if c.opts.SessionTTL <= 0 {
		return
	}
	for id, s := range c.sessions {
		if now.Sub(s.lastSeen) > c.opts.SessionTTL {
			delete(c.sessions, id)
		}
	}
}

// View renders the page for session id.
func (c *Controller) View(id string) presenter.View {
	return c.Update(id, nil)
}

// Update applies fn to the session's store and renders the result.
// fn runs under the controller lock and must not block. Rendering works on a
// copy of the store after the lock is released.
func (c *Controller) Update(id string, fn func(*offerbook.Store)) presenter.View {
	now := c.opts.Clock()

	c.mu.Lock()
	s := c.sessionLocked(id, now)
	if fn != nil {
		fn(s.store)
	}
	in := presenter.Input{
		Status:   c.snapshot.Status,
		Failed:   c.snapshot.Failed,
		Store:    s.store.Clone(),
		Pairs:    c.snapshot.Pairs,
		Location: c.opts.Location,
	}
	c.mu.Unlock()

	return presenter.Build(in, now)
}

// SessionCount returns the number of live sessions.
func (c *Controller) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
