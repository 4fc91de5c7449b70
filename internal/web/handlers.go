package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"basicswap-orderbook-go/internal/models"
	"basicswap-orderbook-go/internal/offerbook"
	"basicswap-orderbook-go/internal/orderbook"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie names the cookie carrying the viewer's session id.
const SessionCookie = "orderbook_session"

// sessionID returns the request's session id, issuing a new cookie when the
// request has none or carries a malformed one.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.dash.View(sessionID(w, r))

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, view); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// update applies fn to the caller's session and sends the browser back to the page.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(*offerbook.Store)) {
	s.dash.Update(sessionID(w, r), fn)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	c := offerbook.Constraint{From: r.PostFormValue("from"), To: r.PostFormValue("to")}
	s.update(w, r, func(st *offerbook.Store) { st.SetFilter(c) })
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(st *offerbook.Store) { st.ClearFilters() })
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	field, err := offerbook.ParseField(r.PostFormValue("field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.update(w, r, func(st *offerbook.Store) { st.SortBy(field) })
}

func (s *Server) handlePrevPage(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(st *offerbook.Store) { st.PrevPage() })
}

func (s *Server) handleNextPage(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(st *offerbook.Store) { st.NextPage() })
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.dash.View(sessionID(w, r)))
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status     *models.Status       `json:"status"`
	Generation uint64               `json:"generation"`
	LoadedAt   *time.Time           `json:"loadedAt,omitempty"`
	Failed     bool                 `json:"failed"`
	Fallbacks  []orderbook.Endpoint `json:"fallbacks,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()
	if snap.Status == nil && !snap.Failed {
		http.Error(w, "No data loaded yet", http.StatusServiceUnavailable)
		return
	}
	resp := StatusResponse{
		Status:     snap.Status,
		Generation: snap.Generation,
		Failed:     snap.Failed,
		Fallbacks:  snap.Fallbacks,
	}
	if !snap.LoadedAt.IsZero() {
		resp.LoadedAt = &snap.LoadedAt
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
