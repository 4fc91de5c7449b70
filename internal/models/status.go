package models

import "encoding/json"

// Sync status categories reported by the API.
const (
	StatusFresh  = "fresh"
	StatusRecent = "recent"
	StatusStale  = "stale"
)

// Status is the sync status snapshot from GET /sync/status.
// OfferCount is what the server reports and may differ from the fetched offers.
type Status struct {
	Status     string `json:"status"`
	LastSyncAt string `json:"lastSyncAt"`
	AgeSeconds int64  `json:"ageSeconds"`
	OfferCount int    `json:"offerCount"`
}

// UnmarshalJSON decodes a status, flooring a fractional ageSeconds.
func (s *Status) UnmarshalJSON(data []byte) error {
	type plain Status
	aux := struct {
		*plain
		AgeSeconds wholeNumber `json:"ageSeconds"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.AgeSeconds = int64(aux.AgeSeconds)
	return nil
}
