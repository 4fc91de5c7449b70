package offerbook

import (
	"slices"

	"basicswap-orderbook-go/internal/models"
)

// Constraint selects offers by asset. An empty field means no constraint.
type Constraint struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsZero reports whether the constraint matches every offer.
func (c Constraint) IsZero() bool {
	return c.From == "" && c.To == ""
}

// Matches reports whether the offer satisfies both sides of the constraint.
func (c Constraint) Matches(o models.Offer) bool {
	if c.From != "" && o.CoinFrom != c.From {
		return false
	}
	if c.To != "" && o.CoinTo != c.To {
		return false
	}
	return true
}

// Options are the selectable asset codes, each sorted ascending.
type Options struct {
	From []string `json:"from"`
	To   []string `json:"to"`
}

// DeriveOptions returns the distinct source and destination assets of all.
func DeriveOptions(all []models.Offer) Options {
	from := make(map[string]struct{})
	to := make(map[string]struct{})
	for _, o := range all {
		if o.CoinFrom != "" {
			from[o.CoinFrom] = struct{}{}
		}
		if o.CoinTo != "" {
			to[o.CoinTo] = struct{}{}
		}
	}
	return Options{From: sortedKeys(from), To: sortedKeys(to)}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Apply returns a new slice with the offers of all that match c, in order.
func Apply(all []models.Offer, c Constraint) []models.Offer {
	filtered := make([]models.Offer, 0, len(all))
	for _, o := range all {
		if c.Matches(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
