package presenter

import (
	"slices"
	"strconv"
	"time"

	"basicswap-orderbook-go/internal/models"
	"basicswap-orderbook-go/internal/offerbook"
)

const (
	allCoinsLabel  = "All Coins"
	noOffersText   = "No offers found"
	noPairsText    = "No trading pairs available"
	connectingText = "Connecting..."
	liveText       = "Live data"

	// ErrorText replaces the freshness text when a refresh cycle aborts.
	ErrorText = "Error loading data"
)

var columnLabels = map[offerbook.Field]string{
	offerbook.FieldPair:       "Pair",
	offerbook.FieldAmountFrom: "Amount",
	offerbook.FieldRate:       "Rate",
	offerbook.FieldMinSwap:    "Min Swap",
	offerbook.FieldExpiresAt:  "Expires",
}

// Input is everything a view is rendered from.
type Input struct {
	Status   *models.Status // nil before the first refresh
	Failed   bool           // the latest refresh cycle aborted
	Store    *offerbook.Store
	Pairs    []models.Pair
	Location *time.Location // for the last-updated clock; UTC when nil
}

// Freshness is the banner describing how old the data is.
type Freshness struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// SelectOption is one entry of an asset filter selector.
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Column is a sortable table header.
type Column struct {
	Field     offerbook.Field     `json:"field"`
	Label     string              `json:"label"`
	Active    bool                `json:"active"`
	Direction offerbook.Direction `json:"direction,omitempty"`
}

// OfferRow is one rendered table row.
type OfferRow struct {
	OfferID  string `json:"offerId"`
	CoinFrom string `json:"coinFrom"`
	CoinTo   string `json:"coinTo"`
	Amount   string `json:"amount"`
	Rate     string `json:"rate"`
	MinSwap  string `json:"minSwap"`
	Expiry   string `json:"expiry"`
}

// PairCard is one rendered trading pair.
type PairCard struct {
	Name       string `json:"name"`
	OfferCount string `json:"offerCount"`
	AvgRate    string `json:"avgRate"`
	Range      string `json:"range"`
}

// Pagination describes the page controls.
type Pagination struct {
	Visible      bool   `json:"visible"`
	Label        string `json:"label,omitempty"`
	Page         int    `json:"page"`
	PageCount    int    `json:"pageCount"`
	PrevDisabled bool   `json:"prevDisabled"`
	NextDisabled bool   `json:"nextDisabled"`
}

// View is the complete renderable page state.
type View struct {
	Freshness      Freshness      `json:"freshness"`
	OfferCount     int            `json:"offerCount"`
	LastUpdated    string         `json:"lastUpdated"`
	FromOptions    []SelectOption `json:"fromOptions"`
	ToOptions      []SelectOption `json:"toOptions"`
	FiltersActive  bool           `json:"filtersActive"`
	Columns        []Column       `json:"columns"`
	Rows           []OfferRow     `json:"rows"`
	EmptyText      string         `json:"emptyText,omitempty"`
	Pagination     Pagination     `json:"pagination"`
	Pairs          []PairCard     `json:"pairs"`
	PairsEmptyText string         `json:"pairsEmptyText,omitempty"`
}

// Build renders in as of now. It reads in and never modifies it.
func Build(in Input, now time.Time) View {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	store := in.Store
	if store == nil {
		store = offerbook.NewStore()
	}
	state := store.State()

	v := View{
		Freshness:     freshness(in.Status, in.Failed),
		LastUpdated:   "--",
		FromOptions:   selectOptions(store.Options().From, state.Filter.From),
		ToOptions:     selectOptions(store.Options().To, state.Filter.To),
		FiltersActive: !state.Filter.IsZero(),
		Columns:       columns(state.Sort),
		Rows:          rows(store.Visible(), now),
		Pagination:    pagination(state.Page.Page, store.PageCount()),
		Pairs:         pairCards(in.Pairs),
	}
	if in.Status != nil {
		v.OfferCount = in.Status.OfferCount
		v.LastUpdated = FormatClock(in.Status.LastSyncAt, loc)
	}
	if len(v.Rows) == 0 {
		v.EmptyText = noOffersText
	}
	if len(v.Pairs) == 0 {
		v.PairsEmptyText = noPairsText
	}
	return v
}

func freshness(status *models.Status, failed bool) Freshness {
	var f Freshness
	if status == nil {
		f.Text = connectingText
	} else {
		f.Class = status.Status
		switch status.Status {
		case models.StatusFresh:
			f.Text = liveText
		case models.StatusRecent:
			f.Text = "Data is " + FormatAge(status.AgeSeconds) + " old"
		case models.StatusStale:
			f.Text = "Data may be outdated (" + FormatAge(status.AgeSeconds) + ")"
		default:
			f.Text = connectingText
		}
	}
	if failed {
		f.Text = ErrorText
	}
	return f
}

// selectOptions lists "All Coins" and the options. A selection that is not
// among the options is still listed so the viewer sees what is applied.
func selectOptions(options []string, selected string) []SelectOption {
	out := make([]SelectOption, 0, len(options)+2)
	out = append(out, SelectOption{Value: "", Label: allCoinsLabel, Selected: selected == ""})
	for _, o := range options {
		out = append(out, SelectOption{Value: o, Label: o, Selected: o == selected})
	}
	if selected != "" && !slices.Contains(options, selected) {
		out = append(out, SelectOption{Value: selected, Label: selected, Selected: true})
	}
	return out
}

func columns(s offerbook.SortState) []Column {
	out := make([]Column, 0, len(offerbook.Columns))
	for _, f := range offerbook.Columns {
		c := Column{Field: f, Label: columnLabels[f]}
		if f == s.Field {
			c.Active = true
			c.Direction = s.Direction
		}
		out = append(out, c)
	}
	return out
}

func rows(offers []models.Offer, now time.Time) []OfferRow {
	out := make([]OfferRow, 0, len(offers))
	for _, o := range offers {
		out = append(out, OfferRow{
			OfferID:  o.OfferID,
			CoinFrom: o.CoinFrom,
			CoinTo:   o.CoinTo,
			Amount:   FormatFixed(o.AmountFrom, 4) + " " + o.CoinFrom,
			Rate:     FormatAmountPrecision(o.Rate, 4),
			MinSwap:  FormatFixed(o.MinSwap, 4) + " " + o.CoinFrom,
			Expiry:   FormatExpiry(o.ExpiresAt, now),
		})
	}
	return out
}

func pairCards(pairs []models.Pair) []PairCard {
	out := make([]PairCard, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, PairCard{
			Name:       p.Pair,
			OfferCount: strconv.Itoa(p.OfferCount) + " offers",
			AvgRate:    FormatPrecision(p.AvgRate, 4),
			Range:      FormatPrecision(p.MinRate, 3) + " - " + FormatPrecision(p.MaxRate, 3),
		})
	}
	return out
}

func pagination(page, pageCount int) Pagination {
	if pageCount <= 1 {
		return Pagination{Page: page, PageCount: pageCount}
	}
	return Pagination{
		Visible:      true,
		Label:        "Page " + strconv.Itoa(page) + " of " + strconv.Itoa(pageCount),
		Page:         page,
		PageCount:    pageCount,
		PrevDisabled: page == 1,
		NextDisabled: page == pageCount,
	}
}
