package offerbook

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"basicswap-orderbook-go/internal/models"
	"github.com/shopspring/decimal"
)

// Field is a sortable offer column.
type Field string

const (
	FieldPair       Field = "pair"
	FieldAmountFrom Field = "amountFrom"
	FieldRate       Field = "rate"
	FieldMinSwap    Field = "minSwap"
	FieldExpiresAt  Field = "expiresAt"

	// Raw fields compare by their stored text.
	FieldOfferID  Field = "offerId"
	FieldCoinFrom Field = "coinFrom"
	FieldCoinTo   Field = "coinTo"
	FieldAmountTo Field = "amountTo"
)

// Columns lists the fields the table offers for sorting, in display order.
var Columns = []Field{FieldPair, FieldAmountFrom, FieldRate, FieldMinSwap, FieldExpiresAt}

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortState is the active sort column and direction.
type SortState struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort orders by soonest expiry first.
func DefaultSort() SortState {
	return SortState{Field: FieldExpiresAt, Direction: Asc}
}

// Toggle selects field: the active field flips direction, a new one starts ascending.
func (s SortState) Toggle(field Field) SortState {
	if s.Field == field {
		return SortState{Field: field, Direction: s.Direction.Flip()}
	}
	return SortState{Field: field, Direction: Asc}
}

// ParseField validates a field name coming from a request.
func ParseField(name string) (Field, error) {
	f := Field(name)
	switch f {
	case FieldPair, FieldAmountFrom, FieldRate, FieldMinSwap, FieldExpiresAt,
		FieldOfferID, FieldCoinFrom, FieldCoinTo, FieldAmountTo:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", name)
}

// Sort orders offers in place. Equal keys keep no particular order.
func Sort(offers []models.Offer, s SortState) {
	compare := comparator(s.Field)
	if s.Direction == Desc {
		slices.SortFunc(offers, func(a, b models.Offer) int { return compare(b, a) })
		return
	}
	slices.SortFunc(offers, compare)
}

func comparator(field Field) func(a, b models.Offer) int {
	switch field {
	case FieldPair:
		return func(a, b models.Offer) int { return cmp.Compare(a.Label(), b.Label()) }
	case FieldAmountFrom:
		return func(a, b models.Offer) int { return ParseAmount(a.AmountFrom).Cmp(ParseAmount(b.AmountFrom)) }
	case FieldRate:
		return func(a, b models.Offer) int { return ParseAmount(a.Rate).Cmp(ParseAmount(b.Rate)) }
	case FieldMinSwap:
		return func(a, b models.Offer) int { return ParseAmount(a.MinSwap).Cmp(ParseAmount(b.MinSwap)) }
	case FieldExpiresAt:
		return func(a, b models.Offer) int { return cmp.Compare(a.ExpiresAt, b.ExpiresAt) }
	default:
		return func(a, b models.Offer) int { return cmp.Compare(rawValue(a, field), rawValue(b, field)) }
	}
}

func rawValue(o models.Offer, field Field) string {
	switch field {
	case FieldOfferID:
		return o.OfferID
	case FieldCoinFrom:
		return o.CoinFrom
	case FieldCoinTo:
		return o.CoinTo
	case FieldAmountTo:
		return string(o.AmountTo)
	}
	return ""
}

// AmountKey is the sort key of an amount. Finite amounts compare exactly as
// decimals; amounts beyond the float64 range compare as ±Inf.
type AmountKey struct {
	inf int
	dec decimal.Decimal
}

// ParseAmount returns the sort key of a. Anything unparseable is zero.
func ParseAmount(a models.Amount) AmountKey {
	f, ok := a.Float64()
	switch {
	case !ok || f == 0:
		return AmountKey{}
	case math.IsInf(f, 0):
		return AmountKey{inf: int(math.Copysign(1, f))}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		d = decimal.NewFromFloat(f)
	}
	return AmountKey{dec: d}
}

// Cmp compares two keys like decimal.Decimal.Cmp.
func (k AmountKey) Cmp(o AmountKey) int {
	if k.inf != 0 || o.inf != 0 {
		return cmp.Compare(k.inf, o.inf)
	}
	return k.dec.Cmp(o.dec)
}

// IsZero reports whether the key is zero.
func (k AmountKey) IsZero() bool {
	return k.inf == 0 && k.dec.IsZero()
}
