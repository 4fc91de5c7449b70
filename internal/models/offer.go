package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a decimal value carried as its literal text.
// The API sends decimal strings; a bare JSON number is accepted as well.
type Amount string

// UnmarshalJSON accepts `"0.5"`, `0.5` and `null`.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a string or number: %w", err)
		}
		*a = Amount(n.String())
		return nil
	}
}

// Float64 parses the amount as a float. Values beyond the float64 range
// become ±Inf and values below it become 0. ok is false when the text is not
// a number.
func (a Amount) Float64() (f float64, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(a)), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// wholeNumber decodes a JSON number, or a numeric string, rounded down to an
// integer. null decodes as 0.
type wholeNumber int64

func (w *wholeNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*w = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return fmt.Errorf("expected a number, got %s", data)
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if i, err := n.Int64(); err == nil {
		*w = wholeNumber(i)
		return nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) || math.IsNaN(f) {
		return fmt.Errorf("expected a number, got %s", data)
	}
	f = math.Floor(f)
	switch {
	case f >= math.MaxInt64:
		*w = math.MaxInt64
	case f <= math.MinInt64:
		*w = math.MinInt64
	default:
		*w = wholeNumber(f)
	}
	return nil
}

// Offer is one advertised trade between two assets.
// Offers are snapshots; nothing modifies them after ingestion.
type Offer struct {
	OfferID    string `json:"offerId"`
	CoinFrom   string `json:"coinFrom"`
	CoinTo     string `json:"coinTo"`
	AmountFrom Amount `json:"amountFrom"`
	AmountTo   Amount `json:"amountTo"`
	Rate       Amount `json:"rate"`
	MinSwap    Amount `json:"minSwap"`
	ExpiresAt  int64  `json:"expiresAt"` // epoch milliseconds, 0 when missing
}

// UnmarshalJSON decodes an offer, flooring a fractional expiresAt.
func (o *Offer) UnmarshalJSON(data []byte) error {
	type plain Offer
	aux := struct {
		*plain
		ExpiresAt wholeNumber `json:"expiresAt"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.ExpiresAt = int64(aux.ExpiresAt)
	return nil
}

// Label returns the "FROM-TO" pair label of the offer.
func (o Offer) Label() string {
	return o.CoinFrom + "-" + o.CoinTo
}

// OrderbookMeta is the metadata block of the orderbook response.
type OrderbookMeta struct {
	LastSyncAt string `json:"lastSyncAt"`
	OfferCount int    `json:"offerCount"`
}

// OrderbookResponse is the body of GET /v1/orderbook.
type OrderbookResponse struct {
	Data []Offer       `json:"data"`
	Meta OrderbookMeta `json:"meta"`
}
