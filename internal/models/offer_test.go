package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshal(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Amount
		expectError bool
	}{
		{name: "String", input: `"0.5"`, expected: "0.5"},
		{name: "Number keeps literal", input: `0.00001`, expected: "0.00001"},
		{name: "Null", input: `null`, expected: ""},
		{name: "Object", input: `{}`, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tc.input), &a)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, a)
		})
	}
}

func TestOrderbookResponseDecode(t *testing.T) {
	body := `{"data":[{"offerId":"7","coinFrom":"BTC","coinTo":"XMR","amountFrom":"0.5","amountTo":85.5,"rate":"171","minSwap":"0.01"}],"meta":{"offerCount":1}}`

	var resp OrderbookResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	require.Len(t, resp.Data, 1)
	offer := resp.Data[0]
	assert.Equal(t, "BTC-XMR", offer.Label())
	assert.Equal(t, Amount("85.5"), offer.AmountTo)
	assert.Zero(t, offer.ExpiresAt, "missing expiry decodes as zero")
	assert.Equal(t, 1, resp.Meta.OfferCount)
}

func TestAmountFloat64(t *testing.T) {
	testCases := []struct {
		name     string
		input    Amount
		expected float64
		ok       bool
	}{
		{name: "Decimal", input: "0.5", expected: 0.5, ok: true},
		{name: "Padded", input: " 171 ", expected: 171, ok: true},
		{name: "Overflow", input: "1e10000000", expected: math.Inf(1), ok: true},
		{name: "Negative overflow", input: "-1e10000000", expected: math.Inf(-1), ok: true},
		{name: "Underflow", input: "1e-10000000", expected: 0, ok: true},
		{name: "Empty", input: "", ok: false},
		{name: "Text", input: "abc", ok: false},
		{name: "NaN", input: "NaN", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := tc.input.Float64()
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, f)
			}
		})
	}
}

func TestFractionalIntegersAreFloored(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{name: "Integer", input: `1760529600000`, expected: 1760529600000},
		{name: "Fraction", input: `1760529600000.75`, expected: 1760529600000},
		{name: "Negative fraction", input: `-1.5`, expected: -2},
		{name: "Exponent", input: `1.5e3`, expected: 1500},
		{name: "Numeric string", input: `"42.9"`, expected: 42},
		{name: "Null", input: `null`, expected: 0},
		{name: "Too large", input: `1e30`, expected: math.MaxInt64},
		{name: "Text", input: `"soon"`, expectError: true},
		{name: "Boolean", input: `true`, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var o Offer
			err := json.Unmarshal([]byte(`{"offerId":"1","expiresAt":`+tc.input+`}`), &o)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1", o.OfferID)
			assert.Equal(t, tc.expected, o.ExpiresAt)
		})
	}
}

func TestStatusDecodeWithFractionalAge(t *testing.T) {
	body := `{"status":"stale","lastSyncAt":"2026-10-15T10:00:00Z","ageSeconds":7300.6,"offerCount":12}`

	var s Status
	require.NoError(t, json.Unmarshal([]byte(body), &s))

	assert.Equal(t, Status{Status: StatusStale, LastSyncAt: "2026-10-15T10:00:00Z", AgeSeconds: 7300, OfferCount: 12}, s)
}
