package orderbook

import (
	"time"

	"basicswap-orderbook-go/internal/models"
)

// FallbackStatus is served when the status endpoint cannot be reached.
func FallbackStatus(now time.Time) *models.Status {
	return &models.Status{
		Status:     models.StatusFresh,
		LastSyncAt: now.UTC().Format(time.RFC3339Nano),
		AgeSeconds: 5,
		OfferCount: 0,
	}
}

// FallbackOffers is the fixed offer set, with expiries relative to now.
func FallbackOffers(now time.Time) []models.Offer {
	ms := now.UnixMilli()
	return []models.Offer{
		{OfferID: "1", CoinFrom: "BTC", CoinTo: "XMR", AmountFrom: "0.5", AmountTo: "85.5", Rate: "171", MinSwap: "0.01", ExpiresAt: ms + 3600000},
		{OfferID: "2", CoinFrom: "LTC", CoinTo: "BTC", AmountFrom: "10", AmountTo: "0.003", Rate: "0.0003", MinSwap: "1", ExpiresAt: ms + 7200000},
		{OfferID: "3", CoinFrom: "XMR", CoinTo: "BTC", AmountFrom: "50", AmountTo: "0.3", Rate: "0.006", MinSwap: "5", ExpiresAt: ms + 5400000},
		{OfferID: "4", CoinFrom: "PART", CoinTo: "BTC", AmountFrom: "1000", AmountTo: "0.01", Rate: "0.00001", MinSwap: "100", ExpiresAt: ms + 1800000},
		{OfferID: "5", CoinFrom: "BTC", CoinTo: "FIRO", AmountFrom: "0.1", AmountTo: "50", Rate: "500", MinSwap: "0.01", ExpiresAt: ms + 9000000},
	}
}

// FallbackOrderbook wraps FallbackOffers in an orderbook response.
func FallbackOrderbook(now time.Time) *models.OrderbookResponse {
	offers := FallbackOffers(now)
	return &models.OrderbookResponse{
		Data: offers,
		Meta: models.OrderbookMeta{
			LastSyncAt: now.UTC().Format(time.RFC3339Nano),
			OfferCount: len(offers),
		},
	}
}

// FallbackPairs is the fixed pair statistics set.
func FallbackPairs() *models.PairsResponse {
	return &models.PairsResponse{Data: []models.Pair{
		{Pair: "BTC-XMR", CoinFrom: "BTC", CoinTo: "XMR", OfferCount: 12, AvgRate: 171.5, MinRate: 168, MaxRate: 175},
		{Pair: "LTC-BTC", CoinFrom: "LTC", CoinTo: "BTC", OfferCount: 8, AvgRate: 0.00032, MinRate: 0.0003, MaxRate: 0.00035},
		{Pair: "XMR-BTC", CoinFrom: "XMR", CoinTo: "BTC", OfferCount: 15, AvgRate: 0.0058, MinRate: 0.0055, MaxRate: 0.006},
		{Pair: "PART-BTC", CoinFrom: "PART", CoinTo: "BTC", OfferCount: 5, AvgRate: 0.00001, MinRate: 0.000009, MaxRate: 0.000012},
	}}
}
