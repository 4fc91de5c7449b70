package offerbook

import (
	"time"

	"basicswap-orderbook-go/internal/models"
	"basicswap-orderbook-go/internal/orderbook"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func mockOffers() []models.Offer {
	return orderbook.FallbackOffers(fixedNow)
}

func ids(offers []models.Offer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.OfferID)
	}
	return out
}

func offersWithIDs(n int) []models.Offer {
	offers := make([]models.Offer, n)
	for i := range offers {
		offers[i] = models.Offer{
			OfferID:   string(rune('a' + i%26)),
			CoinFrom:  "BTC",
			CoinTo:    "XMR",
			ExpiresAt: int64(i + 1),
		}
	}
	return offers
}
