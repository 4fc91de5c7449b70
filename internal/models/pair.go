package models

// Pair holds aggregated statistics for one source/destination asset combination.
type Pair struct {
	Pair       string  `json:"pair"`
	CoinFrom   string  `json:"coinFrom"`
	CoinTo     string  `json:"coinTo"`
	OfferCount int     `json:"offerCount"`
	AvgRate    float64 `json:"avgRate"`
	MinRate    float64 `json:"minRate"`
	MaxRate    float64 `json:"maxRate"`
}

// PairsResponse is the body of GET /v1/pairs.
type PairsResponse struct {
	Data []Pair `json:"data"`
}
