// internal/workers/analytics/lead-analytics/models.go
package leadanalytics

// Input selects what to compute: per-lead processing metrics when
// applicationId is set, bidder conversion when bidderId is set. Both may be
// requested in one job.
type Input struct {
	ApplicationID string `json:"applicationId,omitempty"`
	BidderID      string `json:"bidderId,omitempty"`
}

type LeadMetricsOutput struct {
	ApplicationID           string   `json:"applicationId"`
	Status                  string   `json:"status"`
	AuctionWindowSeconds    float64  `json:"auctionWindowSeconds"`
	TimeToFirstOfferSeconds *float64 `json:"timeToFirstOfferSeconds,omitempty"`
	TimeToCompletionSeconds *float64 `json:"timeToCompletionSeconds,omitempty"`
	OfferCount              int      `json:"offerCount"`
	DistinctViewers         int      `json:"distinctViewers"`
}

type BidderConversionOutput struct {
	BidderID       string  `json:"bidderId"`
	ConversionRate float64 `json:"conversionRate"`
}

type Output struct {
	Lead   *LeadMetricsOutput      `json:"lead,omitempty"`
	Bidder *BidderConversionOutput `json:"bidder,omitempty"`
}
