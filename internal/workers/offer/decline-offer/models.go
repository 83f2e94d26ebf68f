// internal/workers/offer/decline-offer/models.go
package declineoffer

type Input struct {
	ApplicationID string `json:"applicationId"`
	OfferID       string `json:"offerId"`
	ActorID       string `json:"actorId"`
	ActorRole     string `json:"actorRole"`
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
}
