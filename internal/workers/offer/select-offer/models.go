// internal/workers/offer/select-offer/models.go
package selectoffer

type Input struct {
	ApplicationID string `json:"applicationId"`
	OfferID       string `json:"offerId"`
	ActorID       string `json:"actorId"`
	ActorRole     string `json:"actorRole"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	SelectedOfferID   string `json:"selectedOfferId"`
}
