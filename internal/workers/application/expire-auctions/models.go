// internal/workers/application/expire-auctions/models.go
package expireauctions

type Input struct{}

type Output struct {
	ExpiredCount int    `json:"expiredCount"`
	SweptAt      string `json:"sweptAt"` // ISO 8601
}
