// internal/workers/application/record-view/models.go
package recordview

type Input struct {
	ApplicationID string `json:"applicationId"`
	ViewerID      string `json:"viewerId"`
}

type Output struct {
	ApplicationID   string `json:"applicationId"`
	ViewerID        string `json:"viewerId"`
	FirstView       bool   `json:"firstView"`
	DistinctViewers int    `json:"distinctViewers"`
}
