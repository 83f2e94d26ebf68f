// internal/models/document.go
package models

// DocumentRef is an opaque reference into the external document store. The
// engine persists the reference verbatim and never dereferences the content
// handle.
type DocumentRef struct {
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	ContentHandle string `json:"contentHandle"`
}
