// Package bookmarks lets users pin a moment in a project's timeline with a
// note. Bookmarks are keyed by project and timestamp and soft-deleted so a
// later sync can reconcile edits made while offline.
package bookmarks

// Bookmark marks a point in time inside a project.
type Bookmark struct {
	ProjectID   string `json:"projectId"`
	TimestampMs int64  `json:"timestampMs"`
	Note        string `json:"note"`
	Deleted     bool   `json:"deleted"`
	UpdatedMs   int64  `json:"updatedMs"`
}
