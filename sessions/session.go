// Package sessions stores the bounded recording periods during which edits
// to a project are accumulated as ordered deltas.
package sessions

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Session is one recording period for a project. Exactly one session per
// project is open at a time; closing it and opening the next one is a
// session boundary.
type Session struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	// Head is the repository HEAD ref at the time the session started.
	Head string `json:"head,omitempty"`
	Open bool   `json:"open"`
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
