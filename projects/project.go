// Package projects maintains the registry of work directories butler watches.
package projects

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Project is one registered git work directory.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Archived  bool      `json:"archived,omitempty"`
}

// newID returns a random 16-hex-character project identifier.
func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
