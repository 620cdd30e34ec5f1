package queue

import "time"

// Track represents a single track in the queue.
// Tracks are immutable once loaded into a session; they are sourced from
// the external catalog and copied by value everywhere.
type Track struct {
	ID         string
	Title      string
	ArtistID   string
	MediaURI   string
	ArtworkURI string
	Duration   time.Duration // zero until the media source reports it
}
