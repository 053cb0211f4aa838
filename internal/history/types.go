package history

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/deckstate-core/internal/deckstate"
)

// TrackLoad is one track loaded onto a deck.
type TrackLoad struct {
	// ID is a UUID assigned when the load is recorded.
	ID string `json:"id"`

	// Deck is the 1-based deck number.
	Deck int `json:"deck"`

	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	TrackURI string  `json:"track_uri,omitempty"`
	Source   string  `json:"source,omitempty"`
	BPM      float64 `json:"bpm,omitempty"`
	KeyLabel string  `json:"key,omitempty"`

	// DeviceName is the unit the deck belongs to.
	DeviceName string `json:"device_name,omitempty"`

	// LoadedAt is when the load was observed (UTC).
	LoadedAt time.Time `json:"loaded_at"`
}

// Validate checks the fields a stored row requires.
func (t *TrackLoad) Validate() error {
	if t.Deck < 1 || t.Deck > deckstate.DeckCount {
		return fmt.Errorf("%w: deck %d out of range", ErrInvalidTrackLoad, t.Deck)
	}
	if t.Title == "" && t.Artist == "" {
		return fmt.Errorf("%w: title or artist is required", ErrInvalidTrackLoad)
	}
	return nil
}

// ListOptions filters a history listing.
type ListOptions struct {
	// Deck restricts results to one deck. Zero lists every deck.
	Deck int

	// Limit is the maximum number of rows (default 50, max 200).
	Limit int
}

// Repository stores and retrieves track history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordTrackLoad persists a load, assigning ID and LoadedAt when unset.
	RecordTrackLoad(ctx context.Context, load *TrackLoad) error

	// List returns recent loads, newest first.
	List(ctx context.Context, opts ListOptions) ([]TrackLoad, error)

	// Prune deletes loads older than olderThan and returns the count removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
