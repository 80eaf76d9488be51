package item

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DiscussionURLTemplate is the fixed template for an item's discussion page.
// All serializers derive the discussion link from this template.
const DiscussionURLTemplate = "https://news.ycombinator.com/item?id=%s"

// Item is an immutable saved-item record.
// ID is never empty for a persisted record.
type Item struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	SavedAt int64  `json:"saved_at"` // epoch seconds
}

// DisplayTitle returns the title to present for the item, falling back to
// URL and then ID when the title is empty.
func (it Item) DisplayTitle() string {
	if t := strings.TrimSpace(it.Title); t != "" {
		return t
	}
	if it.URL != "" {
		return it.URL
	}
	return it.ID
}

// DiscussionURL returns the discussion-page link for the item.
func (it Item) DiscussionURL() string {
	return fmt.Sprintf(DiscussionURLTemplate, it.ID)
}

// SavedTime returns the saved timestamp as a time.Time in local time.
func (it Item) SavedTime() time.Time {
	return time.Unix(it.SavedAt, 0)
}

// NewID generates a ULID for a locally-saved item that carries no
// upstream story id.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
