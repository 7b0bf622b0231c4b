package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"marketboard/internal/models"
)

// Local is the per-process listing cache tier: a size-bounded LRU whose
// entries additionally expire after a fixed TTL. Safe under mixed readers
// and writers; values are copied on the way in and out so callers can
// never alias cached state.
type Local struct {
	ttl     time.Duration
	entries *lru.Cache[string, localEntry]
}

type localEntry struct {
	listings  []models.Listing
	expiresAt time.Time
}

// NewLocal builds a local tier holding at most size keys, each live for ttl.
func NewLocal(size int, ttl time.Duration) (*Local, error) {
	entries, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, err
	}
	return &Local{ttl: ttl, entries: entries}, nil
}

// Get returns a copy of the cached listing set, or false on miss/expiry.
func (c *Local) Get(key string) ([]models.Listing, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return copyListings(e.listings), true
}

// Set stores a copy of the listing set under key.
func (c *Local) Set(key string, listings []models.Listing) {
	c.entries.Add(key, localEntry{
		listings:  copyListings(listings),
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Delete drops the key immediately.
func (c *Local) Delete(key string) {
	c.entries.Remove(key)
}

// Len reports the number of resident entries, expired or not.
func (c *Local) Len() int {
	return c.entries.Len()
}

func copyListings(in []models.Listing) []models.Listing {
	out := make([]models.Listing, len(in))
	copy(out, in)
	for i := range out {
		out[i].Materia = append([]models.Materia(nil), in[i].Materia...)
	}
	return out
}
