package granary

import (
	"fmt"
	"time"
)

// Stats represents cache statistics.
type Stats struct {
	Entries     int           // Total number of persisted attributes
	Keys        uint64        // Total number of keys across all attributes
	TotalSize   int64         // Total stored size in bytes
	OldestEntry time.Duration // Age of the oldest entry
	NewestEntry time.Duration // Age of the newest entry
	Corrupt     []string      // Entries whose header could not be read
}

// Entry describes one persisted attribute.
type Entry struct {
	Name      string
	Schema    uint64
	CreatedAt time.Time
	Keys      uint64
	Size      int64
}

// Stats returns statistics about the persisted attributes.
func (c *Cache) Stats() (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{}
	var oldest, newest time.Time

	err := c.walkEntries(func(e Entry) error {
		stats.Entries++
		stats.Keys += e.Keys
		stats.TotalSize += e.Size

		// Track oldest and newest
		if oldest.IsZero() || e.CreatedAt.Before(oldest) {
			oldest = e.CreatedAt
		}
		if newest.IsZero() || e.CreatedAt.After(newest) {
			newest = e.CreatedAt
		}
		return nil
	}, func(name string, _ error) {
		stats.Corrupt = append(stats.Corrupt, name)
	})
	if err != nil {
		return Stats{}, err
	}

	now := c.now()
	if !oldest.IsZero() {
		stats.OldestEntry = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestEntry = now.Sub(newest)
	}

	return stats, nil
}

// Entries returns a description of every readable persisted attribute, sorted by name.
func (c *Cache) Entries() ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entries []Entry
	err := c.walkEntries(func(e Entry) error {
		entries = append(entries, e)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Entry returns the description of a single persisted attribute.
func (c *Cache) Entry(name string) (Entry, error) {
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}
	exists, err := c.store.Exists(name)
	if err != nil {
		return Entry{}, newError(KindIO, name, err)
	}
	if !exists {
		return Entry{}, &Error{Kind: KindNotFound, Attribute: name}
	}
	return c.readEntryInfo(name)
}

// walkEntries calls fn for each readable entry and bad for each entry whose header is invalid.
func (c *Cache) walkEntries(fn func(Entry) error, bad func(name string, err error)) error {
	names, err := c.store.List()
	if err != nil {
		return newError(KindIO, "", fmt.Errorf("failed to list entries: %w", err))
	}

	for _, name := range names {
		e, err := c.readEntryInfo(name)
		if err != nil {
			// Skip corrupted entries
			if bad != nil {
				bad(name, err)
			}
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// readEntryInfo reads only the header of an entry.
func (c *Cache) readEntryInfo(name string) (Entry, error) {
	r, err := c.store.Open(name)
	if err != nil {
		return Entry{}, newError(KindIO, name, err)
	}
	defer r.Close()

	h, err := readHeader(r)
	if err != nil {
		return Entry{}, newError(KindDeserialize, name, err)
	}

	size, err := c.store.Size(name)
	if err != nil {
		return Entry{}, newError(KindIO, name, err)
	}

	return Entry{
		Name:      name,
		Schema:    h.Schema,
		CreatedAt: h.CreatedAt,
		Keys:      h.Entries,
		Size:      size,
	}, nil
}
