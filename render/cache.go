// ABOUTME: In-memory cache for rendered markup keyed by the sha256 of the source text.
// ABOUTME: Lets the view projection re-render an unchanged event log without reconverting every event.
package render

import (
	"crypto/sha256"
	"html/template"
	"sync"
	"time"
)

// MarkupFunc converts text to safe markup. Markdown satisfies it.
type MarkupFunc func(text string) template.HTML

type cacheEntry struct {
	markup    template.HTML
	createdAt time.Time
}

// Cache wraps a MarkupFunc with a TTL cache. The zero TTL disables expiry.
type Cache struct {
	render  MarkupFunc
	ttl     time.Duration
	now     func() time.Time
	entries map[[sha256.Size]byte]*cacheEntry
	mu      sync.RWMutex
}

// NewCache returns a cache around render. A nil render uses Markdown.
func NewCache(render MarkupFunc, ttl time.Duration) *Cache {
	if render == nil {
		render = Markdown
	}
	return &Cache{
		render:  render,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[[sha256.Size]byte]*cacheEntry),
	}
}

// Markdown returns the cached markup for text, rendering on a miss or after expiry.
func (c *Cache) Markdown(text string) template.HTML {
	if text == "" {
		return ""
	}
	key := sha256.Sum256([]byte(text))

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && !c.expired(entry) {
		return entry.markup
	}

	markup := c.render(text)

	c.mu.Lock()
	c.entries[key] = &cacheEntry{markup: markup, createdAt: c.now()}
	c.mu.Unlock()
	return markup
}

func (c *Cache) expired(e *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.createdAt) >= c.ttl
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including expired ones not yet pruned.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[[sha256.Size]byte]*cacheEntry)
}
