package service

import (
	"context"
	"sync"
	"time"

	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/models"
	"github.com/rs/zerolog"
)

// DefaultDomains is the built-in domain catalog, installed by the seed
// routine and used as the degraded fallback when the domains collection
// is unreachable or empty.
var DefaultDomains = []models.Domain{
	{ID: "T", Name: "Technology", Question: "Is AI deepening social stratification?", YesLabel: "Deepening it", NoLabel: "Democratizing access", SortOrder: 1, Active: true},
	{ID: "P", Name: "Politics", Question: "Are democratic institutions failing?", YesLabel: "Failing", NoLabel: "Still working", SortOrder: 2, Active: true},
	{ID: "H", Name: "History", Question: "Is our civilization in decline?", YesLabel: "In decline", NoLabel: "Just adjusting", SortOrder: 3, Active: true},
	{ID: "Φ", Name: "Philosophy", Question: "Is algorithmic optimization eroding free will?", YesLabel: "Eroding it", NoLabel: "Just a tool", SortOrder: 4, Active: true},
	{ID: "R", Name: "Religion", Question: "Is technology becoming a new religion?", YesLabel: "Replacing it", NoLabel: "Just a tool", SortOrder: 5, Active: true},
	{ID: "F", Name: "Finance", Question: "Is finance widening social divides?", YesLabel: "Widening them", NoLabel: "Repairable", SortOrder: 6, Active: true},
}

// DomainCache holds the active domain code set with a TTL. Staleness up
// to the TTL is acceptable; Invalidate forces a reload on next use.
type DomainCache struct {
	store docstore.Store
	ttl   time.Duration
	log   zerolog.Logger

	mu        sync.Mutex
	codes     []string
	expiresAt time.Time
}

// NewDomainCache creates a cache over the domains collection.
func NewDomainCache(store docstore.Store, ttl time.Duration, log zerolog.Logger) *DomainCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DomainCache{
		store: store,
		ttl:   ttl,
		log:   log.With().Str("component", "domain_cache").Logger(),
	}
}

// ActiveCodes returns the active domain codes, refreshing from the store
// at most once per TTL. Store failures fall back to the last good value,
// then to the built-in catalog.
func (c *DomainCache) ActiveCodes(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.expiresAt) && len(c.codes) > 0 {
		return c.codes
	}

	filter := docstore.Filter{}.Eq("active", "true")
	order := []docstore.Order{{Field: "sort_order"}}
	docs, err := c.store.FindWhere(ctx, models.CollectionDomains, filter, order, 0, 0)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to load active domains, using fallback")
		if len(c.codes) > 0 {
			return c.codes
		}
		return defaultDomainCodes()
	}

	codes := make([]string, 0, len(docs))
	for _, d := range docs {
		codes = append(codes, d.ID)
	}
	if len(codes) == 0 {
		// freshly provisioned deployment before the seed ran
		codes = defaultDomainCodes()
	}

	c.codes = codes
	c.expiresAt = time.Now().Add(c.ttl)
	return c.codes
}

// Invalidate drops the cached value so the next read reloads.
func (c *DomainCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = time.Time{}
	c.codes = nil
}

func defaultDomainCodes() []string {
	codes := make([]string, 0, len(DefaultDomains))
	for _, d := range DefaultDomains {
		codes = append(codes, d.ID)
	}
	return codes
}
