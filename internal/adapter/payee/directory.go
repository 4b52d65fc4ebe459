// Package payee serves payee lookups for the allocation engine.
package payee

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

// CachedDirectory keeps recently read payees in memory. Misses and errors
// are never cached.
type CachedDirectory struct {
	next  usecase.PayeeDirectory
	cache *cache.Cache
}

// NewCachedDirectory wraps next with a cache whose entries live for ttl.
func NewCachedDirectory(next usecase.PayeeDirectory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Get returns the payee, reading through to the wrapped directory.
func (d *CachedDirectory) Get(ctx context.Context, tenantID, payeeID string) (*domain.Payee, error) {
	key := tenantID + "/" + payeeID
	if v, ok := d.cache.Get(key); ok {
		p := *v.(*domain.Payee)
		return &p, nil
	}

	p, err := d.next.Get(ctx, tenantID, payeeID)
	if err != nil {
		return nil, err
	}

	stored := *p
	d.cache.SetDefault(key, &stored)
	return p, nil
}
