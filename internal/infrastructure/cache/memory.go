package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/totegamma/kycgraph/internal/domain"
)

// Memory keeps summaries in process. It is the default backend and is only
// correct for a single replica.
type Memory struct {
	cache *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{cache: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) GetSummary(ctx context.Context, organizationID string) (domain.OwnershipSummary, bool) {
	x, found := m.cache.Get(key(organizationID))
	if !found {
		return domain.OwnershipSummary{}, false
	}
	s, ok := x.(domain.OwnershipSummary)
	return s, ok
}

func (m *Memory) SetSummary(ctx context.Context, s domain.OwnershipSummary) {
	m.cache.Set(key(s.OrganizationID), s, gocache.DefaultExpiration)
}

func (m *Memory) Invalidate(ctx context.Context, organizationID string) {
	m.cache.Delete(key(organizationID))
}
