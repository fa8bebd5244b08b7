package cache

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type Memcache struct {
	client *memcache.Client
	ttl    time.Duration
	log    *log.Logger
}

func NewMemcache(client *memcache.Client, ttl time.Duration, l *log.Logger) *Memcache {
	return &Memcache{client: client, ttl: ttl, log: l.WithPrefix("cache")}
}

func (m *Memcache) GetSummary(ctx context.Context, organizationID string) (domain.OwnershipSummary, bool) {
	item, err := m.client.Get(key(organizationID))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			m.log.Warn("summary lookup failed", "organization", organizationID, "err", err)
		}
		return domain.OwnershipSummary{}, false
	}
	return decode(item.Value)
}

func (m *Memcache) SetSummary(ctx context.Context, s domain.OwnershipSummary) {
	raw, err := encode(s)
	if err != nil {
		m.log.Warn("summary encode failed", "organization", s.OrganizationID, "err", err)
		return
	}
	err = m.client.Set(&memcache.Item{
		Key:        key(s.OrganizationID),
		Value:      raw,
		Expiration: int32(m.ttl / time.Second),
	})
	if err != nil {
		m.log.Warn("summary store failed", "organization", s.OrganizationID, "err", err)
	}
}

func (m *Memcache) Invalidate(ctx context.Context, organizationID string) {
	err := m.client.Delete(key(organizationID))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		m.log.Error("summary invalidation failed", "organization", organizationID, "err", err)
	}
}
