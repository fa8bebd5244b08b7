package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/kycgraph/internal/domain"
)

// Redis shares summaries between replicas. Cache failures are logged and
// treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *log.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, l *log.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, log: l.WithPrefix("cache")}
}

func (r *Redis) GetSummary(ctx context.Context, organizationID string) (domain.OwnershipSummary, bool) {
	raw, err := r.client.Get(ctx, key(organizationID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("summary lookup failed", "organization", organizationID, "err", err)
		}
		return domain.OwnershipSummary{}, false
	}
	return decode(raw)
}

func (r *Redis) SetSummary(ctx context.Context, s domain.OwnershipSummary) {
	raw, err := encode(s)
	if err != nil {
		r.log.Warn("summary encode failed", "organization", s.OrganizationID, "err", err)
		return
	}
	if err := r.client.Set(ctx, key(s.OrganizationID), raw, r.ttl).Err(); err != nil {
		r.log.Warn("summary store failed", "organization", s.OrganizationID, "err", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, organizationID string) {
	if err := r.client.Del(ctx, key(organizationID)).Err(); err != nil {
		r.log.Error("summary invalidation failed", "organization", organizationID, "err", err)
	}
}
