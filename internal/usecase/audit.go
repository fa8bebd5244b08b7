package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/totegamma/kycgraph/internal/domain"
)

// historyEntry builds an audit row. changes is marshalled as-is; a value that
// cannot be marshalled is recorded without a payload.
func historyEntry(entityID string, actor domain.Actor, change domain.ChangeType, at time.Time, description string, changes any) domain.HistoryEntry {
	h := domain.HistoryEntry{
		EntityID:          entityID,
		ChangedAt:         at,
		ChangedBy:         actor.UserID,
		ChangeType:        change,
		ChangeDescription: description,
		IPAddress:         actor.IPAddress,
		UserAgent:         actor.UserAgent,
	}
	if changes != nil {
		if raw, err := json.Marshal(changes); err == nil {
			h.Changes = raw
		}
	}
	return h
}

// edgeHistory records change on both endpoints of e.
func edgeHistory(e domain.Edge, actor domain.Actor, change domain.ChangeType, at time.Time, description string) []domain.HistoryEntry {
	changes := map[string]any{
		"kind":             e.Kind,
		"edgeId":           e.ID,
		"relationshipType": e.RelationshipType,
		"primaryId":        e.PrimaryID,
		"relatedId":        e.RelatedID,
	}
	return []domain.HistoryEntry{
		historyEntry(e.PrimaryID, actor, change, at, description, changes),
		historyEntry(e.RelatedID, actor, change, at, description, changes),
	}
}

type endpoint struct {
	field string
	id    string
	want  domain.EntityType
}

// lockEndpoints share-locks both parties of a new edge and checks they belong
// to the actor's tenant, exist, are active and have the expected type.
func lockEndpoints(ctx context.Context, entities EntityRepository, actor domain.Actor, sides ...endpoint) error {
	ids := make([]string, len(sides))
	for i, s := range sides {
		ids[i] = s.id
	}
	parties, err := entities.Lock(ctx, ids...)
	if err != nil {
		return err
	}
	for _, s := range sides {
		e, ok := parties[s.id]
		if !ok || e.SubscriberID != actor.SubscriberID {
			return domain.NotFoundError{Resource: "entity " + s.id}
		}
		if s.want != "" && e.EntityType != s.want {
			return domain.Invalid(s.field, "must reference an entity of type "+string(s.want))
		}
		if !e.IsActive {
			return domain.Invalid(s.field, "entity is inactive")
		}
	}
	return nil
}

// ownedBy reports NotFound unless entityID belongs to the actor's tenant.
func ownedBy(ctx context.Context, entities EntityRepository, actor domain.Actor, entityID string) error {
	e, err := entities.Get(ctx, entityID)
	if err != nil {
		return err
	}
	if e.SubscriberID != actor.SubscriberID {
		return domain.NotFoundError{Resource: "entity"}
	}
	return nil
}
