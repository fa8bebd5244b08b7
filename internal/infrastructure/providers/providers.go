package providers

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/config"
	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/cache"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/metrics"
	"github.com/totegamma/kycgraph/internal/infrastructure/repository"
	"github.com/totegamma/kycgraph/internal/usecase"
)

// NewDatabase opens a Postgres connection using the configured DSN.
func NewDatabase(conf config.Server, l *log.Logger) (*gorm.DB, error) {
	return database.NewPostgres(conf.PostgresDsn, l)
}

// MigrateDatabase applies the embedded schema migrations.
func MigrateDatabase(conf config.Server) error {
	return database.Migrate(conf.PostgresDsn)
}

// NewSummaryCache builds the configured ownership summary cache backend.
func NewSummaryCache(ctx context.Context, conf config.Config, l *log.Logger) (usecase.SummaryCache, error) {
	ttl, err := conf.CacheTTL()
	if err != nil {
		return nil, err
	}
	switch conf.Compliance.CacheBackend {
	case config.CacheRedis:
		client := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err := database.PingRedis(ctx, client); err != nil {
			return nil, err
		}
		return cache.NewRedis(client, ttl, l), nil
	case config.CacheMemcached:
		return cache.NewMemcache(database.NewMemcached(conf.Server.MemcachedAddr), ttl, l), nil
	default:
		return cache.NewMemory(ttl), nil
	}
}

func NewMetrics(reg prometheus.Registerer) *metrics.Metrics {
	return metrics.New(reg)
}

// Usecases is every usecase wired against one database handle.
type Usecases struct {
	Subscribers               *usecase.SubscriberUsecase
	Entities                  *usecase.EntityUsecase
	OrganizationRelationships *usecase.RelationshipUsecase
	IndividualRelationships   *usecase.RelationshipUsecase
	EntityRelationships       *usecase.RelationshipUsecase
	Associations              *usecase.AssociationUsecase
	Ownership                 *usecase.OwnershipUsecase
	History                   *usecase.HistoryUsecase
	Analysis                  *usecase.AnalysisUsecase
	Lists                     *usecase.ListUsecase
	CustomFields              *usecase.CustomFieldUsecase
}

func NewUsecases(
	db *gorm.DB,
	summaries usecase.SummaryCache,
	m usecase.Metrics,
	thresholds domain.ControlThresholds,
) Usecases {
	tx := database.NewTransactor(db)
	entities := repository.NewEntityRepository(db)
	history := repository.NewHistoryRepository(db)
	assocs := repository.NewAssociationRepository(db, thresholds)

	return Usecases{
		Subscribers: usecase.NewSubscriberUsecase(repository.NewSubscriberRepository(db)),
		Entities:    usecase.NewEntityUsecase(entities, history, tx),
		OrganizationRelationships: usecase.NewRelationshipUsecase(
			repository.NewOrganizationRelationshipRepository(db), entities, history, tx, m,
		),
		IndividualRelationships: usecase.NewRelationshipUsecase(
			repository.NewIndividualRelationshipRepository(db), entities, history, tx, m,
		),
		EntityRelationships: usecase.NewRelationshipUsecase(
			repository.NewEntityRelationshipRepository(db), entities, history, tx, m,
		),
		Associations: usecase.NewAssociationUsecase(assocs, entities, history, tx, summaries, m, thresholds),
		Ownership:    usecase.NewOwnershipUsecase(assocs, entities, summaries, m, thresholds),
		History:      usecase.NewHistoryUsecase(history, entities),
		Analysis:     usecase.NewAnalysisUsecase(repository.NewAnalysisRepository(db), entities, history, tx),
		Lists:        usecase.NewListUsecase(repository.NewListRepository(db), tx),
		CustomFields: usecase.NewCustomFieldUsecase(repository.NewCustomFieldRepository(db), entities, history, tx),
	}
}
