package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

func (r *SubscriberRepository) Create(ctx context.Context, s domain.Subscriber) (domain.Subscriber, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m := models.Subscriber{
		ID:           s.ID,
		Username:     s.Username,
		Email:        s.Email,
		Password:     s.PasswordHash,
		Type:         s.Type,
		CompanyName:  ptrOrNil(s.CompanyName),
		Jurisdiction: ptrOrNil(s.Jurisdiction),
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.Subscriber{}, translateError(err, "subscriber")
	}
	return subscriberToDomain(m), nil
}

func (r *SubscriberRepository) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	var m models.Subscriber
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.Subscriber{}, translateError(err, "subscriber")
	}
	return subscriberToDomain(m), nil
}

func (r *SubscriberRepository) CreateUser(ctx context.Context, u domain.SubscriberUser) (domain.SubscriberUser, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m := models.SubscriberUser{
		ID:           u.ID,
		SubscriberID: u.SubscriberID,
		Name:         u.FullName,
		Email:        u.Email,
		Role:         u.Role,
		Password:     u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		CreatedBy:    u.CreatedBy,
	}
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.SubscriberUser{}, translateError(err, "subscriber user")
	}
	return userToDomain(m), nil
}

func (r *SubscriberRepository) GetUser(ctx context.Context, id string) (domain.SubscriberUser, error) {
	var m models.SubscriberUser
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.SubscriberUser{}, translateError(err, "subscriber user")
	}
	return userToDomain(m), nil
}

func (r *SubscriberRepository) GetUserByEmail(ctx context.Context, subscriberID, email string) (domain.SubscriberUser, error) {
	var m models.SubscriberUser
	err := database.Conn(ctx, r.db).
		First(&m, "subscriber_id = ? AND email = ?", subscriberID, email).Error
	if err != nil {
		return domain.SubscriberUser{}, translateError(err, "subscriber user")
	}
	return userToDomain(m), nil
}

func (r *SubscriberRepository) TouchLogin(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Model(&models.SubscriberUser{}).
		Where("id = ?", id).
		Update("last_login", gorm.Expr("NOW()"))
	if res.Error != nil {
		return translateError(res.Error, "subscriber user")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "subscriber user"}
	}
	return nil
}

func subscriberToDomain(m models.Subscriber) domain.Subscriber {
	return domain.Subscriber{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.Password,
		Type:         m.Type,
		CompanyName:  deref(m.CompanyName),
		Jurisdiction: deref(m.Jurisdiction),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToDomain(m models.SubscriberUser) domain.SubscriberUser {
	return domain.SubscriberUser{
		ID:           m.ID,
		SubscriberID: m.SubscriberID,
		Email:        m.Email,
		FullName:     m.Name,
		Role:         m.Role,
		PasswordHash: m.Password,
		IsActive:     m.IsActive,
		LastLogin:    m.LastLogin,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}
