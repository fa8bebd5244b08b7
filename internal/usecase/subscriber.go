package usecase

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/kycgraph/internal/domain"
)

const minPasswordLength = 8

type CreateSubscriberInput struct {
	Username     string
	Email        string
	Password     string
	Type         string
	CompanyName  string
	Jurisdiction string
}

type RegisterUserInput struct {
	Email    string
	FullName string
	Role     string
	Password string
}

type SubscriberUsecase struct {
	repo SubscriberRepository
	now  func() time.Time
	cost int
}

func NewSubscriberUsecase(repo SubscriberRepository) *SubscriberUsecase {
	return &SubscriberUsecase{repo: repo, now: clock, cost: bcrypt.DefaultCost}
}

func (uc *SubscriberUsecase) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.Invalid("password", "must be at least 8 characters")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return "", domain.Invalid("password", err.Error())
	}
	return string(h), nil
}

func validEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Invalid("email", "malformed address")
	}
	return nil
}

func (uc *SubscriberUsecase) Create(ctx context.Context, in CreateSubscriberInput) (domain.Subscriber, error) {
	ctx, span := tracer.Start(ctx, "Subscriber.Usecase.Create")
	defer span.End()

	if strings.TrimSpace(in.Username) == "" {
		return domain.Subscriber{}, domain.Invalid("username", "required")
	}
	if err := validEmail(in.Email); err != nil {
		return domain.Subscriber{}, err
	}
	if in.Type == "" {
		return domain.Subscriber{}, domain.Invalid("type", "required")
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return domain.Subscriber{}, err
	}

	now := uc.now()
	s, err := uc.repo.Create(ctx, domain.Subscriber{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Type:         in.Type,
		CompanyName:  in.CompanyName,
		Jurisdiction: in.Jurisdiction,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "SubscriberUsecase.Create"))
		return domain.Subscriber{}, err
	}
	return s, nil
}

// RegisterUser adds a user to subscriberID. createdBy is empty for the first
// user of a tenant.
func (uc *SubscriberUsecase) RegisterUser(ctx context.Context, subscriberID, createdBy string, in RegisterUserInput) (domain.SubscriberUser, error) {
	ctx, span := tracer.Start(ctx, "Subscriber.Usecase.RegisterUser")
	defer span.End()

	if err := validEmail(in.Email); err != nil {
		return domain.SubscriberUser{}, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.SubscriberUser{}, domain.Invalid("fullName", "required")
	}
	if in.Role == "" {
		in.Role = "analyst"
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return domain.SubscriberUser{}, err
	}

	s, err := uc.repo.Get(ctx, subscriberID)
	if err != nil {
		return domain.SubscriberUser{}, err
	}
	if !s.IsActive {
		return domain.SubscriberUser{}, domain.Invalid("subscriberId", "subscriber is inactive")
	}

	u := domain.SubscriberUser{
		SubscriberID: subscriberID,
		Email:        strings.ToLower(in.Email),
		FullName:     in.FullName,
		Role:         in.Role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    uc.now(),
	}
	if createdBy != "" {
		u.CreatedBy = &createdBy
	}
	created, err := uc.repo.CreateUser(ctx, u)
	if err != nil {
		span.RecordError(errors.Wrap(err, "SubscriberUsecase.RegisterUser"))
		return domain.SubscriberUser{}, err
	}
	return created, nil
}

func (uc *SubscriberUsecase) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *SubscriberUsecase) GetUser(ctx context.Context, actor domain.Actor, id string) (domain.SubscriberUser, error) {
	u, err := uc.repo.GetUser(ctx, id)
	if err != nil {
		return domain.SubscriberUser{}, err
	}
	if u.SubscriberID != actor.SubscriberID {
		return domain.SubscriberUser{}, domain.NotFoundError{Resource: "subscriber user"}
	}
	return u, nil
}

// Authenticate checks a user's password and records the login.
func (uc *SubscriberUsecase) Authenticate(ctx context.Context, subscriberID, email, password string) (domain.SubscriberUser, error) {
	ctx, span := tracer.Start(ctx, "Subscriber.Usecase.Authenticate")
	defer span.End()

	u, err := uc.repo.GetUserByEmail(ctx, subscriberID, strings.ToLower(email))
	if err != nil {
		return domain.SubscriberUser{}, err
	}
	if !u.IsActive {
		return domain.SubscriberUser{}, domain.Invalid("email", "user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		span.RecordError(errors.Wrap(err, "password mismatch"))
		return domain.SubscriberUser{}, domain.Invalid("password", "does not match")
	}
	if err := uc.repo.TouchLogin(ctx, u.ID); err != nil {
		return domain.SubscriberUser{}, err
	}
	return u, nil
}
