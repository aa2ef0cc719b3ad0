package impl

import (
	"context"
	"strings"
	"time"

	"eduauth/internal/apperr"
	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/service"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

const minPasswordLength = 8

type AuthServiceImpl struct {
	Store     dataStore
	Passwords service.PasswordService
	Sessions  service.SessionService
}

func NewAuthService(st *store.Store, passwords service.PasswordService, sessions service.SessionService) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:     gormStoreAdapter{store: st},
		Passwords: passwords,
		Sessions:  sessions,
	}
}

// Register creates a user and immediately opens a session for it. A taken
// email surfaces as a field error on "email".
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.SignUpRequest, tr dto.Tracking) (*dto.SessionOut, error) {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	platform, ve := validateSignUp(r)
	if ve != nil {
		result = "failure"
		return nil, ve
	}

	email := strings.ToLower(strings.TrimSpace(r.Email))

	var user *domain.User
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		exists, err := tx.Users().ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.NewValidation(apperr.FieldError{
				Field:   "email",
				Message: "user with this email already exists",
			})
		}

		hash, err := a.Passwords.Hash(r.Password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = &domain.User{
			ID:             uuid.New(),
			Name:           r.Name,
			Email:          email,
			Role:           domain.RoleStudent,
			HashedPassword: &hash,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		result = "failure"
		return nil, err
	}

	out, err := a.Sessions.Issue(ctx, user, platform, tr)
	if err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

// Login verifies the password and opens a session. Unknown email and wrong
// password return the same symmetric pair of field errors so callers cannot
// probe which one was wrong.
func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LogInRequest, tr dto.Tracking) (*dto.SessionOut, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	platform, err := domain.ParsePlatform(r.Platform)
	if err != nil {
		result = "failure"
		return nil, apperr.NewValidation(apperr.FieldError{
			Field:   "platform",
			Message: "platform must be one of WEB, IOS, ANDROID",
		})
	}

	badLogin := apperr.NewValidation(
		apperr.FieldError{Field: "email", Message: "user with this email does not exist"},
		apperr.FieldError{Field: "password", Message: "password is incorrect"},
	)

	var user *domain.User
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		u, err := tx.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(r.Email)))
		if err != nil {
			return badLogin
		}
		if u.HashedPassword == nil || !a.Passwords.Verify(r.Password, *u.HashedPassword) {
			return badLogin
		}
		user = u
		return nil
	})
	if err != nil {
		result = "failure"
		return nil, err
	}

	out, err := a.Sessions.Issue(ctx, user, platform, tr)
	if err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

func validateSignUp(r dto.SignUpRequest) (domain.Platform, *apperr.ValidationError) {
	var fieldErrors []apperr.FieldError

	if !strings.Contains(r.Email, "@") {
		fieldErrors = append(fieldErrors, apperr.FieldError{
			Field: "email", Message: "invalid email address",
		})
	}
	if len(r.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, apperr.FieldError{
			Field: "password", Message: "password must be at least 8 characters",
		})
	}
	platform, err := domain.ParsePlatform(r.Platform)
	if err != nil {
		fieldErrors = append(fieldErrors, apperr.FieldError{
			Field: "platform", Message: "platform must be one of WEB, IOS, ANDROID",
		})
	}
	if len(fieldErrors) > 0 {
		return "", apperr.NewValidation(fieldErrors...)
	}
	return platform, nil
}
