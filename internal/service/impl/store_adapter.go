package impl

import (
	"context"
	"errors"

	"eduauth/internal/domain"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

// Narrow store contracts the services depend on. The GORM-backed store
// satisfies them through the adapters below; tests substitute an in-memory
// implementation.

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Users() userStore
	Sessions() sessionStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	// GetByTokenPairForUpdate locks the matching row for the duration of the
	// enclosing transaction so concurrent refreshes of the same pair
	// serialize instead of both rotating.
	GetByTokenPairForUpdate(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore { return g.tx.Users() }

func (g gormTxAdapter) Sessions() sessionStore { return g.tx.Sessions() }
