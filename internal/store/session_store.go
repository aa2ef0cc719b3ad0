package store

import (
	"context"
	"errors"

	"eduauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{db: s.DB} }

func (ss *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	return ss.db.WithContext(ctx).Create(sess).Error
}

func (ss *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var sess domain.Session
	if err := ss.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (ss *SessionStore) GetByAccessToken(ctx context.Context, accessToken string) (*domain.Session, error) {
	var sess domain.Session
	if err := ss.db.WithContext(ctx).First(&sess, "access_token = ?", accessToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// GetByTokenPairForUpdate locates the session holding exactly this token pair
// and takes a row lock. Must run inside WithTx: the lock is what serializes
// two refresh calls racing on the same pair, so only the first one rotates.
func (ss *SessionStore) GetByTokenPairForUpdate(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	var sess domain.Session
	err := ss.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sess, "access_token = ? AND refresh_token = ?", accessToken, refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Delete removes the session row. Deleting an absent row is not an error.
func (ss *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return ss.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Session{}).Error
}

func (ss *SessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tx := ss.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}
