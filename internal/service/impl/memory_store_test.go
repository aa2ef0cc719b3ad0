package impl

import (
	"context"
	"errors"
	"strings"
	"sync"

	"eduauth/internal/domain"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

// memoryStore implements the dataStore contract for unit tests. The whole
// WithTx closure runs under one mutex, which mirrors the serializable
// row-locked transaction the real store provides for refresh races.
type memoryStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*domain.User
	emailIndex map[string]uuid.UUID
	sessions   map[uuid.UUID]*domain.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:      make(map[uuid.UUID]*domain.User),
		emailIndex: make(map[string]uuid.UUID),
		sessions:   make(map[uuid.UUID]*domain.Session),
	}
}

type storeSnapshot struct {
	users      map[uuid.UUID]*domain.User
	emailIndex map[string]uuid.UUID
	sessions   map[uuid.UUID]*domain.Session
}

func (m *memoryStore) snapshot() storeSnapshot {
	s := storeSnapshot{
		users:      make(map[uuid.UUID]*domain.User, len(m.users)),
		emailIndex: make(map[string]uuid.UUID, len(m.emailIndex)),
		sessions:   make(map[uuid.UUID]*domain.Session, len(m.sessions)),
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.emailIndex {
		s.emailIndex[k] = v
	}
	for k, v := range m.sessions {
		s.sessions[k] = v
	}
	return s
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.snapshot()
	if err := fn(memoryTx{m}); err != nil {
		m.users = before.users
		m.emailIndex = before.emailIndex
		m.sessions = before.sessions
		return err
	}
	return nil
}

type memoryTx struct{ m *memoryStore }

func (t memoryTx) Users() userStore       { return memUserStore{t.m} }
func (t memoryTx) Sessions() sessionStore { return memSessionStore{t.m} }

type memUserStore struct{ m *memoryStore }

func (s memUserStore) Create(_ context.Context, usr *domain.User) error {
	key := strings.ToLower(usr.Email)
	if _, taken := s.m.emailIndex[key]; taken {
		return errors.New("duplicate email")
	}
	s.m.users[usr.ID] = usr
	s.m.emailIndex[key] = usr.ID
	return nil
}

func (s memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := s.m.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrRecordNotFound
}

func (s memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if id, ok := s.m.emailIndex[strings.ToLower(email)]; ok {
		return s.m.users[id], nil
	}
	return nil, store.ErrRecordNotFound
}

func (s memUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := s.m.emailIndex[strings.ToLower(email)]
	return ok, nil
}

type memSessionStore struct{ m *memoryStore }

func (s memSessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.m.sessions[sess.ID] = sess
	return nil
}

func (s memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	if sess, ok := s.m.sessions[id]; ok {
		return sess, nil
	}
	return nil, store.ErrRecordNotFound
}

func (s memSessionStore) GetByTokenPairForUpdate(_ context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	for _, sess := range s.m.sessions {
		if sess.AccessToken == accessToken && sess.RefreshToken == refreshToken {
			return sess, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (s memSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.m.sessions, id)
	return nil
}

func (s memSessionStore) DeleteAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for id, sess := range s.m.sessions {
		if sess.UserID == userID {
			delete(s.m.sessions, id)
			n++
		}
	}
	return n, nil
}

// test helpers shared across files

func (m *memoryStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memoryStore) addUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.emailIndex[strings.ToLower(u.Email)] = u.ID
}
