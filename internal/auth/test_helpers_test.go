package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/toyloft/backend-toyloft/internal/db"
)

var errNotFound = errors.New("no rows in result set")

type fakeStore struct {
	mu              sync.Mutex
	usersByEmail    map[string]db.User
	usersByID       map[string]db.User
	sessionsByToken map[string]db.Session
	sessionsByID    map[string]db.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		usersByEmail:    make(map[string]db.User),
		usersByID:       make(map[string]db.User),
		sessionsByToken: make(map[string]db.Session),
		sessionsByID:    make(map[string]db.Session),
	}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func (f *fakeStore) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.usersByEmail[arg.Email]; exists {
		return db.User{}, errors.New("duplicate email")
	}
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	u := db.User{
		ID:           pgUUID(uuid.New()),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Roles:        arg.Roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.usersByEmail[u.Email] = u
	f.usersByID[uuidString(u.ID)] = u
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.usersByEmail[email]
	if !ok {
		return db.User{}, errNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.usersByID[uuidString(id)]
	if !ok {
		return db.User{}, errNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateSession(_ context.Context, arg db.CreateSessionParams) (db.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := db.Session{
		ID:        pgUUID(uuid.New()),
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		UserAgent: arg.UserAgent,
		IP:        arg.IP,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.sessionsByToken[s.TokenHash] = s
	f.sessionsByID[uuidString(s.ID)] = s
	return s, nil
}

func (f *fakeStore) GetSessionByTokenHash(_ context.Context, tokenHash string) (db.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessionsByToken[tokenHash]
	if !ok || s.RevokedAt.Valid {
		return db.Session{}, errNotFound
	}
	return s, nil
}

func (f *fakeStore) RotateSessionToken(_ context.Context, arg db.RotateSessionTokenParams) (db.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessionsByID[uuidString(arg.ID)]
	if !ok || s.RevokedAt.Valid {
		return db.Session{}, errNotFound
	}
	delete(f.sessionsByToken, s.TokenHash)
	s.TokenHash = arg.TokenHash
	s.ExpiresAt = arg.ExpiresAt
	f.sessionsByToken[s.TokenHash] = s
	f.sessionsByID[uuidString(s.ID)] = s
	return s, nil
}

func (f *fakeStore) RevokeSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessionsByToken[tokenHash]
	if !ok {
		return nil
	}
	s.RevokedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	f.sessionsByToken[tokenHash] = s
	f.sessionsByID[uuidString(s.ID)] = s
	return nil
}

func newTestService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:           store,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "backend-toyloft",
		Audience:        "toyloft-frontend",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
