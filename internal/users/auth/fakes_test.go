// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/users/auth"
)

// In-memory fakes for the auth storage contracts.
//
// They intentionally keep "physically present but logically dead" states
// reachable: the session fake returns expired rows so tests can prove the
// service never trusts them.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*auth.User)}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) && user.DeletedAt == nil {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Resource already exists")
		}
	}
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.users[user.ID]; ok {
		stored.FirstName = user.FirstName
		stored.LastName = user.LastName
		stored.MiddleName = user.MiddleName
	}
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.users[id]; ok {
		stored.IsActive = active
	}
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.users[id]; ok {
		now := time.Now()
		stored.DeletedAt = &now
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*auth.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

// FindByID deliberately returns expired rows: the real store filters them,
// but the service contract says it must never trust the store to do so.
func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	now := time.Now()
	for id, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeRevocationList() *fakeRevocationList {
	return &fakeRevocationList{revoked: make(map[string]time.Time)}
}

func (f *fakeRevocationList) Record(_ context.Context, uniqueID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.revoked[uniqueID]; exists {
		return nil
	}
	f.revoked[uniqueID] = expiresAt
	return nil
}

func (f *fakeRevocationList) IsRevoked(_ context.Context, uniqueID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiresAt, exists := f.revoked[uniqueID]
	return exists && expiresAt.After(time.Now()), nil
}

// testStack bundles the services most auth tests need.
type testStack struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	revoked  *fakeRevocationList
	tokens   *auth.TokenService
	session  *auth.SessionService
	account  *auth.Service
}

const testSecret = "unit-test-signing-secret-256bit!"

func newTestStack() *testStack {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	revoked := newFakeRevocationList()

	tokens := auth.NewTokenService(testSecret, auth.DefaultAccessTokenTTL, auth.DefaultRefreshTokenTTL, revoked, users)
	sessionService := auth.NewSessionService(sessions, users, auth.DefaultSessionTTL)
	account := auth.NewService(users, sessionService, tokens)

	return &testStack{
		users:    users,
		sessions: sessions,
		revoked:  revoked,
		tokens:   tokens,
		session:  sessionService,
		account:  account,
	}
}

// seedUser registers an account directly through the registration flow.
func (s *testStack) seedUser(email, password string, active, superuser bool) *auth.User {
	user, err := s.account.Register(context.Background(), auth.RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		panic(err)
	}
	if !active {
		_ = s.users.SetActive(context.Background(), user.ID, false)
		user.IsActive = false
	}
	if superuser {
		s.users.mu.Lock()
		s.users.users[user.ID].IsSuperuser = true
		s.users.mu.Unlock()
		user.IsSuperuser = true
	}
	return user
}
