package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// stubStore implements the slice of db.Querier the auth service touches.
// Unimplemented methods panic via the embedded nil interface.
type stubStore struct {
	db.Querier

	users    map[string]db.User
	sessions map[string]db.Session
	rotated  int
}

func newStubStore() *stubStore {
	return &stubStore{
		users:    map[string]db.User{},
		sessions: map[string]db.Session{},
	}
}

func (s *stubStore) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	if _, exists := s.users[arg.Email]; exists {
		return db.User{}, errors.New("duplicate email")
	}
	u := db.User{
		ID:           newUUID(byte(len(s.users) + 1)),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
	}
	s.users[arg.Email] = u
	return u, nil
}

func (s *stubStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	u, ok := s.users[email]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubStore) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (s *stubStore) CreateSession(_ context.Context, arg db.CreateSessionParams) (db.Session, error) {
	sess := db.Session{
		ID:           newUUID(0xA0),
		UserID:       arg.UserID,
		RefreshToken: arg.RefreshToken,
		ExpiresAt:    arg.ExpiresAt,
	}
	s.sessions[arg.RefreshToken] = sess
	return sess, nil
}

func (s *stubStore) GetSessionByToken(_ context.Context, refreshToken string) (db.Session, error) {
	sess, ok := s.sessions[refreshToken]
	if !ok {
		return db.Session{}, pgx.ErrNoRows
	}
	return sess, nil
}

func (s *stubStore) RotateSessionToken(_ context.Context, arg db.RotateSessionTokenParams) error {
	for token, sess := range s.sessions {
		if sess.ID == arg.ID {
			delete(s.sessions, token)
			sess.RefreshToken = arg.RefreshToken
			sess.ExpiresAt = arg.ExpiresAt
			s.sessions[arg.RefreshToken] = sess
			s.rotated++
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubStore) DeleteSessionByToken(_ context.Context, refreshToken string) error {
	delete(s.sessions, refreshToken)
	return nil
}

func (s *stubStore) DeleteSessionsByUser(_ context.Context, userID pgtype.UUID) error {
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

func newUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

func newTestService(t *testing.T, store db.Querier) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Queries:         store,
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newStubStore())

	_, err := svc.Register(context.Background(), "", "a@b.c", "password1")
	requireAppCode(t, err, common.CodeValidation)

	_, err = svc.Register(context.Background(), "Asha", "a@b.c", "short")
	requireAppCode(t, err, common.CodeValidation)
}

func TestRegisterAssignsMemberRole(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "Asha", "Asha@Example.com", "password1")
	require.NoError(t, err)
	require.Equal(t, RoleUser, user.Role)
	require.Equal(t, "asha@example.com", user.Email)
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	hash, err := argon2id.CreateHash("password1", argon2id.DefaultParams)
	require.NoError(t, err)
	store.users["asha@example.com"] = db.User{
		ID:           newUUID(1),
		Name:         "Asha",
		Email:        "asha@example.com",
		PasswordHash: hash,
		Role:         RoleSchoolAdmin,
	}

	result, err := svc.Login(context.Background(), "asha@example.com", "password1", "ua", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	userID, role, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, userID)
	require.Equal(t, RoleSchoolAdmin, role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	hash, err := argon2id.CreateHash("password1", argon2id.DefaultParams)
	require.NoError(t, err)
	store.users["asha@example.com"] = db.User{
		ID:           newUUID(1),
		Email:        "asha@example.com",
		PasswordHash: hash,
		Role:         RoleUser,
	}

	_, err = svc.Login(context.Background(), "asha@example.com", "wrong", "", "")
	requireAppCode(t, err, "INVALID_CREDENTIALS")
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	hash, err := argon2id.CreateHash("password1", argon2id.DefaultParams)
	require.NoError(t, err)
	store.users["asha@example.com"] = db.User{
		ID:           newUUID(1),
		Email:        "asha@example.com",
		PasswordHash: hash,
		Role:         RoleUser,
	}

	login, err := svc.Login(context.Background(), "asha@example.com", "password1", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, 1, store.rotated)

	// the old token must no longer be usable
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	requireAppCode(t, err, common.CodeUnauthorized)
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	svc.WithNow(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })

	hash, err := argon2id.CreateHash("password1", argon2id.DefaultParams)
	require.NoError(t, err)
	store.users["asha@example.com"] = db.User{
		ID:           newUUID(1),
		Email:        "asha@example.com",
		PasswordHash: hash,
		Role:         RoleUser,
	}

	login, err := svc.Login(context.Background(), "asha@example.com", "password1", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	requireAppCode(t, err, common.CodeUnauthorized)
	require.Empty(t, store.sessions)
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
