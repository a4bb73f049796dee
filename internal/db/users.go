package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, school_permissions,
		          culture_permissions, subscription_expires_at, created_at, updated_at`,
		arg.Name, arg.Email, arg.PasswordHash, arg.Role)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, school_permissions,
		       culture_permissions, subscription_expires_at, created_at, updated_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, school_permissions,
		       culture_permissions, subscription_expires_at, created_at, updated_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

type UpdateUserPermissionsParams struct {
	ID                 pgtype.UUID
	Role               string
	SchoolPermissions  []int64
	CulturePermissions []int64
}

func (q *Queries) UpdateUserPermissions(ctx context.Context, arg UpdateUserPermissionsParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE users
		SET role = $2, school_permissions = $3, culture_permissions = $4, updated_at = now()
		WHERE id = $1`,
		arg.ID, arg.Role, arg.SchoolPermissions, arg.CulturePermissions)
	return err
}

type ExtendSubscriptionParams struct {
	ID        pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) ExtendSubscription(ctx context.Context, arg ExtendSubscriptionParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE users SET subscription_expires_at = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.ExpiresAt)
	return err
}

type CreateSessionParams struct {
	UserID       pgtype.UUID
	RefreshToken string
	UserAgent    pgtype.Text
	Ip           pgtype.Text
	ExpiresAt    pgtype.Timestamptz
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, refresh_token, user_agent, ip, expires_at, created_at`,
		arg.UserID, arg.RefreshToken, arg.UserAgent, arg.Ip, arg.ExpiresAt)
	return scanSession(row)
}

func (q *Queries) GetSessionByToken(ctx context.Context, refreshToken string) (Session, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id, refresh_token, user_agent, ip, expires_at, created_at
		FROM sessions WHERE refresh_token = $1`, refreshToken)
	return scanSession(row)
}

type RotateSessionTokenParams struct {
	ID           pgtype.UUID
	RefreshToken string
	ExpiresAt    pgtype.Timestamptz
}

func (q *Queries) RotateSessionToken(ctx context.Context, arg RotateSessionTokenParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`,
		arg.ID, arg.RefreshToken, arg.ExpiresAt)
	return err
}

func (q *Queries) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

func (q *Queries) DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.SchoolPermissions, &u.CulturePermissions, &u.SubscriptionExpiresAt,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.Ip,
		&s.ExpiresAt, &s.CreatedAt)
	return s, err
}
