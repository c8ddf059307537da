// Copyright (c) 2026 Amanat. All rights reserved.
// Author: a.saparov.dev@gmail.com

// PostgreSQL implementations of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saparov/amanat/internal/platform/apperr"
	"github.com/saparov/amanat/internal/platform/dberr"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record into the users.account table.
//
// # Parameters
//   - ctx: Context for the database operation.
//   - user: The user entity to persist. Its ID is populated on return.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			email, password_hash, first_name, last_name, middle_name,
			is_active, is_superuser, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := repository.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.MiddleName,
		user.IsActive,
		user.IsSuperuser,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		return dberr.Wrap(err, "postgres_user_repo_create_failed")
	}

	return nil
}

// FindByEmail retrieves a user record by their unique email address.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, middle_name,
		       is_active, is_superuser, created_at, deleted_at
		FROM users.account
		WHERE email = $1 AND deleted_at IS NULL`

	return repository.scanOne(ctx, query, email)
}

// FindByID retrieves a user record by their unique ID.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, email, password_hash, first_name, last_name, middle_name,
		       is_active, is_superuser, created_at, deleted_at
		FROM users.account
		WHERE id = $1 AND deleted_at IS NULL`

	return repository.scanOne(ctx, query, id)
}

// scanOne executes a single-row account query and maps the result.
func (repository *PostgresUserRepository) scanOne(ctx context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.MiddleName,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.DeletedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	return user, nil
}

// Update persists changes to a user's mutable profile fields (names only).
func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET first_name = $2, last_name = $3, middle_name = $4
		WHERE id = $1 AND deleted_at IS NULL`

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.MiddleName,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

// SetActive toggles the is_active flag for a specific user.
func (repository *PostgresUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = "UPDATE users.account SET is_active = $2 WHERE id = $1 AND deleted_at IS NULL"
	_, err := repository.pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}
	return nil
}

// SoftDelete marks a user account as deleted using their ID.
func (repository *PostgresUserRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = "UPDATE users.account SET deleted_at = $2 WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_soft_delete_failed: %w", err)
	}
	return nil
}

// ── Session Repository ───────────────────────────────────────────────────────

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create persists a new session record into the users.session table.
func (repository *PostgresSessionRepository) Create(ctx context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, user_id, created_at, expire_at, user_agent, client_ip
		) VALUES ($1, $2, $3, $4, $5, $6)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.ExpireAt,
		session.UserAgent,
		session.ClientIP,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves a non-expired session by its opaque id.
func (repository *PostgresSessionRepository) FindByID(ctx context.Context, id string) (*Session, error) {
	const query = `
		SELECT id, user_id, created_at, expire_at, user_agent, client_ip
		FROM users.session
		WHERE id = $1 AND expire_at > NOW()`

	session := &Session{}
	err := repository.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpireAt,
		&session.UserAgent,
		&session.ClientIP,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

// Delete removes a session record. Unknown ids are silently ignored.
func (repository *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	const query = "DELETE FROM users.session WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_failed: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session belonging to the user.
func (repository *PostgresSessionRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	const query = "DELETE FROM users.session WHERE user_id = $1"
	_, err := repository.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_all_failed: %w", err)
	}
	return nil
}

// DeleteExpired permanently removes all sessions past their expiry.
func (repository *PostgresSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = "DELETE FROM users.session WHERE expire_at <= NOW()"
	tag, err := repository.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
