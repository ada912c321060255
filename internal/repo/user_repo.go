package repo

import (
	"context"

	dom "todoweb/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides user persistence.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (dom.User, error)
	GetByID(ctx context.Context, id int64) (dom.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (dom.User, error)
	Create(ctx context.Context, u dom.User) (dom.User, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, api_key, created_at`

// GetByEmail returns the user by email, the login key.
func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByID returns the user by id.
func (r *PGUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByAPIKey returns the owner of the opaque listing-API key.
func (r *PGUserRepo) GetByAPIKey(ctx context.Context, apiKey string) (dom.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = $1`, apiKey)
}

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, api_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	var out dom.User
	err := r.db.QueryRow(ctx, query,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.APIKey,
	).Scan(&out.ID, &out.FirstName, &out.LastName, &out.Email,
		&out.PasswordHash, &out.APIKey, &out.CreatedAt)
	return out, err
}

func (r *PGUserRepo) getBy(ctx context.Context, query string, arg any) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.APIKey, &u.CreatedAt,
	)
	return u, err
}
