package repo

import (
	"context"

	dom "todoweb/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepo is the append-only audit log. Entries must be durable before
// the enclosing request completes; callers do not swallow insert errors.
type ActivityRepo interface {
	Insert(ctx context.Context, e dom.ActivityEntry) error
	ListByUser(ctx context.Context, userID int64) ([]dom.ActivityEntry, error)
}

// PGActivityRepo implements ActivityRepo with Postgres.
type PGActivityRepo struct {
	db *pgxpool.Pool
}

// NewPGActivityRepo returns a new PGActivityRepo.
func NewPGActivityRepo(db *pgxpool.Pool) *PGActivityRepo {
	return &PGActivityRepo{db: db}
}

const insertActivityQuery = `
	INSERT INTO user_activity (user_id, activity_type, created_at, ip_address, detail)
	VALUES ($1, $2, $3, $4, $5)`

func (r *PGActivityRepo) Insert(ctx context.Context, e dom.ActivityEntry) error {
	_, err := r.db.Exec(ctx, insertActivityQuery,
		e.UserID, string(e.Type), e.CreatedAt, e.IPAddress, e.Detail)
	return err
}

// InsertTx writes the entry inside an open transaction, used when an entry
// must commit together with the write it describes.
func (r *PGActivityRepo) InsertTx(ctx context.Context, tx pgx.Tx, e dom.ActivityEntry) error {
	_, err := tx.Exec(ctx, insertActivityQuery,
		e.UserID, string(e.Type), e.CreatedAt, e.IPAddress, e.Detail)
	return err
}

// ListByUser returns the user's audit trail, newest first.
func (r *PGActivityRepo) ListByUser(ctx context.Context, userID int64) ([]dom.ActivityEntry, error) {
	query := `
		SELECT id, user_id, activity_type, created_at, ip_address, detail
		FROM user_activity WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.ActivityEntry
	for rows.Next() {
		var e dom.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.CreatedAt,
			&e.IPAddress, &e.Detail); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
