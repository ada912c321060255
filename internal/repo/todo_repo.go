package repo

import (
	"context"
	"fmt"

	dom "todoweb/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Order controls the due-date direction of ListActive.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// TodoRepo persists and filters todo records. It carries no authorization
// logic: owner scoping of mutations is the service's job, the repo only
// filters where a query asks it to.
type TodoRepo interface {
	// CreateLogged inserts the todo and its activity entry in a single
	// transaction, so a todo without a matching log entry (or the other
	// way round) can never be observed.
	CreateLogged(ctx context.Context, t dom.Todo, entry dom.ActivityEntry) (dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	ListActive(ctx context.Context, ownerID int64, order Order) ([]dom.Todo, error)
	ListDeleted(ctx context.Context, ownerID int64) ([]dom.Todo, error)
	// ToggleCompleted flips the completed flag in one atomic update.
	ToggleCompleted(ctx context.Context, id int64) (dom.Todo, error)
	// SoftDelete and Restore report whether a row actually changed, so an
	// idempotent repeat can be told apart from a real transition.
	SoftDelete(ctx context.Context, id int64) (bool, error)
	Restore(ctx context.Context, id int64) (bool, error)
}

type PGTodoRepo struct {
	db       *pgxpool.Pool
	activity *PGActivityRepo
}

func NewPGTodoRepo(db *pgxpool.Pool, activity *PGActivityRepo) *PGTodoRepo {
	return &PGTodoRepo{db: db, activity: activity}
}

const todoColumns = `id, created_by, body, due_date, created_at, completed, deleted`

func (r *PGTodoRepo) CreateLogged(ctx context.Context, t dom.Todo, entry dom.ActivityEntry) (dom.Todo, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return dom.Todo{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO todos (created_by, body, due_date, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + todoColumns
	var out dom.Todo
	err = tx.QueryRow(ctx, query, t.CreatedBy, t.Body, t.DueDate, t.CreatedAt).Scan(
		&out.ID, &out.CreatedBy, &out.Body, &out.DueDate, &out.CreatedAt,
		&out.Completed, &out.Deleted,
	)
	if err != nil {
		return dom.Todo{}, err
	}
	if err := r.activity.InsertTx(ctx, tx, entry); err != nil {
		return dom.Todo{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dom.Todo{}, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CreatedBy, &t.Body, &t.DueDate, &t.CreatedAt,
		&t.Completed, &t.Deleted,
	)
	return t, err
}

func (r *PGTodoRepo) ListActive(ctx context.Context, ownerID int64, order Order) ([]dom.Todo, error) {
	// Ties on due_date keep insertion order (id ASC) in both directions,
	// so repeated reads are deterministic.
	direction := "DESC"
	if order == Ascending {
		direction = "ASC"
	}
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE created_by = $1 AND deleted = FALSE
		ORDER BY due_date ` + direction + `, id ASC`
	return r.queryTodos(ctx, query, ownerID)
}

func (r *PGTodoRepo) ListDeleted(ctx context.Context, ownerID int64) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE created_by = $1 AND deleted = TRUE
		ORDER BY id ASC`
	return r.queryTodos(ctx, query, ownerID)
}

func (r *PGTodoRepo) ToggleCompleted(ctx context.Context, id int64) (dom.Todo, error) {
	// Single atomic update: two concurrent toggles must not lose one.
	query := `
		UPDATE todos SET completed = NOT completed
		WHERE id = $1
		RETURNING ` + todoColumns
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CreatedBy, &t.Body, &t.DueDate, &t.CreatedAt,
		&t.Completed, &t.Deleted,
	)
	return t, err
}

func (r *PGTodoRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE todos SET deleted = TRUE WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGTodoRepo) Restore(ctx context.Context, id int64) (bool, error) {
	// Restore ignores completed: a completed todo comes back completed.
	tag, err := r.db.Exec(ctx,
		`UPDATE todos SET deleted = FALSE WHERE id = $1 AND deleted = TRUE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGTodoRepo) queryTodos(ctx context.Context, query string, args ...any) ([]dom.Todo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.CreatedBy, &t.Body, &t.DueDate, &t.CreatedAt,
			&t.Completed, &t.Deleted); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
