package domain

import "time"

// Domain entity: бизнес-объект (истина).
// Не зависит от Gin, Postgres, Redis.
type Todo struct {
	ID        int64
	CreatedBy int64
	Body      string
	DueDate   time.Time
	CreatedAt time.Time

	// Completed and Deleted are independent flags: a todo can be both
	// completed and soft-deleted at the same time. Soft-deleted rows stay
	// in the store and can be restored; there is no hard delete.
	Completed bool
	Deleted   bool
}
