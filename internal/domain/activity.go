package domain

import "time"

// ActivityType tags an entry in the per-user audit log.
type ActivityType string

const (
	ActivityLogin       ActivityType = "login"
	ActivityLogout      ActivityType = "logout"
	ActivityAddTodo     ActivityType = "add-todo"
	ActivityDeleteTodo  ActivityType = "delete-todo"
	ActivityRestoreTodo ActivityType = "restore-todo"
)

// ActivityEntry is one append-only audit log record. Entries are never
// updated or removed.
type ActivityEntry struct {
	ID        int64
	UserID    int64
	Type      ActivityType
	CreatedAt time.Time
	IPAddress string
	// Detail optionally carries the affected todo id.
	Detail string
}
