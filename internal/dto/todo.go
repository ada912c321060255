package dto

import "time"

// CreateTodoRequest is the JSON body for POST /todos. Due is free text
// ("tomorrow at 5pm", "next friday"), resolved server-side.
type CreateTodoRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
	Due  string `json:"due" binding:"required,min=1,max=120"`
}

// TodoResponse is one todo with display-formatted timestamps.
type TodoResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Deleted   bool   `json:"deleted"`
	DueDate   string `json:"due_date"`
	CreatedAt string `json:"created_at"`
}

// ListTodosResponse wraps a todo list.
type ListTodosResponse struct {
	Items []TodoResponse `json:"items"`
	// Order echoes the direction the active list was produced in.
	Order string `json:"order,omitempty"`
}

// ActivityResponse is one audit log entry.
type ActivityResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Time      time.Time `json:"time"`
	IPAddress string    `json:"ip_address"`
	Detail    string    `json:"detail,omitempty"`
}

// ListActivityResponse wraps the audit trail.
type ListActivityResponse struct {
	Items []ActivityResponse `json:"items"`
}
