package dto

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=35"`
	LastName  string `json:"last_name" binding:"required,min=1,max=35"`
	Email     string `json:"email" binding:"required,email,max=128"`
	Password  string `json:"password" binding:"required,min=8"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// APIKey authorizes the read-only listing API.
	APIKey string `json:"api_key,omitempty"`
}
