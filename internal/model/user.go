package model

import "time"

const (
	PrincipalUser  = "user"
	PrincipalAdmin = "admin"
)

// User represents a managed user record
type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Do not expose password hash in JSON responses
	Address         string    `json:"address"`
	PhoneNumber     string    `json:"phone_number"`
	ProfilePic      *string   `json:"profile_pic"`      // Filename in the photos slot
	DescriptionFile *string   `json:"description_file"` // Filename in the docs slot
	CreatedAt       time.Time `json:"created_at"`
}

// CreateUserRequest carries the form fields for /register and POST /user
type CreateUserRequest struct {
	Name        string `form:"name" binding:"required"`
	Email       string `form:"email" binding:"required,email"`
	Password    string `form:"password" binding:"required"`
	Address     string `form:"address" binding:"required"`
	PhoneNumber string `form:"phone_number" binding:"required"`
}

// UpdateUserRequest carries the mutable fields. Nil means "not supplied".
// Email and password are not updatable.
type UpdateUserRequest struct {
	Name        *string `form:"name"`
	Address     *string `form:"address"`
	PhoneNumber *string `form:"phone_number"`
}

// Admin is a credential identity used only to gate access
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity bound to a session
type Principal struct {
	ID        int64
	Kind      string // "user" or "admin"
	SessionID string
}
