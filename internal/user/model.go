package user

import "time"

const (
	RoleReader = "reader"
	RoleAuthor = "author"
	RoleAdmin  = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

type User struct {
	ID             int       `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Mobile         *string   `db:"mobile" json:"mobile,omitempty"`
	Role           string    `db:"role" json:"role"`
	Status         string    `db:"status" json:"status"`
	EmailVerified  bool      `db:"email_verified" json:"email_verified"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=32"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Mobile   *string `json:"mobile"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type UpdateProfileRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=3,max=32"`
	Mobile         *string `json:"mobile"`
	ProfilePicture *string `json:"profile_picture"`
}
