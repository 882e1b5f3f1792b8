package user

import "context"

type Repository interface {
	Create(ctx context.Context, username, email, passwordHash string, mobile *string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error)
	ExistsByID(ctx context.Context, id int) (bool, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error)
	MarkEmailVerified(ctx context.Context, id int) error
	SetRole(ctx context.Context, id int, role string) error
	SetStatus(ctx context.Context, id int, status string) error
	FirstAdminID(ctx context.Context) (int, error)
}
