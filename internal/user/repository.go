package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, username, email, password_hash, mobile, role, status,
	email_verified, profile_picture, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, username, email, passwordHash string, mobile *string) (*User, error) {
	u := &User{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, password_hash, mobile)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		username, email, passwordHash, mobile,
	).StructScan(u)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmailOrUsername lets readers log in with either handle.
func (r *postgresRepository) FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error) {
	u := &User{}
	err := r.db.GetContext(ctx, u,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1`,
		identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*User, error) {
	u := &User{}
	err := r.db.GetContext(ctx, u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		email, username)
	return exists, err
}

func (r *postgresRepository) ExistsByID(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id)
	return exists, err
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	u := &User{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
		 SET username = COALESCE($1, username),
		     mobile = COALESCE($2, mobile),
		     profile_picture = COALESCE($3, profile_picture),
		     updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+userColumns,
		req.Username, req.Mobile, req.ProfilePicture, id,
	).StructScan(u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) MarkEmailVerified(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *postgresRepository) SetRole(ctx context.Context, id int, role string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) SetStatus(ctx context.Context, id int, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FirstAdminID backs the platform fee account when none is configured.
func (r *postgresRepository) FirstAdminID(ctx context.Context) (int, error) {
	var id int
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM users WHERE role = $1 ORDER BY id ASC LIMIT 1`, RoleAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return id, err
}
