package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo interface {
	Create(ctx context.Context, email, hash, name, role string) (*domain.User, error)
	// CreateArtist inserts the user and an empty artist profile in one transaction.
	CreateArtist(ctx context.Context, email, hash, name string) (*domain.User, *domain.Artist, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, in *domain.UpdateProfileRequest) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

const userCols = `id, email, password_hash, name, role, profile_image, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

const insertUser = `
INSERT INTO users (email, password_hash, name, role)
VALUES ($1,$2,$3,$4)
RETURNING ` + userCols

func (r *UsersRepoImpl) Create(ctx context.Context, email, hash, name, role string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, insertUser, email, hash, name, role))
	if isUniqueViolation(err) {
		return nil, domain.ErrUserExists
	}
	return u, err
}

func (r *UsersRepoImpl) CreateArtist(ctx context.Context, email, hash, name string) (*domain.User, *domain.Artist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		u *domain.User
		a *domain.Artist
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, insertUser, email, hash, name, domain.RoleArtist))
		if err != nil {
			return err
		}
		const q = `INSERT INTO artists (user_id) VALUES ($1) RETURNING id`
		var artistID int64
		if err := tx.QueryRow(ctx, q, u.ID).Scan(&artistID); err != nil {
			return fmt.Errorf("create artist profile: %w", err)
		}
		a, err = scanArtist(tx.QueryRow(ctx, selectArtists+` WHERE a.id=$1`, artistID))
		return err
	})
	if isUniqueViolation(err) {
		return nil, nil, domain.ErrUserExists
	}
	if err != nil {
		return nil, nil, err
	}
	return u, a, nil
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if isNoRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UsersRepoImpl) UpdateProfile(ctx context.Context, id int64, in *domain.UpdateProfileRequest) (*domain.User, error) {
	const q = `
UPDATE users
SET name = COALESCE($2, name),
    profile_image = COALESCE($3, profile_image),
    updated_at = now()
WHERE id = $1
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id, in.Name, in.ProfileImage))
	if isNoRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UsersRepoImpl) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, hash)
	return err
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
