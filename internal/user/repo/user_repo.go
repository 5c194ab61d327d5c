package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

// UserRepo provides data access for the users table using sqlx.
// Every driver or decode failure is returned as a *database.StorageError.
type UserRepo struct {
	db    *sqlx.DB
	newID func() string
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db, newID: utilities.NewSnowflakeID}
}

const selectColumns = `SELECT id, email, password, password_algo, created_at FROM users`

// Insert adds a credential row and returns its id. It does not check
// for an existing email; callers do that first.
func (r *UserRepo) Insert(ctx context.Context, email, password, algo string) (string, error) {
	const q = `INSERT INTO users (id, email, password, password_algo) VALUES ($1, $2, $3, $4)`
	id := r.newID()
	if _, err := r.db.ExecContext(ctx, q, id, email, password, algo); err != nil {
		return "", database.Wrap("users.insert", err)
	}
	return id, nil
}

// FindByEmail returns the rows (0 or 1) registered under email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) ([]entity.User, error) {
	rows := []entity.User{}
	if err := r.db.SelectContext(ctx, &rows, selectColumns+` WHERE email = $1`, email); err != nil {
		return nil, database.Wrap("users.find_by_email", err)
	}
	return rows, nil
}

// FindByEmailAndPassword returns the rows (0 or 1) whose stored password
// column equals password exactly.
func (r *UserRepo) FindByEmailAndPassword(ctx context.Context, email, password string) ([]entity.User, error) {
	rows := []entity.User{}
	q := selectColumns + ` WHERE email = $1 AND password = $2`
	if err := r.db.SelectContext(ctx, &rows, q, email, password); err != nil {
		return nil, database.Wrap("users.find_by_email_and_password", err)
	}
	return rows, nil
}
