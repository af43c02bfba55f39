package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

const userColumns = `id, email, name, phone, password_hash, role, is_subscriber, is_active, created_at`

func scanUser(sc rowScanner) (model.User, error) {
	var u model.User
	err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.Subscriber, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// CreateUser inserts the user and sets its ID. The password hash must
// already be computed by the caller.
func (s *SQLStore) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, phone, password_hash, role, is_subscriber) VALUES (?,?,?,?,?,?)",
		u.Email, u.Name, u.Phone, u.PasswordHash, u.Role, u.Subscriber)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.IsActive = true
	return nil
}

// UserByEmail fetches a user by normalized email.
func (s *SQLStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// UserByID fetches a user by id.
func (s *SQLStore) UserByID(ctx context.Context, id uint64) (model.User, error) {
	return userByID(ctx, s.db, id)
}

func userByID(ctx context.Context, q queryer, id uint64) (model.User, error) {
	return scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}
