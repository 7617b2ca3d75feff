package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard/entity"
	"taskboard/storage"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password, first_name, last_name, profile_image_url, created_at, updated_at`

func scanUser(row scanner) (*entity.User, error) {
	var (
		u                                        entity.User
		email, firstName, lastName, profileImage sql.NullString
		createdAt, updatedAt                     string
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &u.Password, &firstName, &lastName, &profileImage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Email = stringPtr(email)
	u.FirstName = stringPtr(firstName)
	u.LastName = stringPtr(lastName)
	u.ProfileImageURL = stringPtr(profileImage)

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	id := uuid.NewString()
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.Username, nullableString(user.Email), user.Password,
		nullableString(user.FirstName), nullableString(user.LastName), nullableString(user.ProfileImageURL),
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (*entity.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.getUserBy(ctx, "username", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.getUserBy(ctx, "email", email)
}
