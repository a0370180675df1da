package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// CreateUser inserts usr and returns its id.
func (db *SQLiteDB) CreateUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (int64, error) {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`INSERT INTO users (username, password, role) VALUES (?, ?, ?)`,
		usr.Username,
		usr.PasswordHash,
		usr.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("in internal/db/sqlitedb/users.go/CreateUser(): error while `ExecContext()` calling: %w", err)
	}

	return result.LastInsertId()
}

// GetUserByUsername returns the user with the given name or models.ErrUserNotFound.
func (db *SQLiteDB) GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT id_user, username, password, role FROM users WHERE username = ?`,
		username,
	)
	usr := &models.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash, &usr.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/users.go/GetUserByUsername(): error while `row.Scan()` calling: %w", err)
	}

	return usr, nil
}

// UpdateUserCredentials replaces the password hash and role of username.
func (db *SQLiteDB) UpdateUserCredentials(
	ctx context.Context,
	username string,
	passwordHash string,
	role string,
	transaction *sql.Tx,
) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`UPDATE users SET password = ?, role = ? WHERE username = ?`,
		passwordHash,
		role,
		username,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/sqlitedb/users.go/UpdateUserCredentials(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrUserNotFound)
}
