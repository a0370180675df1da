package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// CreateUser inserts usr and returns its id.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (int64, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`INSERT INTO users (username, password, role) VALUES ($1, $2, $3) RETURNING id_user`,
		usr.Username,
		usr.PasswordHash,
		usr.Role,
	)
	var userID int64
	if err := row.Scan(&userID); err != nil {
		if constraintError(err) == codeUniqueViolation {
			return 0, models.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("in internal/db/postgresdb/users.go/CreateUser(): error while `row.Scan()` calling: %w", err)
	}

	return userID, nil
}

// GetUserByUsername returns the user with the given name or models.ErrUserNotFound.
func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT id_user, username, password, role FROM users WHERE username = $1`,
		username,
	)
	usr := &models.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash, &usr.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/users.go/GetUserByUsername(): error while `row.Scan()` calling: %w", err)
	}

	return usr, nil
}

// UpdateUserCredentials replaces the password hash and role of username.
func (db *PostgresDB) UpdateUserCredentials(
	ctx context.Context,
	username string,
	passwordHash string,
	role string,
	transaction *sql.Tx,
) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`UPDATE users SET password = $1, role = $2 WHERE username = $3`,
		passwordHash,
		role,
		username,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/users.go/UpdateUserCredentials(): error while `ExecContext()` calling: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
