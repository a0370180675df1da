package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/patric-chuzhbe/arsipsurat/internal/auth"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// Credentials is the login and registration payload.
type Credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// unknownUserHash is compared against when the username does not exist, so
// a failed login costs one bcrypt comparison either way.
func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("unknown-user-placeholder")
	})
	return dummyHash
}

// Login verifies the credentials and issues a token. An unknown username and
// a wrong password both return models.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, &models.ValidationError{Err: models.ErrMissingCredentials}
	}

	usr, err := s.db.GetUserByUsername(ctx, username, nil)
	if errors.Is(err, models.ErrUserNotFound) {
		auth.ComparePassword(unknownUserHash(), password)
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("in internal/service/users.go/Login(): error while `s.db.GetUserByUsername()` calling: %w", err)
	}

	if !auth.ComparePassword(usr.PasswordHash, password) {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(usr)
	if err != nil {
		return "", nil, fmt.Errorf("in internal/service/users.go/Login(): error while `s.tokens.IssueToken()` calling: %w", err)
	}

	return token, usr, nil
}

// Register creates a user. Role defaults to models.RoleUser.
func (s *Service) Register(ctx context.Context, credentials Credentials) (int64, error) {
	if credentials.Username == "" || credentials.Password == "" {
		return 0, &models.ValidationError{Err: models.ErrMissingCredentials}
	}
	if credentials.Role != "" && credentials.Role != models.RoleAdmin && credentials.Role != models.RoleUser {
		return 0, models.ErrInvalidRole
	}
	if err := s.validateStruct(credentials); err != nil {
		return 0, err
	}

	role := credentials.Role
	if role == "" {
		role = models.RoleUser
	}

	hash, err := auth.HashPassword(credentials.Password)
	if err != nil {
		return 0, err
	}

	return s.db.CreateUser(ctx, &models.User{
		Username:     credentials.Username,
		PasswordHash: hash,
		Role:         role,
	}, nil)
}

// SeedAdmin makes sure username exists as an admin with the given password.
// An existing user gets the new password and the admin role. It reports
// whether the user was created.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, &models.ValidationError{Err: models.ErrMissingCredentials}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTransaction(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	created := false
	_, err = s.db.GetUserByUsername(ctx, username, tx)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		_, err = s.db.CreateUser(ctx, &models.User{Username: username, PasswordHash: hash, Role: models.RoleAdmin}, tx)
		if err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, err
	default:
		if err := s.db.UpdateUserCredentials(ctx, username, hash, models.RoleAdmin, tx); err != nil {
			return false, err
		}
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return false, err
	}

	return created, nil
}
