// Package mockstorage provides testify mocks of the archive storage and the
// attachment store. Service and router tests use them to simulate the
// database and the file store without either being present.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/arsipsurat/internal/filestore"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// StorageMock is a testify mock of every storage method the service uses.
type StorageMock struct {
	mock.Mock

	// OnCountLetters, if set, answers CountLetters instead of the recorded
	// expectations.
	OnCountLetters func(ctx context.Context) (int64, error)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, usr *models.User, tx *sql.Tx) (int64, error) {
	args := m.Called(ctx, usr, tx)
	return args.Get(0).(int64), args.Error(1)
}

// GetUserByUsername mocks the user lookup.
func (m *StorageMock) GetUserByUsername(ctx context.Context, username string, tx *sql.Tx) (*models.User, error) {
	args := m.Called(ctx, username, tx)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

// UpdateUserCredentials mocks the password and role reset.
func (m *StorageMock) UpdateUserCredentials(
	ctx context.Context,
	username string,
	passwordHash string,
	role string,
	tx *sql.Tx,
) error {
	args := m.Called(ctx, username, passwordHash, role, tx)
	return args.Error(0)
}

// ListUnits mocks listing units.
func (m *StorageMock) ListUnits(ctx context.Context) ([]models.Unit, error) {
	args := m.Called(ctx)
	units, _ := args.Get(0).([]models.Unit)
	return units, args.Error(1)
}

// CreateUnit mocks unit creation.
func (m *StorageMock) CreateUnit(ctx context.Context, unit *models.Unit) (int64, error) {
	args := m.Called(ctx, unit)
	return args.Get(0).(int64), args.Error(1)
}

// UpdateUnit mocks the unit replace.
func (m *StorageMock) UpdateUnit(ctx context.Context, unit *models.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

// DeleteUnit mocks unit deletion.
func (m *StorageMock) DeleteUnit(ctx context.Context, unitID int64) error {
	args := m.Called(ctx, unitID)
	return args.Error(0)
}

// InsertLetter mocks the letter insert.
func (m *StorageMock) InsertLetter(ctx context.Context, record *models.LetterRecord, tx *sql.Tx) (int64, error) {
	args := m.Called(ctx, record, tx)
	return args.Get(0).(int64), args.Error(1)
}

// UpdateLetter mocks the letter replace.
func (m *StorageMock) UpdateLetter(ctx context.Context, letterID int64, record *models.LetterRecord, tx *sql.Tx) error {
	args := m.Called(ctx, letterID, record, tx)
	return args.Error(0)
}

// FindLetterFile mocks the attachment lookup.
func (m *StorageMock) FindLetterFile(ctx context.Context, letterID int64, tx *sql.Tx) (*string, error) {
	args := m.Called(ctx, letterID, tx)
	file, _ := args.Get(0).(*string)
	return file, args.Error(1)
}

// DeleteLetter mocks letter deletion.
func (m *StorageMock) DeleteLetter(ctx context.Context, letterID int64, tx *sql.Tx) error {
	args := m.Called(ctx, letterID, tx)
	return args.Error(0)
}

// InsertLetterUnits mocks the association insert.
func (m *StorageMock) InsertLetterUnits(ctx context.Context, letterID int64, unitIDs []int64, tx *sql.Tx) error {
	args := m.Called(ctx, letterID, unitIDs, tx)
	return args.Error(0)
}

// DeleteLetterUnits mocks the association wipe.
func (m *StorageMock) DeleteLetterUnits(ctx context.Context, letterID int64, tx *sql.Tx) error {
	args := m.Called(ctx, letterID, tx)
	return args.Error(0)
}

// GetLetter mocks the single letter read.
func (m *StorageMock) GetLetter(ctx context.Context, letterID int64) (*models.Letter, error) {
	args := m.Called(ctx, letterID)
	letter, _ := args.Get(0).(*models.Letter)
	return letter, args.Error(1)
}

// ListLetters mocks the filtered listing.
func (m *StorageMock) ListLetters(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int64, error) {
	args := m.Called(ctx, filter)
	letters, _ := args.Get(0).([]models.Letter)
	return letters, args.Get(1).(int64), args.Error(2)
}

// CountLetters returns OnCountLetters if set, the recorded expectation otherwise.
func (m *StorageMock) CountLetters(ctx context.Context) (int64, error) {
	if m.OnCountLetters != nil {
		return m.OnCountLetters(ctx)
	}
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// CountLettersOfYear mocks the yearly count.
func (m *StorageMock) CountLettersOfYear(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

// CountLettersPerUnit mocks the per-unit breakdown.
func (m *StorageMock) CountLettersPerUnit(ctx context.Context) ([]models.UnitLetterCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]models.UnitLetterCount)
	return counts, args.Error(1)
}

// CountLettersPerMonth mocks the per-month breakdown.
func (m *StorageMock) CountLettersPerMonth(ctx context.Context, year int) ([]models.MonthLetterCount, error) {
	args := m.Called(ctx, year)
	counts, _ := args.Get(0).([]models.MonthLetterCount)
	return counts, args.Error(1)
}

// RecentLetters mocks the recent list.
func (m *StorageMock) RecentLetters(ctx context.Context, limit int) ([]models.Letter, error) {
	args := m.Called(ctx, limit)
	letters, _ := args.Get(0).([]models.Letter)
	return letters, args.Error(1)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// FileStoreMock is a testify mock of the attachment store.
type FileStoreMock struct {
	mock.Mock
}

// Save mocks storing an upload.
func (m *FileStoreMock) Save(ctx context.Context, upload *models.Upload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

// Remove mocks deleting an attachment.
func (m *FileStoreMock) Remove(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Open mocks reading an attachment.
func (m *FileStoreMock) Open(ctx context.Context, name string) (*filestore.Object, error) {
	args := m.Called(ctx, name)
	object, _ := args.Get(0).(*filestore.Object)
	return object, args.Error(1)
}
