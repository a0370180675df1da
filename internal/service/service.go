// Package service is the application core of the letter archive. It validates
// input, runs the multi-statement transactions of the letter write path and
// keeps attachments in step with the rows that reference them.
package service

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/arsipsurat/internal/filestore"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

type transactioner interface {
	BeginTransaction(ctx context.Context) (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
	CreateUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (int64, error)

	GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error)

	UpdateUserCredentials(
		ctx context.Context,
		username string,
		passwordHash string,
		role string,
		transaction *sql.Tx,
	) error
}

type unitKeeper interface {
	ListUnits(ctx context.Context) ([]models.Unit, error)

	CreateUnit(ctx context.Context, unit *models.Unit) (int64, error)

	UpdateUnit(ctx context.Context, unit *models.Unit) error

	DeleteUnit(ctx context.Context, unitID int64) error
}

type letterKeeper interface {
	InsertLetter(ctx context.Context, record *models.LetterRecord, transaction *sql.Tx) (int64, error)

	UpdateLetter(ctx context.Context, letterID int64, record *models.LetterRecord, transaction *sql.Tx) error

	FindLetterFile(ctx context.Context, letterID int64, transaction *sql.Tx) (*string, error)

	DeleteLetter(ctx context.Context, letterID int64, transaction *sql.Tx) error

	InsertLetterUnits(ctx context.Context, letterID int64, unitIDs []int64, transaction *sql.Tx) error

	DeleteLetterUnits(ctx context.Context, letterID int64, transaction *sql.Tx) error

	GetLetter(ctx context.Context, letterID int64) (*models.Letter, error)

	ListLetters(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int64, error)
}

type statsKeeper interface {
	CountLetters(ctx context.Context) (int64, error)

	CountLettersOfYear(ctx context.Context, year int) (int64, error)

	CountLettersPerUnit(ctx context.Context) ([]models.UnitLetterCount, error)

	CountLettersPerMonth(ctx context.Context, year int) ([]models.MonthLetterCount, error)

	RecentLetters(ctx context.Context, limit int) ([]models.Letter, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Storage is what the service needs from a database backend.
type Storage interface {
	transactioner
	userKeeper
	unitKeeper
	letterKeeper
	statsKeeper
	pinger
}

// FileStore is what the service needs from an attachment backend.
type FileStore interface {
	Save(ctx context.Context, upload *models.Upload) (string, error)

	Remove(ctx context.Context, name string) error

	Open(ctx context.Context, name string) (*filestore.Object, error)
}

type removalQueue interface {
	Enqueue(name string) bool
}

type tokenIssuer interface {
	IssueToken(usr *models.User) (string, error)
}

// Listing defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

// recentLettersLimit is the size of the dashboard's recent list.
const recentLettersLimit = 5

// Service implements the archive operations on top of a storage and a file store.
type Service struct {
	db       Storage
	files    FileStore
	tokens   tokenIssuer
	removals removalQueue
	validate *validator.Validate
	now      func() time.Time
}

// Option configures New.
type Option func(*Service)

// WithClock replaces time.Now, which decides the dashboard's current year.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRemovalQueue hands settled attachment removals to a background queue
// instead of removing them inline.
func WithRemovalQueue(queue removalQueue) Option {
	return func(s *Service) {
		s.removals = queue
	}
}

// New returns a Service.
func New(
	db Storage,
	files FileStore,
	tokens tokenIssuer,
	options ...Option,
) *Service {
	result := &Service{
		db:       db,
		files:    files,
		tokens:   tokens,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, option := range options {
		option(result)
	}

	return result
}

// Ping checks the storage.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// OpenAttachment returns a stored attachment for download.
func (s *Service) OpenAttachment(ctx context.Context, name string) (*filestore.Object, error) {
	return s.files.Open(ctx, name)
}

// newValidator reports fields by their form or json name.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return validate
}

func (s *Service) validateStruct(value any) error {
	if err := s.validate.Struct(value); err != nil {
		return &models.ValidationError{Err: err}
	}
	return nil
}
