package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

func (s *Service) letterRecord(in models.LetterInput) (*models.LetterRecord, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, &models.ValidationError{Err: err}
	}

	return &models.LetterRecord{
		Sender:  in.Sender,
		Number:  in.Number,
		Date:    date,
		Subject: in.Subject,
		Year:    in.Year,
	}, nil
}

// storeUpload saves upload, if any, and returns its generated name.
func (s *Service) storeUpload(ctx context.Context, upload *models.Upload) (*string, error) {
	if upload == nil {
		return nil, nil
	}

	name, err := s.files.Save(ctx, upload)
	if err != nil {
		return nil, err
	}

	return &name, nil
}

// removeFile deletes a stored attachment. Failures are logged, not returned:
// the database is already in its final state when this runs.
func (s *Service) removeFile(ctx context.Context, name *string) {
	if name == nil {
		return
	}
	if s.removals != nil && s.removals.Enqueue(*name) {
		return
	}
	if err := s.files.Remove(context.WithoutCancel(ctx), *name); err != nil {
		logger.Log.Warnw("failed to remove attachment", "file", *name, zap.Error(err))
	}
}

// CreateLetter stores the attachment, then inserts the letter with one
// association per unit id in a single transaction. If the transaction does
// not commit the stored attachment is removed again.
func (s *Service) CreateLetter(ctx context.Context, in models.LetterInput, upload *models.Upload) (letterID int64, err error) {
	record, err := s.letterRecord(in)
	if err != nil {
		return 0, err
	}

	stored, err := s.storeUpload(ctx, upload)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			s.removeFile(ctx, stored)
		}
	}()
	record.File = stored

	tx, err := s.db.BeginTransaction(ctx)
	if err != nil {
		return 0, fmt.Errorf("in internal/service/letters.go/CreateLetter(): error while `s.db.BeginTransaction()` calling: %w", err)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	letterID, err = s.db.InsertLetter(ctx, record, tx)
	if err != nil {
		return 0, err
	}

	if err := s.db.InsertLetterUnits(ctx, letterID, in.UnitIDs, tx); err != nil {
		return 0, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return 0, fmt.Errorf("in internal/service/letters.go/CreateLetter(): error while `s.db.CommitTransaction()` calling: %w", err)
	}
	committed = true

	return letterID, nil
}

// UpdateLetter replaces every field of the letter and its whole set of unit
// associations. A new attachment replaces the old one, which is removed once
// the transaction commits; without one the old attachment is kept.
func (s *Service) UpdateLetter(ctx context.Context, letterID int64, in models.LetterInput, upload *models.Upload) error {
	record, err := s.letterRecord(in)
	if err != nil {
		return err
	}

	stored, err := s.storeUpload(ctx, upload)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			s.removeFile(ctx, stored)
		}
	}()

	tx, err := s.db.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("in internal/service/letters.go/UpdateLetter(): error while `s.db.BeginTransaction()` calling: %w", err)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	previous, err := s.db.FindLetterFile(ctx, letterID, tx)
	if err != nil {
		return err
	}

	record.File = previous
	if stored != nil {
		record.File = stored
	}

	if err := s.db.UpdateLetter(ctx, letterID, record, tx); err != nil {
		return err
	}

	if err := s.db.DeleteLetterUnits(ctx, letterID, tx); err != nil {
		return err
	}

	if err := s.db.InsertLetterUnits(ctx, letterID, in.UnitIDs, tx); err != nil {
		return err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return fmt.Errorf("in internal/service/letters.go/UpdateLetter(): error while `s.db.CommitTransaction()` calling: %w", err)
	}
	committed = true

	if stored != nil && previous != nil && *previous != *stored {
		s.removeFile(ctx, previous)
	}

	return nil
}

// DeleteLetter deletes the letter with its associations and then its attachment.
func (s *Service) DeleteLetter(ctx context.Context, letterID int64) error {
	tx, err := s.db.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("in internal/service/letters.go/DeleteLetter(): error while `s.db.BeginTransaction()` calling: %w", err)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	file, err := s.db.FindLetterFile(ctx, letterID, tx)
	if err != nil {
		return err
	}

	if err := s.db.DeleteLetter(ctx, letterID, tx); err != nil {
		return err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return fmt.Errorf("in internal/service/letters.go/DeleteLetter(): error while `s.db.CommitTransaction()` calling: %w", err)
	}

	s.removeFile(ctx, file)

	return nil
}

// GetLetter returns one letter with its unit list.
func (s *Service) GetLetter(ctx context.Context, letterID int64) (*models.Letter, error) {
	return s.db.GetLetter(ctx, letterID)
}

// ListLetters returns one page of letters. Zero Page and Limit take the
// defaults; a Limit above MaxLimit is rejected.
func (s *Service) ListLetters(ctx context.Context, filter models.LetterFilter) (*models.LetterPage, error) {
	if filter.Page == 0 {
		filter.Page = DefaultPage
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Page < 0 || filter.Page > MaxPage || filter.Limit < 0 || filter.Limit > MaxLimit {
		return nil, &models.ValidationError{
			Err: fmt.Errorf("page must be between 1 and %d and limit between 1 and %d", MaxPage, MaxLimit),
		}
	}

	letters, total, err := s.db.ListLetters(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.LetterPage{
		Data: letters,
		Pagination: models.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: (total + int64(filter.Limit) - 1) / int64(filter.Limit),
		},
	}, nil
}
