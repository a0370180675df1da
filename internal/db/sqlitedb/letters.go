package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// letterColumns selects a letter row with its unit codes aggregated into
// unit_list, ordered by kode_unit.
const letterColumns = `
	s.id_surat, s.pengirim, s.nomor_surat, s.tanggal_surat, s.perihal, s.tahun, s.file_surat, s.created_at,
	COALESCE((
		SELECT group_concat(u.kode_unit, ', ' ORDER BY u.kode_unit)
			FROM surat_unit su
				JOIN unit u ON u.id_unit = su.id_unit
			WHERE su.id_surat = s.id_surat
	), '') AS unit_list`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (models.Letter, error) {
	var (
		letter    models.Letter
		file      sql.NullString
		createdAt timestamp
	)
	err := row.Scan(
		&letter.ID,
		&letter.Sender,
		&letter.Number,
		&letter.Date,
		&letter.Subject,
		&letter.Year,
		&file,
		&createdAt,
		&letter.UnitList,
	)
	if err != nil {
		return models.Letter{}, err
	}
	if file.Valid {
		letter.File = &file.String
	}
	letter.CreatedAt = createdAt.Time

	return letter, nil
}

func nullableFile(file *string) sql.NullString {
	if file == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *file, Valid: true}
}

// letterWhere builds the WHERE clause of a listing together with its arguments.
func letterWhere(filter models.LetterFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Year != 0 {
		conditions = append(conditions, "s.tahun = ?")
		args = append(args, filter.Year)
	}
	if filter.UnitCode != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM surat_unit fsu
				JOIN unit fu ON fu.id_unit = fsu.id_unit
			WHERE fsu.id_surat = s.id_surat AND fu.kode_unit = ?)`)
		args = append(args, filter.UnitCode)
	}
	if filter.Search != "" {
		needle := foldCase(filter.Search)
		conditions = append(conditions, `(
			instr(`+foldCaseFunction+`(s.pengirim), ?) > 0
			OR instr(`+foldCaseFunction+`(s.nomor_surat), ?) > 0
			OR instr(`+foldCaseFunction+`(s.perihal), ?) > 0)`)
		args = append(args, needle, needle, needle)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListLetters returns the requested page of letters matching filter and the
// number of all matching letters.
func (db *SQLiteDB) ListLetters(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int64, error) {
	where, args := letterWhere(filter)

	countQuery := `SELECT COUNT(*) FROM surat s` + where
	var total int64
	if err := db.database.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("in internal/db/sqlitedb/letters.go/ListLetters(): error while counting: %w", err)
	}

	pageQuery := `SELECT` + letterColumns + ` FROM surat s` + where +
		` ORDER BY s.tanggal_surat DESC, s.id_surat DESC LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset())

	letters, err := db.queryLetters(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("in internal/db/sqlitedb/letters.go/ListLetters(): error while `db.queryLetters()` calling: %w", err)
	}

	return letters, total, nil
}

// RecentLetters returns the limit most recently created letters.
func (db *SQLiteDB) RecentLetters(ctx context.Context, limit int) ([]models.Letter, error) {
	query := `SELECT` + letterColumns + ` FROM surat s ORDER BY s.created_at DESC, s.id_surat DESC LIMIT ?`
	return db.queryLetters(ctx, query, limit)
}

func (db *SQLiteDB) queryLetters(ctx context.Context, query string, args ...any) ([]models.Letter, error) {
	rows, err := db.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Letter{}
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, letter)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetLetter returns one letter or models.ErrLetterNotFound.
func (db *SQLiteDB) GetLetter(ctx context.Context, letterID int64) (*models.Letter, error) {
	query := `SELECT` + letterColumns + ` FROM surat s WHERE s.id_surat = ?`
	letter, err := scanLetter(db.database.QueryRowContext(ctx, query, letterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/letters.go/GetLetter(): error while `scanLetter()` calling: %w", err)
	}

	return &letter, nil
}

// InsertLetter inserts the letter row and returns its id.
func (db *SQLiteDB) InsertLetter(ctx context.Context, record *models.LetterRecord, transaction *sql.Tx) (int64, error) {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`
			INSERT INTO surat (pengirim, nomor_surat, tanggal_surat, perihal, tahun, file_surat)
				VALUES (?, ?, ?, ?, ?, ?)
		`,
		record.Sender,
		record.Number,
		record.Date.String(),
		record.Subject,
		record.Year,
		nullableFile(record.File),
	)
	if err != nil {
		return 0, fmt.Errorf("in internal/db/sqlitedb/letters.go/InsertLetter(): error while `ExecContext()` calling: %w", err)
	}

	return result.LastInsertId()
}

// UpdateLetter replaces every column of the letter.
func (db *SQLiteDB) UpdateLetter(ctx context.Context, letterID int64, record *models.LetterRecord, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`
			UPDATE surat
				SET pengirim = ?,
					nomor_surat = ?,
					tanggal_surat = ?,
					perihal = ?,
					tahun = ?,
					file_surat = ?
				WHERE id_surat = ?
		`,
		record.Sender,
		record.Number,
		record.Date.String(),
		record.Subject,
		record.Year,
		nullableFile(record.File),
		letterID,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/sqlitedb/letters.go/UpdateLetter(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrLetterNotFound)
}

// FindLetterFile returns the attachment name of the letter, nil when it has none.
func (db *SQLiteDB) FindLetterFile(ctx context.Context, letterID int64, transaction *sql.Tx) (*string, error) {
	var file sql.NullString
	err := db.queryer(transaction).
		QueryRowContext(ctx, `SELECT file_surat FROM surat WHERE id_surat = ?`, letterID).
		Scan(&file)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/letters.go/FindLetterFile(): error while `Scan()` calling: %w", err)
	}
	if !file.Valid {
		return nil, nil
	}

	return &file.String, nil
}

// DeleteLetter removes the letter. Its associations go with it by cascade.
func (db *SQLiteDB) DeleteLetter(ctx context.Context, letterID int64, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(ctx, `DELETE FROM surat WHERE id_surat = ?`, letterID)
	if err != nil {
		return fmt.Errorf("in internal/db/sqlitedb/letters.go/DeleteLetter(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrLetterNotFound)
}

// InsertLetterUnits associates the letter with each unit in order. An id
// missing from the unit table inserts nothing and fails with
// models.ErrUnknownUnit; a repeated id fails with
// models.ErrDuplicateUnitInRequest.
func (db *SQLiteDB) InsertLetterUnits(ctx context.Context, letterID int64, unitIDs []int64, transaction *sql.Tx) error {
	database := db.executor(transaction)
	for _, unitID := range unitIDs {
		result, err := database.ExecContext(
			ctx,
			`INSERT INTO surat_unit (id_surat, id_unit) SELECT ?, id_unit FROM unit WHERE id_unit = ?`,
			letterID,
			unitID,
		)
		if err != nil {
			switch constraintCode(err) {
			case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
				return fmt.Errorf("%w: %d", models.ErrDuplicateUnitInRequest, unitID)
			case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
				return models.ErrLetterNotFound
			}
			return fmt.Errorf("in internal/db/sqlitedb/letters.go/InsertLetterUnits(): error while `ExecContext()` calling: %w", err)
		}

		if err := expectAffected(result, models.ErrUnknownUnit); err != nil {
			return fmt.Errorf("%w: %d", err, unitID)
		}
	}

	return nil
}

// DeleteLetterUnits drops every association of the letter.
func (db *SQLiteDB) DeleteLetterUnits(ctx context.Context, letterID int64, transaction *sql.Tx) error {
	_, err := db.executor(transaction).ExecContext(ctx, `DELETE FROM surat_unit WHERE id_surat = ?`, letterID)
	if err != nil {
		return fmt.Errorf("in internal/db/sqlitedb/letters.go/DeleteLetterUnits(): error while `ExecContext()` calling: %w", err)
	}

	return nil
}
