package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// letterColumns selects a letter row with its unit codes aggregated into
// unit_list. The separator matches models.UnitListSeparator.
const letterColumns = `
	s.id_surat, s.pengirim, s.nomor_surat, s.tanggal_surat, s.perihal, s.tahun, s.file_surat, s.created_at,
	COALESCE((
		SELECT string_agg(u.kode_unit, ', ' ORDER BY u.kode_unit)
			FROM surat_unit su
				JOIN unit u ON u.id_unit = su.id_unit
			WHERE su.id_surat = s.id_surat
	), '') AS unit_list`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (models.Letter, error) {
	var (
		letter models.Letter
		file   sql.NullString
	)
	err := row.Scan(
		&letter.ID,
		&letter.Sender,
		&letter.Number,
		&letter.Date,
		&letter.Subject,
		&letter.Year,
		&file,
		&letter.CreatedAt,
		&letter.UnitList,
	)
	if err != nil {
		return models.Letter{}, err
	}
	if file.Valid {
		letter.File = &file.String
	}

	return letter, nil
}

func nullableFile(file *string) sql.NullString {
	if file == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *file, Valid: true}
}

// letterWhere builds the WHERE clause of a listing together with its arguments.
// The unit filter is an EXISTS so unit_list still shows every unit of a match.
func letterWhere(filter models.LetterFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	placeholder := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Year != 0 {
		conditions = append(conditions, "s.tahun = "+placeholder(filter.Year))
	}
	if filter.UnitCode != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM surat_unit fsu
				JOIN unit fu ON fu.id_unit = fsu.id_unit
			WHERE fsu.id_surat = s.id_surat AND fu.kode_unit = `+placeholder(filter.UnitCode)+`)`)
	}
	if filter.Search != "" {
		pattern := placeholder("%" + likeEscaper.Replace(filter.Search) + "%")
		conditions = append(conditions,
			"(s.pengirim ILIKE "+pattern+" OR s.nomor_surat ILIKE "+pattern+" OR s.perihal ILIKE "+pattern+")")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListLetters returns the requested page of letters matching filter and the
// number of all matching letters.
func (db *PostgresDB) ListLetters(ctx context.Context, filter models.LetterFilter) ([]models.Letter, int64, error) {
	where, args := letterWhere(filter)

	countQuery := `SELECT COUNT(*) FROM surat s` + where
	var total int64
	if err := db.database.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("in internal/db/postgresdb/letters.go/ListLetters(): error while counting: %w", err)
	}

	pageQuery := `SELECT` + letterColumns + ` FROM surat s` + where +
		` ORDER BY s.tanggal_surat DESC, s.id_surat DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset())

	letters, err := db.queryLetters(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("in internal/db/postgresdb/letters.go/ListLetters(): error while `db.queryLetters()` calling: %w", err)
	}

	return letters, total, nil
}

// RecentLetters returns the limit most recently created letters.
func (db *PostgresDB) RecentLetters(ctx context.Context, limit int) ([]models.Letter, error) {
	query := `SELECT` + letterColumns + ` FROM surat s ORDER BY s.created_at DESC, s.id_surat DESC LIMIT $1`
	return db.queryLetters(ctx, query, limit)
}

func (db *PostgresDB) queryLetters(ctx context.Context, query string, args ...any) ([]models.Letter, error) {
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
func (db *PostgresDB) GetLetter(ctx context.Context, letterID int64) (*models.Letter, error) {
	query := `SELECT` + letterColumns + ` FROM surat s WHERE s.id_surat = $1`
	letter, err := scanLetter(db.database.QueryRowContext(ctx, query, letterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/letters.go/GetLetter(): error while `scanLetter()` calling: %w", err)
	}

	return &letter, nil
}

// InsertLetter inserts the letter row and returns its id.
func (db *PostgresDB) InsertLetter(ctx context.Context, record *models.LetterRecord, transaction *sql.Tx) (int64, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`
			INSERT INTO surat (pengirim, nomor_surat, tanggal_surat, perihal, tahun, file_surat)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id_surat
		`,
		record.Sender,
		record.Number,
		record.Date,
		record.Subject,
		record.Year,
		nullableFile(record.File),
	)
	var letterID int64
	if err := row.Scan(&letterID); err != nil {
		return 0, fmt.Errorf("in internal/db/postgresdb/letters.go/InsertLetter(): error while `row.Scan()` calling: %w", err)
	}

	return letterID, nil
}

// UpdateLetter replaces every column of the letter.
func (db *PostgresDB) UpdateLetter(ctx context.Context, letterID int64, record *models.LetterRecord, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`
			UPDATE surat
				SET pengirim = $1,
					nomor_surat = $2,
					tanggal_surat = $3,
					perihal = $4,
					tahun = $5,
					file_surat = $6
				WHERE id_surat = $7
		`,
		record.Sender,
		record.Number,
		record.Date,
		record.Subject,
		record.Year,
		nullableFile(record.File),
		letterID,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/letters.go/UpdateLetter(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrLetterNotFound)
}

// FindLetterFile returns the attachment name of the letter, nil when it has
// none. Inside a transaction the row stays locked until it ends.
func (db *PostgresDB) FindLetterFile(ctx context.Context, letterID int64, transaction *sql.Tx) (*string, error) {
	query := `SELECT file_surat FROM surat WHERE id_surat = $1`
	if transaction != nil {
		query += ` FOR UPDATE`
	}

	var file sql.NullString
	err := db.queryer(transaction).QueryRowContext(ctx, query, letterID).Scan(&file)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/letters.go/FindLetterFile(): error while `Scan()` calling: %w", err)
	}
	if !file.Valid {
		return nil, nil
	}

	return &file.String, nil
}

// DeleteLetter removes the letter. Its associations go with it by cascade.
func (db *PostgresDB) DeleteLetter(ctx context.Context, letterID int64, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(ctx, `DELETE FROM surat WHERE id_surat = $1`, letterID)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/letters.go/DeleteLetter(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrLetterNotFound)
}

// InsertLetterUnits associates the letter with each unit in order. An id
// missing from the unit table inserts nothing and fails with
// models.ErrUnknownUnit; a repeated id fails with
// models.ErrDuplicateUnitInRequest.
func (db *PostgresDB) InsertLetterUnits(ctx context.Context, letterID int64, unitIDs []int64, transaction *sql.Tx) error {
	database := db.executor(transaction)
	for _, unitID := range unitIDs {
		result, err := database.ExecContext(
			ctx,
			`INSERT INTO surat_unit (id_surat, id_unit) SELECT $1, id_unit FROM unit WHERE id_unit = $2`,
			letterID,
			unitID,
		)
		if err != nil {
			switch constraintError(err) {
			case codeUniqueViolation:
				return fmt.Errorf("%w: %d", models.ErrDuplicateUnitInRequest, unitID)
			case codeForeignKeyViolation:
				return models.ErrLetterNotFound
			}
			return fmt.Errorf("in internal/db/postgresdb/letters.go/InsertLetterUnits(): error while `ExecContext()` calling: %w", err)
		}

		if err := expectAffected(result, models.ErrUnknownUnit); err != nil {
			return fmt.Errorf("%w: %d", err, unitID)
		}
	}

	return nil
}

// DeleteLetterUnits drops every association of the letter.
func (db *PostgresDB) DeleteLetterUnits(ctx context.Context, letterID int64, transaction *sql.Tx) error {
	_, err := db.executor(transaction).ExecContext(ctx, `DELETE FROM surat_unit WHERE id_surat = $1`, letterID)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/letters.go/DeleteLetterUnits(): error while `ExecContext()` calling: %w", err)
	}

	return nil
}
