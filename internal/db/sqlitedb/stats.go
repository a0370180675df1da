package sqlitedb

import (
	"context"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// CountLetters returns the number of archived letters.
func (db *SQLiteDB) CountLetters(ctx context.Context) (int64, error) {
	var count int64
	if err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM surat`).Scan(&count); err != nil {
		return 0, fmt.Errorf("in internal/db/sqlitedb/stats.go/CountLetters(): error while `Scan()` calling: %w", err)
	}

	return count, nil
}

// CountLettersOfYear returns the number of letters whose tahun is year.
func (db *SQLiteDB) CountLettersOfYear(ctx context.Context, year int) (int64, error) {
	var count int64
	if err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM surat WHERE tahun = ?`, year).Scan(&count); err != nil {
		return 0, fmt.Errorf("in internal/db/sqlitedb/stats.go/CountLettersOfYear(): error while `Scan()` calling: %w", err)
	}

	return count, nil
}

// CountLettersPerUnit returns a row for every unit, including units with no
// letters, busiest first.
func (db *SQLiteDB) CountLettersPerUnit(ctx context.Context) ([]models.UnitLetterCount, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT u.kode_unit, u.nama_unit, COUNT(su.id_surat) AS jumlah
				FROM unit u
					LEFT JOIN surat_unit su ON su.id_unit = u.id_unit
				GROUP BY u.id_unit, u.kode_unit, u.nama_unit
				ORDER BY jumlah DESC, u.kode_unit
		`,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/stats.go/CountLettersPerUnit(): error while `QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.UnitLetterCount{}
	for rows.Next() {
		var count models.UnitLetterCount
		if err := rows.Scan(&count.Code, &count.Name, &count.Count); err != nil {
			return nil, err
		}
		result = append(result, count)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CountLettersPerMonth returns, for months of year that have letters, the
// number of letters dated in that month. MonthName is left empty.
func (db *SQLiteDB) CountLettersPerMonth(ctx context.Context, year int) ([]models.MonthLetterCount, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT CAST(strftime('%m', tanggal_surat) AS INTEGER) AS bulan, COUNT(*) AS jumlah
				FROM surat
				WHERE CAST(strftime('%Y', tanggal_surat) AS INTEGER) = ?
				GROUP BY bulan
				ORDER BY bulan
		`,
		year,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/stats.go/CountLettersPerMonth(): error while `QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.MonthLetterCount{}
	for rows.Next() {
		var count models.MonthLetterCount
		if err := rows.Scan(&count.Month, &count.Count); err != nil {
			return nil, err
		}
		result = append(result, count)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
