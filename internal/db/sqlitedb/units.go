package sqlitedb

import (
	"context"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// ListUnits returns every unit ordered by code.
func (db *SQLiteDB) ListUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := db.database.QueryContext(ctx, `SELECT id_unit, kode_unit, nama_unit FROM unit ORDER BY kode_unit`)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/units.go/ListUnits(): error while `QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.Unit{}
	for rows.Next() {
		var unit models.Unit
		if err := rows.Scan(&unit.ID, &unit.Code, &unit.Name); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CreateUnit inserts unit and returns its id.
func (db *SQLiteDB) CreateUnit(ctx context.Context, unit *models.Unit) (int64, error) {
	result, err := db.database.ExecContext(
		ctx,
		`INSERT INTO unit (kode_unit, nama_unit) VALUES (?, ?)`,
		unit.Code,
		unit.Name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateUnitCode
		}
		return 0, fmt.Errorf("in internal/db/sqlitedb/units.go/CreateUnit(): error while `ExecContext()` calling: %w", err)
	}

	return result.LastInsertId()
}

// UpdateUnit replaces the code and name of unit.ID.
func (db *SQLiteDB) UpdateUnit(ctx context.Context, unit *models.Unit) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE unit SET kode_unit = ?, nama_unit = ? WHERE id_unit = ?`,
		unit.Code,
		unit.Name,
		unit.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateUnitCode
		}
		return fmt.Errorf("in internal/db/sqlitedb/units.go/UpdateUnit(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrUnitNotFound)
}

// DeleteUnit removes the unit. Associations that point at it are left alone.
func (db *SQLiteDB) DeleteUnit(ctx context.Context, unitID int64) error {
	result, err := db.database.ExecContext(ctx, `DELETE FROM unit WHERE id_unit = ?`, unitID)
	if err != nil {
		return fmt.Errorf("in internal/db/sqlitedb/units.go/DeleteUnit(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrUnitNotFound)
}
