package postgresdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// ListUnits returns every unit ordered by code.
func (db *PostgresDB) ListUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id_unit, kode_unit, nama_unit FROM unit ORDER BY kode_unit`,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/units.go/ListUnits(): error while `QueryContext()` calling: %w", err)
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
func (db *PostgresDB) CreateUnit(ctx context.Context, unit *models.Unit) (int64, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO unit (kode_unit, nama_unit) VALUES ($1, $2) RETURNING id_unit`,
		unit.Code,
		unit.Name,
	)
	var unitID int64
	if err := row.Scan(&unitID); err != nil {
		if constraintError(err) == codeUniqueViolation {
			return 0, models.ErrDuplicateUnitCode
		}
		return 0, fmt.Errorf("in internal/db/postgresdb/units.go/CreateUnit(): error while `row.Scan()` calling: %w", err)
	}

	return unitID, nil
}

// UpdateUnit replaces the code and name of unit.ID.
func (db *PostgresDB) UpdateUnit(ctx context.Context, unit *models.Unit) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE unit SET kode_unit = $1, nama_unit = $2 WHERE id_unit = $3`,
		unit.Code,
		unit.Name,
		unit.ID,
	)
	if err != nil {
		if constraintError(err) == codeUniqueViolation {
			return models.ErrDuplicateUnitCode
		}
		return fmt.Errorf("in internal/db/postgresdb/units.go/UpdateUnit(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrUnitNotFound)
}

// DeleteUnit removes the unit. Associations that point at it are left alone.
func (db *PostgresDB) DeleteUnit(ctx context.Context, unitID int64) error {
	result, err := db.database.ExecContext(ctx, `DELETE FROM unit WHERE id_unit = $1`, unitID)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/units.go/DeleteUnit(): error while `ExecContext()` calling: %w", err)
	}

	return expectAffected(result, models.ErrUnitNotFound)
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
