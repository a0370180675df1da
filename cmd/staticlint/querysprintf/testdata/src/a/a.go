package a

import (
	"context"
	"database/sql"
	"fmt"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type notADatabase struct{}

func (notADatabase) Exec(query string) error { return nil }

func letters(ctx context.Context, db *sql.DB, tx *sql.Tx, q queryer, table string, year int) {
	_, _ = db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table)) // want "query built with fmt.Sprintf"
	_, _ = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM surat WHERE tahun = %d", year)) // want "query built with fmt.Sprintf"
	_ = q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)) // want "query built with fmt.Sprintf"
	_, _ = db.Exec(fmt.Sprintf("VACUUM %s", table)) // want "query built with fmt.Sprintf"

	_, _ = db.QueryContext(ctx, "SELECT * FROM surat WHERE tahun = ?", year)
	query := "SELECT * FROM surat WHERE tahun = ?"
	_ = q.QueryRowContext(ctx, query, year)
	_ = notADatabase{}.Exec(fmt.Sprintf("%d", year))
}
