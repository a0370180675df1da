package postgresdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// newTestDB connects to TEST_DATABASE_DSN and wipes it. The tests are skipped
// when the variable is unset.
func newTestDB(t *testing.T) *PostgresDB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	db, err := New(context.Background(), dsn, 5*time.Second, WithDBPreReset(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustLetter(t *testing.T, db *PostgresDB, number, date string, year int, unitIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()
	parsed, err := models.ParseDate(date)
	require.NoError(t, err)

	tx, err := db.BeginTransaction(ctx)
	require.NoError(t, err)
	defer func() { _ = db.RollbackTransaction(tx) }()

	id, err := db.InsertLetter(ctx, &models.LetterRecord{
		Sender:  "Kanwil BPN Sumsel",
		Number:  number,
		Date:    parsed,
		Subject: "Undangan Rapat " + number,
		Year:    year,
	}, tx)
	require.NoError(t, err)
	require.NoError(t, db.InsertLetterUnits(ctx, id, unitIDs, tx))
	require.NoError(t, db.CommitTransaction(tx))
	return id
}

func TestPostgresArchive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "h", Role: models.RoleAdmin}, nil)
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "h", Role: models.RoleAdmin}, nil)
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)

	tu, err := db.CreateUnit(ctx, &models.Unit{Code: "TU", Name: "Tata Usaha"})
	require.NoError(t, err)
	php, err := db.CreateUnit(ctx, &models.Unit{Code: "PHP", Name: "Penetapan Hak"})
	require.NoError(t, err)
	_, err = db.CreateUnit(ctx, &models.Unit{Code: "TU", Name: "x"})
	assert.ErrorIs(t, err, models.ErrDuplicateUnitCode)

	first := mustLetter(t, db, "001", "2024-01-05", 2024, tu, php)
	mustLetter(t, db, "002", "2024-02-05", 2024, php)

	letter, err := db.GetLetter(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "PHP, TU", letter.UnitList)
	assert.Equal(t, "2024-01-05", letter.Date.String())

	letters, total, err := db.ListLetters(ctx, models.LetterFilter{UnitCode: "TU", Search: "rapat", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, letters, 1)
	assert.Equal(t, "PHP, TU", letters[0].UnitList)

	tx, err := db.BeginTransaction(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, db.InsertLetterUnits(ctx, first, []int64{404}, tx), models.ErrUnknownUnit)
	require.NoError(t, db.RollbackTransaction(tx))

	perMonth, err := db.CountLettersPerMonth(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthLetterCount{{Month: 1, Count: 1}, {Month: 2, Count: 1}}, perMonth)

	require.NoError(t, db.DeleteLetter(ctx, first, nil))
	perUnit, err := db.CountLettersPerUnit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UnitLetterCount{
		{Code: "PHP", Name: "Penetapan Hak", Count: 1},
		{Code: "TU", Name: "Tata Usaha", Count: 0},
	}, perUnit)
}
