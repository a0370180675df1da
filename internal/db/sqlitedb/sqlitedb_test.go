package sqlitedb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "db", "arsip.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUnit(t *testing.T, db *SQLiteDB, code, name string) int64 {
	t.Helper()
	id, err := db.CreateUnit(context.Background(), &models.Unit{Code: code, Name: name})
	require.NoError(t, err)
	return id
}

func record(sender, number, date, subject string, year int) *models.LetterRecord {
	parsed, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return &models.LetterRecord{
		Sender:  sender,
		Number:  number,
		Date:    parsed,
		Subject: subject,
		Year:    year,
	}
}

func mustLetter(t *testing.T, db *SQLiteDB, rec *models.LetterRecord, unitIDs ...int64) int64 {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTransaction(ctx)
	require.NoError(t, err)
	id, err := db.InsertLetter(ctx, rec, tx)
	require.NoError(t, err)
	require.NoError(t, db.InsertLetterUnits(ctx, id, unitIDs, tx))
	require.NoError(t, db.CommitTransaction(tx))
	return id
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arsip.db")

	first, err := New(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.NoError(t, second.Ping(context.Background()))
	require.NoError(t, second.Close())
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "hash", Role: models.RoleAdmin}, nil)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = db.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "other", Role: models.RoleUser}, nil)
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)

	usr, err := db.GetUserByUsername(ctx, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: id, Username: "admin", PasswordHash: "hash", Role: models.RoleAdmin}, usr)

	_, err = db.GetUserByUsername(ctx, "nobody", nil)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, db.UpdateUserCredentials(ctx, "admin", "new-hash", models.RoleAdmin, nil))
	usr, err = db.GetUserByUsername(ctx, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", usr.PasswordHash)

	assert.ErrorIs(t, db.UpdateUserCredentials(ctx, "nobody", "x", models.RoleUser, nil), models.ErrUserNotFound)
}

func TestUnits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tu := mustUnit(t, db, "TU", "Tata Usaha")
	mustUnit(t, db, "PHP", "Penetapan Hak dan Pendaftaran")

	_, err := db.CreateUnit(ctx, &models.Unit{Code: "TU", Name: "Duplikat"})
	assert.ErrorIs(t, err, models.ErrDuplicateUnitCode)

	units, err := db.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "PHP", units[0].Code)
	assert.Equal(t, "TU", units[1].Code)

	require.NoError(t, db.UpdateUnit(ctx, &models.Unit{ID: tu, Code: "TU2", Name: "Tata Usaha Baru"}))
	assert.ErrorIs(t, db.UpdateUnit(ctx, &models.Unit{ID: tu, Code: "PHP", Name: "x"}), models.ErrDuplicateUnitCode)
	assert.ErrorIs(t, db.UpdateUnit(ctx, &models.Unit{ID: 999, Code: "X", Name: "x"}), models.ErrUnitNotFound)

	require.NoError(t, db.DeleteUnit(ctx, tu))
	assert.ErrorIs(t, db.DeleteUnit(ctx, tu), models.ErrUnitNotFound)

	units, err = db.ListUnits(ctx)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestLetterWriteAndRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tu := mustUnit(t, db, "TU", "Tata Usaha")
	php := mustUnit(t, db, "PHP", "Penetapan Hak")
	ptsl := mustUnit(t, db, "PTSL", "Pendaftaran Tanah Sistematis")

	file := "surat-1-abc.pdf"
	rec := record("Kanwil BPN Sumsel", "001/2024", "2024-03-15", "Undangan rapat", 2024)
	rec.File = &file
	id := mustLetter(t, db, rec, tu, ptsl, php)

	letter, err := db.GetLetter(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Kanwil BPN Sumsel", letter.Sender)
	assert.Equal(t, "001/2024", letter.Number)
	assert.Equal(t, "2024-03-15", letter.Date.String())
	assert.Equal(t, 2024, letter.Year)
	require.NotNil(t, letter.File)
	assert.Equal(t, file, *letter.File)
	assert.Equal(t, "PHP, PTSL, TU", letter.UnitList)
	assert.WithinDuration(t, time.Now(), letter.CreatedAt, time.Minute)

	_, err = db.GetLetter(ctx, id+100)
	assert.ErrorIs(t, err, models.ErrLetterNotFound)

	stored, err := db.FindLetterFile(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, &file, stored)

	bare := mustLetter(t, db, record("A", "B", "2024-01-01", "C", 2024))
	stored, err = db.FindLetterFile(ctx, bare, nil)
	require.NoError(t, err)
	assert.Nil(t, stored)

	letter, err = db.GetLetter(ctx, bare)
	require.NoError(t, err)
	assert.Empty(t, letter.UnitList)
	assert.Nil(t, letter.File)
}

func TestInsertLetterUnitsFailures(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tu := mustUnit(t, db, "TU", "Tata Usaha")

	testCases := []struct {
		name        string
		unitIDs     []int64
		expectedErr error
	}{
		{name: "unknown unit", unitIDs: []int64{tu, 404}, expectedErr: models.ErrUnknownUnit},
		{name: "repeated unit", unitIDs: []int64{tu, tu}, expectedErr: models.ErrDuplicateUnitInRequest},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tx, err := db.BeginTransaction(ctx)
			require.NoError(t, err)

			id, err := db.InsertLetter(ctx, record("A", "B", "2024-01-01", "C", 2024), tx)
			require.NoError(t, err)

			err = db.InsertLetterUnits(ctx, id, testCase.unitIDs, tx)
			assert.ErrorIs(t, err, testCase.expectedErr)
			require.NoError(t, db.RollbackTransaction(tx))

			count, err := db.CountLetters(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "a rolled back letter must not persist")
		})
	}
}

func TestUpdateAndDeleteLetter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tu := mustUnit(t, db, "TU", "Tata Usaha")
	php := mustUnit(t, db, "PHP", "Penetapan Hak")

	id := mustLetter(t, db, record("A", "1", "2024-01-01", "S", 2024), tu)

	tx, err := db.BeginTransaction(ctx)
	require.NoError(t, err)
	newFile := "surat-2-def.png"
	updated := record("B", "2", "2024-02-02", "T", 2024)
	updated.File = &newFile
	require.NoError(t, db.UpdateLetter(ctx, id, updated, tx))
	require.NoError(t, db.DeleteLetterUnits(ctx, id, tx))
	require.NoError(t, db.InsertLetterUnits(ctx, id, []int64{php}, tx))
	require.NoError(t, db.CommitTransaction(tx))

	letter, err := db.GetLetter(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "B", letter.Sender)
	assert.Equal(t, "2024-02-02", letter.Date.String())
	assert.Equal(t, "PHP", letter.UnitList)
	assert.Equal(t, &newFile, letter.File)

	assert.ErrorIs(t, db.UpdateLetter(ctx, id+1, updated, nil), models.ErrLetterNotFound)

	require.NoError(t, db.DeleteLetter(ctx, id, nil))
	assert.ErrorIs(t, db.DeleteLetter(ctx, id, nil), models.ErrLetterNotFound)

	perUnit, err := db.CountLettersPerUnit(ctx)
	require.NoError(t, err)
	for _, row := range perUnit {
		assert.Zero(t, row.Count, "associations are removed with the letter")
	}
}

func TestDeletedUnitLeavesAssociations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tu := mustUnit(t, db, "TU", "Tata Usaha")
	php := mustUnit(t, db, "PHP", "Penetapan Hak")
	id := mustLetter(t, db, record("A", "1", "2024-01-01", "S", 2024), tu, php)

	require.NoError(t, db.DeleteUnit(ctx, tu))

	letter, err := db.GetLetter(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PHP", letter.UnitList)
}

func TestListLetters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tu := mustUnit(t, db, "TU", "Tata Usaha")
	php := mustUnit(t, db, "PHP", "Penetapan Hak")

	mustLetter(t, db, record("Kanwil", "001/2023", "2023-12-30", "Laporan akhir tahun", 2023), tu)
	mustLetter(t, db, record("Kantah Banyuasin", "002/2024", "2024-01-10", "Undangan RAPAT", 2024), tu, php)
	mustLetter(t, db, record("Pemkot", "003/2024", "2024-02-01", "Diskon 50% BPHTB", 2024), php)
	mustLetter(t, db, record("Pemkot", "004/2024", "2024-02-01", "Sertifikat_tanah", 2024))

	testCases := []struct {
		name            string
		filter          models.LetterFilter
		expectedNumbers []string
		expectedTotal   int64
	}{
		{
			name:            "no filter, newest date first and id breaks ties",
			filter:          models.LetterFilter{Page: 1, Limit: 10},
			expectedNumbers: []string{"004/2024", "003/2024", "002/2024", "001/2023"},
			expectedTotal:   4,
		},
		{
			name:            "year",
			filter:          models.LetterFilter{Year: 2023, Page: 1, Limit: 10},
			expectedNumbers: []string{"001/2023"},
			expectedTotal:   1,
		},
		{
			name:            "unit code",
			filter:          models.LetterFilter{UnitCode: "PHP", Page: 1, Limit: 10},
			expectedNumbers: []string{"003/2024", "002/2024"},
			expectedTotal:   2,
		},
		{
			name:            "search is case-insensitive",
			filter:          models.LetterFilter{Search: "rapat", Page: 1, Limit: 10},
			expectedNumbers: []string{"002/2024"},
			expectedTotal:   1,
		},
		{
			name:            "search matches the number",
			filter:          models.LetterFilter{Search: "001/", Page: 1, Limit: 10},
			expectedNumbers: []string{"001/2023"},
			expectedTotal:   1,
		},
		{
			name:            "percent is literal",
			filter:          models.LetterFilter{Search: "50%", Page: 1, Limit: 10},
			expectedNumbers: []string{"003/2024"},
			expectedTotal:   1,
		},
		{
			name:            "underscore matches itself",
			filter:          models.LetterFilter{Search: "t_t", Page: 1, Limit: 10},
			expectedNumbers: []string{"004/2024"},
			expectedTotal:   1,
		},
		{
			name:            "underscore is not a wildcard",
			filter:          models.LetterFilter{Search: "a_a", Page: 1, Limit: 10},
			expectedNumbers: []string{},
			expectedTotal:   0,
		},
		{
			name:            "combined filters",
			filter:          models.LetterFilter{Year: 2024, UnitCode: "TU", Search: "banyuasin", Page: 1, Limit: 10},
			expectedNumbers: []string{"002/2024"},
			expectedTotal:   1,
		},
		{
			name:            "page past the end",
			filter:          models.LetterFilter{Page: 3, Limit: 2},
			expectedNumbers: []string{},
			expectedTotal:   4,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			letters, total, err := db.ListLetters(ctx, testCase.filter)
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedTotal, total)

			numbers := []string{}
			for _, letter := range letters {
				numbers = append(numbers, letter.Number)
			}
			assert.Equal(t, testCase.expectedNumbers, numbers)
		})
	}

	t.Run("unit filter keeps every unit in unit_list", func(t *testing.T) {
		letters, _, err := db.ListLetters(ctx, models.LetterFilter{UnitCode: "TU", Year: 2024, Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, letters, 1)
		assert.Equal(t, "PHP, TU", letters[0].UnitList)
	})
}

func TestListLettersSearchFoldsUnicode(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustLetter(t, db, record("Dinas PÉMDA", "001/2024", "2024-03-01", "Koordinasi", 2024))
	mustLetter(t, db, record("Kanwil", "002/2024", "2024-03-02", "ÜBERSICHT Tanah", 2024))
	mustLetter(t, db, record("Pemkot", "003/2024", "2024-03-03", "Laporan", 2024))

	testCases := []struct {
		name            string
		search          string
		expectedNumbers []string
	}{
		{name: "lower-case needle, upper-case accented sender", search: "pémda", expectedNumbers: []string{"001/2024"}},
		{name: "upper-case needle", search: "PÉMDA", expectedNumbers: []string{"001/2024"}},
		{name: "accented subject", search: "übersicht", expectedNumbers: []string{"002/2024"}},
		{name: "accent is not dropped", search: "pemda", expectedNumbers: []string{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			letters, total, err := db.ListLetters(ctx, models.LetterFilter{Search: testCase.search, Page: 1, Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, int64(len(testCase.expectedNumbers)), total)

			numbers := []string{}
			for _, letter := range letters {
				numbers = append(numbers, letter.Number)
			}
			assert.Equal(t, testCase.expectedNumbers, numbers)
		})
	}
}

func TestListLettersPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(models.DateLayout)
		mustLetter(t, db, record("Pengirim", fmt.Sprintf("%03d", i), date, "Perihal", 2024))
	}

	letters, total, err := db.ListLetters(ctx, models.LetterFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, letters, 10)
	assert.Equal(t, "015", letters[0].Number)
	assert.Equal(t, "006", letters[9].Number)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tu := mustUnit(t, db, "TU", "Tata Usaha")
	php := mustUnit(t, db, "PHP", "Penetapan Hak")
	mustUnit(t, db, "AAA", "Tanpa Surat")

	mustLetter(t, db, record("A", "1", "2024-01-05", "S", 2024), tu)
	mustLetter(t, db, record("A", "2", "2024-01-20", "S", 2024), tu, php)
	mustLetter(t, db, record("A", "3", "2024-03-01", "S", 2024), tu)
	mustLetter(t, db, record("A", "4", "2023-03-01", "S", 2023))
	last := mustLetter(t, db, record("A", "5", "2022-07-01", "S", 2024))

	total, err := db.CountLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	ofYear, err := db.CountLettersOfYear(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(4), ofYear)

	perUnit, err := db.CountLettersPerUnit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UnitLetterCount{
		{Code: "TU", Name: "Tata Usaha", Count: 3},
		{Code: "PHP", Name: "Penetapan Hak", Count: 1},
		{Code: "AAA", Name: "Tanpa Surat", Count: 0},
	}, perUnit)

	perMonth, err := db.CountLettersPerMonth(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthLetterCount{
		{Month: 1, Count: 2},
		{Month: 3, Count: 1},
	}, perMonth)

	recent, err := db.RecentLetters(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, last, recent[0].ID)
	assert.Equal(t, "4", recent[1].Number)
}
