package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/arsipsurat/internal/auth"
	"github.com/patric-chuzhbe/arsipsurat/internal/config"
	"github.com/patric-chuzhbe/arsipsurat/internal/db/sqlitedb"
	"github.com/patric-chuzhbe/arsipsurat/internal/filestore"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

func TestGetAvailableStorageType(t *testing.T) {
	type tTestCase struct {
		name     string
		cfg      config.Config
		expected int
	}
	testCases := []tTestCase{
		{"dsn wins", config.Config{DatabaseDSN: "postgres://x", SQLitePath: "a.db"}, models.StorageTypePostgresql},
		{"sqlite", config.Config{SQLitePath: "a.db"}, models.StorageTypeSQLite},
		{"nothing", config.Config{}, models.StorageTypeUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, getAvailableStorageType(&tc.cfg))
		})
	}

	_, err := getStorageByType(context.Background(), &config.Config{})
	assert.Error(t, err)
}

func TestGetFileStoreByType(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	files, err := getFileStoreByType(context.Background(), &config.Config{
		FileStorage:   models.FileStorageDisk,
		UploadDir:     dir,
		MaxUploadSize: 1024,
	})
	require.NoError(t, err)
	disk, ok := files.(*filestore.Disk)
	require.True(t, ok)
	assert.Equal(t, dir, disk.Dir())

	_, err = getFileStoreByType(context.Background(), &config.Config{FileStorage: "ftp"})
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		SQLitePath:          filepath.Join(t.TempDir(), "arsip.db"),
		DBConnectionTimeout: 5 * time.Second,
	}

	created, err := SeedAdmin(ctx, cfg, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(ctx, cfg, "admin", "rotated")
	require.NoError(t, err)
	assert.False(t, created)

	db, err := sqlitedb.New(ctx, cfg.SQLitePath, cfg.DBConnectionTimeout)
	require.NoError(t, err)
	defer db.Close()

	usr, err := db.GetUserByUsername(ctx, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, usr.Role)
	assert.True(t, auth.ComparePassword(usr.PasswordHash, "rotated"))
}
