package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/tubedigest/pkg/database"
)

func setupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
