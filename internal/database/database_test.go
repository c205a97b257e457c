package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCapturedLogger(level logger.LogLevel) (*CustomGormLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := &CustomGormLogger{
		logger: slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	}
	return l, buf
}

func TestGormLoggerLogMode(t *testing.T) {
	l, _ := newCapturedLogger(logger.Warn)
	quieter := l.LogMode(logger.Silent)

	assert.NotSame(t, l, quieter, "LogMode must not mutate the receiver")
	assert.Equal(t, logger.Warn, l.Config.LogLevel)
}

func TestGormLoggerLevels(t *testing.T) {
	ctx := context.Background()

	l, buf := newCapturedLogger(logger.Info)
	l.Info(ctx, "info %s", "msg")
	l.Warn(ctx, "warn %s", "msg")
	l.Error(ctx, "error %s", "msg")
	out := buf.String()
	assert.Contains(t, out, "info msg")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "error msg")

	l, buf = newCapturedLogger(logger.Error)
	l.Info(ctx, "hidden info")
	l.Warn(ctx, "hidden warn")
	l.Error(ctx, "visible error")
	out = buf.String()
	assert.NotContains(t, out, "hidden info")
	assert.NotContains(t, out, "hidden warn")
	assert.Contains(t, out, "visible error")
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l, buf := newCapturedLogger(logger.Warn)
	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	// Not-found rows are routine, not errors.
	l, buf = newCapturedLogger(logger.Warn)
	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "GORM query error")

	l, buf = newCapturedLogger(logger.Warn)
	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	l, buf = newCapturedLogger(logger.Silent)
	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestGormLoggerAgainstMockedPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT version\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.3"))

	gormLogger, buf := newCapturedLogger(logger.Info)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Contains(t, buf.String(), "GORM query")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "stored_files", "posts"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %q", table)
	}
}
