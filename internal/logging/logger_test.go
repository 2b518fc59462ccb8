package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aat-go/internal/config"
)

func TestInitWritesLevelFiles(t *testing.T) {
	root := t.TempDir()
	log, err := Init(root, config.LoggingConfig{
		Directory:    "logs",
		MaxSize:      1,
		MaxBackups:   1,
		MaxAge:       1,
		ConsoleLevel: "error",
	})
	require.NoError(t, err)

	log.Info("analyzed", zap.String("file", "a.log"))
	_ = log.Sync()

	day := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(root, "logs", day+"-info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"analyzed"`)
	assert.Contains(t, string(data), `"file":"a.log"`)

	_, err = os.Stat(filepath.Join(root, "logs", day+"-warn.log"))
	assert.True(t, os.IsNotExist(err), "nothing was logged at warn")
}

func TestGormZapLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormZapLogger(zap.New(core), logger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, nil)
	assert.Zero(t, logs.Len(), "fast statements are below Warn")

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "lookup misses are not errors")

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)

	gl.Trace(context.Background(), time.Now(), sql, errors.New("relation does not exist"))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)

	silent := gl.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
