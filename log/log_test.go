package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logWriter = &buf
	t.Cleanup(func() { logWriter = os.Stdout })

	hooked := 0
	hook := func(entry zapcore.Entry) error {
		hooked++
		require.Equal(t, zapcore.InfoLevel, entry.Level)
		return nil
	}
	logger := NewWithLevel("logtest", zap.NewAtomicLevelAt(zapcore.InfoLevel), hook)
	logger.Debug("hidden")
	require.Empty(t, buf.String())
	require.Zero(t, hooked)

	logger.Info("visible", zap.Int("rank", 3))
	require.Contains(t, buf.String(), "logtest")
	require.Contains(t, buf.String(), "visible")
	require.Contains(t, buf.String(), `"rank": 3`)
	require.Equal(t, 1, hooked)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("", zapcore.WarnLevel)
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, lvl.Level())

	lvl, err = ParseLevel("debug", zapcore.WarnLevel)
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl.Level())

	_, err = ParseLevel("loud", zapcore.WarnLevel)
	require.Error(t, err)
}

func TestTeeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run", RankFileName(2))
	require.Equal(t, "train_log_rank2.txt", filepath.Base(path))

	logger, closer, err := TeeToFile(zap.NewNop(), path, zapcore.InfoLevel)
	require.NoError(t, err)
	logger.Info("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "written to file")
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, Context(ctx))

	ctx = WithSessionID(ctx, "sync-1", zap.Int("source", 0))
	id, ok := ExtractSessionID(ctx)
	require.True(t, ok)
	require.Equal(t, "sync-1", id)
	require.Len(t, Context(ctx), 2)
}

func TestNewSessionID(t *testing.T) {
	first, ok := ExtractSessionID(WithNewSessionID(context.Background()))
	require.True(t, ok)
	second, _ := ExtractSessionID(WithNewSessionID(context.Background()))
	require.Len(t, first, 36)
	require.NotEqual(t, first, second)
}

func TestFatalError(t *testing.T) {
	reason := os.ErrPermission
	err := ErrBootstrap(reason)
	require.ErrorIs(t, err, os.ErrPermission)
	require.Equal(t, "ERR_BOOTSTRAP", err.Code)
	require.Contains(t, err.Error(), "run identity bootstrap failed")
}
