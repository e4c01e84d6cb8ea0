package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogfWritesStdoutAndFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	Init(Options{
		FilePath:     filepath.Join(dir, "app.log"),
		MaxSizeBytes: 1 << 20,
		JSON:         true,
		Level:        slog.LevelDebug,
		Stdout:       &out,
	})
	t.Cleanup(func() { Init(Options{Stdout: &bytes.Buffer{}}) })

	Exceptionf("cleanup failed for %s", "students/r1/1.jpg")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &line))
	assert.Equal(t, "EXCEPTION", line["level"])
	assert.Equal(t, "cleanup failed for students/r1/1.jpg", line["msg"])
	assert.Contains(t, line["caller"], "TestLogfWritesStdoutAndFile")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "cleanup failed")
}

func TestLevelFilter(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Level: slog.LevelWarn, Stdout: &out})
	t.Cleanup(func() { Init(Options{Stdout: &bytes.Buffer{}}) })

	Debugf("hidden")
	Warnf("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestRotatingFileMovesFullFileAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rot.log")
	w := newRotatingFile(path, 16)
	t.Cleanup(func() { _ = w.Close() })

	_, err := w.Write([]byte("0123456789\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghij\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij\n", string(current))

	var rotated string
	for _, e := range entries {
		if e.Name() != "rot.log" {
			rotated = e.Name()
		}
	}
	assert.True(t, strings.HasPrefix(rotated, "rot_"))
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_FILE_PATH", "")
	t.Setenv("LOG_MAX_SIZE_MB", "5")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_LEVEL", "warn")

	opts := OptionsFromEnv()
	assert.Equal(t, defaultLogFilePath, opts.FilePath)
	assert.Equal(t, int64(5*1024*1024), opts.MaxSizeBytes)
	assert.True(t, opts.JSON)
	assert.Equal(t, slog.LevelWarn, opts.Level)
}
