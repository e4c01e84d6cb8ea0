package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Setenv("TEST_CSV", " http://a:1, http://b:2 ,,http://a:1")
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, CSV("TEST_CSV", []string{"x"}))

	t.Setenv("TEST_CSV", " , ")
	assert.Equal(t, []string{"x"}, CSV("TEST_CSV", []string{"x"}))
}

func TestNumericFallbacks(t *testing.T) {
	t.Setenv("TEST_INT", "-3")
	assert.Equal(t, 7, Int("TEST_INT", 7))

	t.Setenv("TEST_INT64", "52428800")
	assert.Equal(t, int64(52428800), Int64("TEST_INT64", 1))

	t.Setenv("TEST_MS", "250")
	assert.Equal(t, 250*time.Millisecond, Millis("TEST_MS", time.Second))

	t.Setenv("TEST_DUR", "nope")
	assert.Equal(t, time.Minute, Duration("TEST_DUR", time.Minute))

	t.Setenv("TEST_BOOL", "yes")
	assert.True(t, Bool("TEST_BOOL", true))
	t.Setenv("TEST_BOOL", "false")
	assert.False(t, Bool("TEST_BOOL", true))
}

func TestLoadKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ENV_LOAD_A=from-file\nENV_LOAD_B=from-file\n"), 0o600))

	t.Setenv("ENV_LOAD_A", "from-env")
	os.Unsetenv("ENV_LOAD_B")
	t.Cleanup(func() { os.Unsetenv("ENV_LOAD_B") })

	require.NoError(t, Load(path))
	assert.Equal(t, "from-env", String("ENV_LOAD_A", ""))
	assert.Equal(t, "from-file", String("ENV_LOAD_B", ""))

	assert.NoError(t, Load(filepath.Join(dir, "missing.env")))
}
