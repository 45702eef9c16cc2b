package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/config"
)

type testConfig struct {
	Addr    string        `env:"TESTCFG_ADDR" envDefault:":8080"`
	Secret  string        `env:"TESTCFG_SECRET,required"`
	Timeout time.Duration `env:"TESTCFG_TIMEOUT" envDefault:"30s"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TESTCFG_SECRET", "s3cret")
	t.Setenv("TESTCFG_TIMEOUT", "5s")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_RequiredMissing(t *testing.T) {
	t.Setenv("TESTCFG_SECRET", "")
	os.Unsetenv("TESTCFG_SECRET")

	var cfg testConfig
	require.Error(t, config.Load(&cfg))
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TESTCFG_FROMFILE=hello\nTESTCFG_PRESET=file\n"), 0o600))

	// Variables already set in the environment are never overridden.
	t.Setenv("TESTCFG_PRESET", "env")
	t.Setenv("TESTCFG_FROMFILE", "")
	os.Unsetenv("TESTCFG_FROMFILE")

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "hello", os.Getenv("TESTCFG_FROMFILE"))
	assert.Equal(t, "env", os.Getenv("TESTCFG_PRESET"))
}

func TestLoadEnv_MissingFile(t *testing.T) {
	t.Parallel()

	err := config.LoadEnv(filepath.Join(t.TempDir(), "nope.env"))
	require.ErrorIs(t, err, config.ErrFailedToLoadEnvFile)
}
