package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCWD(t *testing.T, dir string) {
	t.Helper()
	orig := getwd
	getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { getwd = orig })
}

func TestResolveConfigDir(t *testing.T) {
	withCWD(t, "/work")

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("/flag/config")
		require.NoError(t, err)
		assert.Equal(t, "/flag/config", got)
	})

	t.Run("env used when flag empty", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config", got)
	})

	t.Run("cwd default when nothing set", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/work", DefaultConfigDirName), got)
	})

	t.Run("relative flag is made absolute", func(t *testing.T) {
		got, err := ResolveConfigDir("rel")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestResolveDataDir(t *testing.T) {
	withCWD(t, "/work")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{name: "flag wins", flag: "/flag", config: "/cfg", env: "/env", want: "/flag"},
		{name: "config beats env", config: "/cfg", env: "/env", want: "/cfg"},
		{name: "env when no flag or config", env: "/env", want: "/env"},
		{name: "cwd default", want: filepath.Join("/work", DefaultDataDirName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDirGetwdError(t *testing.T) {
	orig := getwd
	getwd = func() (string, error) { return "", errors.New("no cwd") }
	t.Cleanup(func() { getwd = orig })
	t.Setenv(EnvDataDir, "")

	_, err := ResolveDataDir("", "")
	assert.Error(t, err)
}
