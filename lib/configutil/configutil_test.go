package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url      string `json:"url"`
	Attempts int    `json:"attempts"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{url: "https://registry.test", attempts: 2}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{attempts: 4}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://registry.test", config.Url)
	require.Equal(t, 4, config.Attempts)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadWithDefaults(t *testing.T) {
	defaults := testConfig{Url: "https://registry.test", Attempts: 2}

	dir := t.TempDir()
	config, err := ReadWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	writeFile(t, filepath.Join(dir, "config.json5"), `{attempts: 7}`)
	config, err = ReadWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "https://registry.test", config.Url)
	require.Equal(t, 7, config.Attempts)
}
