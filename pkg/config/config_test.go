package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vectral/lazyvec/pkg/vecerrors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.UseLazy)
	require.False(t, cfg.StripNuls)
	require.Equal(t, "none", cfg.Compression)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownCodec(t *testing.T) {
	cfg := Default()
	cfg.Compression = "lz999"
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, vecerrors.IsType(err, vecerrors.ErrorTypeConfig))
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazyvec.yaml")

	cfg := Default()
	cfg.StripNuls = true
	cfg.Compression = "zstd"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.StripNuls)
	require.Equal(t, "zstd", loaded.Compression)
	require.True(t, loaded.UseLazy)
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("LAZYVEC_CODEC", "s2")
	path := filepath.Join(t.TempDir(), "lazyvec.yaml")
	yaml := "use_lazy: true\ncompression: ${LAZYVEC_CODEC}\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "s2", cfg.Compression)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
