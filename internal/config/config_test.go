package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 90, cfg.JPEG.Quality)
	assert.Equal(t, "pretty", cfg.Logging.Format)

	loaded, err := config.Load("")
	assert.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_NonexistentDoesntFail(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
jpeg:
  quality: 75
exif:
  unknown: remove
logging:
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.JPEG.Quality)
	assert.Equal(t, 85, cfg.JPEG.ThumbnailQuality)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "-rotated", cfg.Output.Suffix)

	opts := cfg.CodecOptions()
	assert.Equal(t, 75, opts.Quality)
	assert.EqualValues(t, exif.Remove, opts.Control.Unknown)
	assert.True(t, opts.Control.Warn)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, "jpeg:\n  quality: 0\nexif:\n  unknown: maybe\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jpeg.quality")
	assert.Contains(t, err.Error(), "exif.unknown")

	_, err = config.Load(writeConfig(t, "jpeg: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestLoad_DirectoryFails(t *testing.T) {
	_, err := config.Load(t.TempDir())
	assert.Error(t, err)
}
