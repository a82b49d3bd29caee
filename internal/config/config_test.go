package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"comicdl/internal/domain"
	"comicdl/internal/logger"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_OriginalFormat(t *testing.T) {
	path := writeConfigFile(t, `{
  "config": {
    "save_path": "/data/comics",
    "comics_data_path": "/data/comics/data",
    "wkhtmltopdf_path": "/usr/bin/wkhtmltopdf"
  }
}`)

	c, err := New(path, "1.2.3")
	require.NoError(t, err)

	cfg := c.Config
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "/data/comics", cfg.SavePath)
	assert.Equal(t, "/data/comics/data", cfg.ComicsDataPath)
	assert.Equal(t, "/usr/bin/wkhtmltopdf", cfg.WkhtmltopdfPath)

	// defaults
	assert.Equal(t, filepath.Join("/data/comics", "temp"), cfg.TempPath)
	assert.Equal(t, filepath.Join("/data/comics", "output"), cfg.OutputPath)
	assert.Equal(t, domain.FormatPDF, cfg.OutputFormat)
	assert.Equal(t, "{comic}_chapter_{num}", cfg.NamingTemplate)
	assert.Equal(t, "letter", cfg.PageSize)
	assert.Equal(t, 120, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.DownloadAttempts)
	assert.Equal(t, 0, cfg.MaxConcurrentImages)
	assert.True(t, cfg.SkipExisting)
	assert.Equal(t, 60, cfg.CheckInterval)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 50, cfg.LogMaxSize)
	assert.Equal(t, 3, cfg.LogMaxBackups)
}

func TestNew_AllKeys(t *testing.T) {
	path := writeConfigFile(t, `{
  "config": {
    "save_path": "/s",
    "comics_data_path": "/d",
    "temp_path": "/tmp/comicdl",
    "output_path": "/out",
    "output_format": "CBZ",
    "naming_template": "{comic} {num:3}",
    "page_size": "A4",
    "user_agent": "my-agent",
    "request_timeout": 30,
    "download_attempts": 3,
    "max_concurrent_images": 4,
    "skip_existing": false,
    "check_interval": 15,
    "log_level": "TRACE"
  }
}`)

	c, err := New(path, "dev")
	require.NoError(t, err)

	cfg := c.Config
	assert.Equal(t, "/tmp/comicdl", cfg.TempPath)
	assert.Equal(t, "/out", cfg.OutputPath)
	assert.Equal(t, domain.FormatCBZ, cfg.OutputFormat)
	assert.Equal(t, "{comic} {num:3}", cfg.NamingTemplate)
	assert.Equal(t, "a4", cfg.PageSize)
	assert.Equal(t, "my-agent", cfg.UserAgent)
	assert.Equal(t, 30, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.DownloadAttempts)
	assert.Equal(t, 4, cfg.MaxConcurrentImages)
	assert.False(t, cfg.SkipExisting)
	assert.Equal(t, 15, c.CheckInterval())
	assert.Equal(t, "TRACE", cfg.LogLevel)
}

func TestNew_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `{"config": {"save_path": "/s", "comics_data_path": "/d"}}`)

	t.Setenv("COMICDL__COMICS_DATA_PATH", "/env/data")
	t.Setenv("COMICDL__DOWNLOAD_ATTEMPTS", "2")
	t.Setenv("COMICDL__SKIP_EXISTING", "false")
	t.Setenv("COMICDL__LOG_LEVEL", "ERROR")
	t.Setenv("COMICDL__REQUEST_TIMEOUT", "not-a-number")

	c, err := New(path, "dev")
	require.NoError(t, err)

	assert.Equal(t, "/env/data", c.Config.ComicsDataPath)
	assert.Equal(t, 2, c.Config.DownloadAttempts)
	assert.False(t, c.Config.SkipExisting)
	assert.Equal(t, "ERROR", c.Config.LogLevel)
	assert.Equal(t, 120, c.Config.RequestTimeout)
}

func TestNew_Invalid(t *testing.T) {
	tests := map[string]string{
		"format":    `{"config": {"comics_data_path": "/d", "output_format": "epub"}}`,
		"page size": `{"config": {"comics_data_path": "/d", "page_size": "b5"}}`,
		"data path": `{"config": {"comics_data_path": ""}}`,
		"naming":    `{"config": {"comics_data_path": "/d", "naming_template": ""}}`,
		"syntax":    `{"config": `,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(writeConfigFile(t, body), "dev")
			assert.Error(t, err)
		})
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"), "dev")
	assert.Error(t, err)
}

func TestNew_DirectoryWritesTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "comicdl")

	c, err := New(dir, "dev")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "./comics", c.Config.ComicsDataPath)
	assert.Equal(t, domain.FormatPDF, c.Config.OutputFormat)
}

func TestDynamicReload(t *testing.T) {
	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"config": {"comics_data_path": "/d", "check_interval": 60, "log_level": "INFO"}}`), 0o644))

	c, err := New(path, "dev")
	require.NoError(t, err)

	log := logger.New(&domain.Config{LogPath: filepath.Join(dir, "comicdl.log"), LogLevel: c.Config.LogLevel})
	sub := log.With().Str("comic", "x").Logger()
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	c.DynamicReload(log)

	// replace the file in one step so the watcher never reads a partial write
	tmp := filepath.Join(dir, "config.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"config": {"comics_data_path": "/d", "check_interval": 5, "log_level": "TRACE"}}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return c.CheckInterval() == 5
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())
	assert.NotNil(t, sub.Trace())
}
