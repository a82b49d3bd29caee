package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"comicdl/internal/domain"
	"comicdl/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFile = "config.json"
	envPrefix  = "COMICDL__"
)

var configTemplate = `{
  "config": {
    "save_path": ".",
    "comics_data_path": "./comics",
    "output_format": "pdf",
    "naming_template": "{comic}_chapter_{num}",
    "page_size": "letter",
    "request_timeout": 120,
    "download_attempts": 1,
    "max_concurrent_images": 0,
    "skip_existing": true,
    "check_interval": 60,
    "log_level": "INFO",
    "log_max_size": 50,
    "log_max_backups": 3
  }
}
`

var pageSizes = []string{"letter", "legal", "a3", "a4", "a5", "tabloid"}

func (c *AppConfig) writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(configPath, os.ModePerm); err != nil {
			return err
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(cfgPath)
		if err != nil {
			return errors.Wrapf(err, "error creating file %s", cfgPath)
		}
		defer f.Close()

		if _, err = f.WriteString(configTemplate); err != nil {
			return errors.Wrapf(err, "error writing contents to file %s", cfgPath)
		}

		return f.Sync()
	}

	return nil
}

type Config interface {
	DynamicReload(log logger.Logger)
}

type AppConfig struct {
	Config *domain.Config
	v      *viper.Viper
	m      *sync.Mutex
}

// New reads the configuration from configPath, which is either a config.json
// file or a directory holding one. An empty path searches the default
// locations.
func New(configPath string, version string) (*AppConfig, error) {
	c := &AppConfig{
		v: viper.New(),
		m: new(sync.Mutex),
	}
	c.defaults()
	c.Config = &domain.Config{
		Version:    version,
		ConfigPath: configPath,
	}

	if err := c.load(configPath); err != nil {
		return nil, err
	}
	c.loadFromEnv()
	c.derive()

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.v.SetDefault("config.save_path", ".")
	c.v.SetDefault("config.comics_data_path", "./comics")
	c.v.SetDefault("config.wkhtmltopdf_path", "")
	c.v.SetDefault("config.temp_path", "")
	c.v.SetDefault("config.output_path", "")
	c.v.SetDefault("config.output_format", domain.FormatPDF)
	c.v.SetDefault("config.naming_template", "{comic}_chapter_{num}")
	c.v.SetDefault("config.page_size", "letter")
	c.v.SetDefault("config.user_agent", "")
	c.v.SetDefault("config.request_timeout", 120)
	c.v.SetDefault("config.download_attempts", 1)
	c.v.SetDefault("config.max_concurrent_images", 0)
	c.v.SetDefault("config.skip_existing", true)
	c.v.SetDefault("config.check_interval", 60)
	c.v.SetDefault("config.log_path", "")
	c.v.SetDefault("config.log_level", "INFO")
	c.v.SetDefault("config.log_max_size", 50)
	c.v.SetDefault("config.log_max_backups", 3)
}

func (c *AppConfig) loadFromEnv() {
	envs := os.Environ()
	for _, env := range envs {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}

		envPair := strings.SplitN(env, "=", 2)
		if len(envPair) != 2 || envPair[1] == "" {
			continue
		}

		value := envPair[1]
		switch strings.TrimPrefix(envPair[0], envPrefix) {
		case "SAVE_PATH":
			c.Config.SavePath = value
		case "COMICS_DATA_PATH":
			c.Config.ComicsDataPath = value
		case "TEMP_PATH":
			c.Config.TempPath = value
		case "OUTPUT_PATH":
			c.Config.OutputPath = value
		case "OUTPUT_FORMAT":
			c.Config.OutputFormat = value
		case "NAMING_TEMPLATE":
			c.Config.NamingTemplate = value
		case "PAGE_SIZE":
			c.Config.PageSize = value
		case "USER_AGENT":
			c.Config.UserAgent = value
		case "REQUEST_TIMEOUT":
			if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
				c.Config.RequestTimeout = int(i)
			}
		case "DOWNLOAD_ATTEMPTS":
			if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
				c.Config.DownloadAttempts = int(i)
			}
		case "MAX_CONCURRENT_IMAGES":
			if i, err := strconv.ParseInt(value, 10, 32); err == nil && i >= 0 {
				c.Config.MaxConcurrentImages = int(i)
			}
		case "SKIP_EXISTING":
			if b, err := strconv.ParseBool(value); err == nil {
				c.Config.SkipExisting = b
			}
		case "CHECK_INTERVAL":
			if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
				c.Config.CheckInterval = int(i)
			}
		case "LOG_LEVEL":
			c.Config.LogLevel = value
		case "LOG_PATH":
			c.Config.LogPath = value
		case "LOG_MAX_SIZE":
			if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
				c.Config.LogMaxSize = int(i)
			}
		case "LOG_MAX_BACKUPS":
			if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
				c.Config.LogMaxBackups = int(i)
			}
		}
	}
}

func (c *AppConfig) load(configPath string) error {
	c.v.SetConfigType("json")

	switch {
	case configPath == "":
		c.v.SetConfigName("config")

		// Search config in directories
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME/.config/comicdl")
		c.v.AddConfigPath("$HOME/.comicdl")

	case strings.EqualFold(filepath.Ext(configPath), ".json"):
		c.v.SetConfigFile(filepath.Clean(configPath))

	default:
		configPath = filepath.Clean(configPath)

		// check if path and file exists
		// if not, create path and file
		if err := c.writeConfig(configPath, configFile); err != nil {
			log.Printf("write error: %q", err)
		}

		c.v.SetConfigFile(filepath.Join(configPath, configFile))
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "config read error")
		}
		log.Printf("no config file found, using defaults")
	}

	// Unmarshal goes through AllSettings, which merges the nested defaults
	// with the values from the file.
	var file struct {
		Config *domain.Config `mapstructure:"config"`
	}
	file.Config = c.Config

	if err := c.v.Unmarshal(&file); err != nil {
		return errors.Wrapf(err, "could not unmarshal config file %s", c.v.ConfigFileUsed())
	}

	return nil
}

// derive fills in the paths that default relative to save_path.
func (c *AppConfig) derive() {
	cfg := c.Config

	if cfg.TempPath == "" {
		cfg.TempPath = filepath.Join(cfg.SavePath, "temp")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(cfg.SavePath, "output")
	}
	if cfg.DownloadAttempts < 1 {
		cfg.DownloadAttempts = 1
	}
	if cfg.MaxConcurrentImages < 0 {
		cfg.MaxConcurrentImages = 0
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.PageSize = strings.ToLower(strings.TrimSpace(cfg.PageSize))
}

func (c *AppConfig) validate() error {
	cfg := c.Config

	if cfg.ComicsDataPath == "" {
		return errors.New("comics_data_path can't be empty, please provide the directory holding your comic data files")
	}

	switch cfg.OutputFormat {
	case domain.FormatPDF, domain.FormatCBZ:
	default:
		return fmt.Errorf("invalid output_format %q, must be one of: pdf, cbz", cfg.OutputFormat)
	}

	valid := false
	for _, size := range pageSizes {
		if cfg.PageSize == size {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid page_size %q, must be one of: %s", cfg.PageSize, strings.Join(pageSizes, ", "))
	}

	if cfg.NamingTemplate == "" {
		return errors.New("naming_template can't be empty")
	}

	return nil
}

// DynamicReload watches the config file and applies log level changes while
// the process is running.
func (c *AppConfig) DynamicReload(log logger.Logger) {
	if c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		logLevel := c.v.GetString("config.log_level")
		c.Config.LogLevel = logLevel
		log.SetLogLevel(c.Config.LogLevel)

		if interval := c.v.GetInt("config.check_interval"); interval > 0 {
			c.Config.CheckInterval = interval
		}

		log.Debug().Msg("config file reloaded!")
	})
	c.v.WatchConfig()
}

// CheckInterval returns the monitor interval, which may change on reload.
func (c *AppConfig) CheckInterval() int {
	c.m.Lock()
	defer c.m.Unlock()

	return c.Config.CheckInterval
}
