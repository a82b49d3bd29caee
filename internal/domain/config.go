package domain

type Config struct {
	Version             string
	ConfigPath          string
	SavePath            string `mapstructure:"save_path"`
	ComicsDataPath      string `mapstructure:"comics_data_path"`
	WkhtmltopdfPath     string `mapstructure:"wkhtmltopdf_path"` // accepted for old config files, unused
	TempPath            string `mapstructure:"temp_path"`
	OutputPath          string `mapstructure:"output_path"`
	OutputFormat        string `mapstructure:"output_format"`
	NamingTemplate      string `mapstructure:"naming_template"`
	PageSize            string `mapstructure:"page_size"`
	UserAgent           string `mapstructure:"user_agent"`
	RequestTimeout      int    `mapstructure:"request_timeout"` // in seconds
	DownloadAttempts    int    `mapstructure:"download_attempts"`
	MaxConcurrentImages int    `mapstructure:"max_concurrent_images"`
	SkipExisting        bool   `mapstructure:"skip_existing"`
	CheckInterval       int    `mapstructure:"check_interval"` // in minutes
	LogPath             string `mapstructure:"log_path"`
	LogLevel            string `mapstructure:"log_level"`
	LogMaxSize          int    `mapstructure:"log_max_size"` // in megabytes
	LogMaxBackups       int    `mapstructure:"log_max_backups"`
}

const (
	FormatPDF = "pdf"
	FormatCBZ = "cbz"
)
