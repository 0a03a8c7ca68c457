package app

import "time"

// 构建信息（由 -ldflags 注入）。
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DefaultJurisdictionID 是未选择辖区时提交给后端的默认辖区。
const DefaultJurisdictionID = "11111111-1111-1111-1111-111111111111"

// Config 存放应用级配置。
type Config struct {
	ListenAddr    string        `mapstructure:"listen"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	APITimeout    time.Duration `mapstructure:"api_timeout"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	// MediaBaseURL 拼接后端返回的相对媒体路径；为空时等于 APIBaseURL
	MediaBaseURL string `mapstructure:"media_base_url"`

	DBPath     string `mapstructure:"db_path"`
	ExportsDir string `mapstructure:"exports_dir"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json|console

	BrowserBin string `mapstructure:"browser_bin"`
	PDFFont    string `mapstructure:"pdf_font"`

	PageSize int           `mapstructure:"page_size"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultConfig 返回本地开发环境的默认配置。
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:3000",
		APIBaseURL:    "http://localhost:5000",
		APITimeout:    15 * time.Second,
		PublicBaseURL: "https://satark.delhipolice.gov.in",
		DBPath:        "data/portal.db",
		ExportsDir:    "data/exports",
		LogLevel:      "info",
		LogFormat:     "json",
		PageSize:      10,
		Debounce:      400 * time.Millisecond,
	}
}
