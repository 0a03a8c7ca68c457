package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 配置来源优先级（高 -> 低）：
// - 命令行 flag（由调用方 BindPFlag）
// - 环境变量 SATARK_*（另兼容前端时代的 NEXT_PUBLIC_API_URL）
// - 配置文件 satark.yaml
// - DefaultConfig

// NewViper 创建带默认值与环境变量绑定的 viper 实例。
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("listen", d.ListenAddr)
	v.SetDefault("api_base_url", d.APIBaseURL)
	v.SetDefault("api_timeout", d.APITimeout)
	v.SetDefault("public_base_url", d.PublicBaseURL)
	v.SetDefault("media_base_url", d.MediaBaseURL)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("exports_dir", d.ExportsDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("browser_bin", d.BrowserBin)
	v.SetDefault("pdf_font", d.PDFFont)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("debounce", d.Debounce)

	v.SetEnvPrefix("SATARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_base_url", "SATARK_API_BASE_URL", "SATARK_API_URL", "NEXT_PUBLIC_API_URL")

	return v
}

// LoadConfig 读取配置文件（可选）并解码为 Config。
// cfgFile 为空时在当前目录与 ~/.config/satark 下查找 satark.yaml，找不到不报错。
func LoadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("satark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/satark")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.MediaBaseURL = strings.TrimRight(strings.TrimSpace(cfg.MediaBaseURL), "/")
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = cfg.APIBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return cfg, nil
}
