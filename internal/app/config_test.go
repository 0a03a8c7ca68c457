package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 400*time.Millisecond, cfg.Debounce)
	// 媒体前缀默认跟随后端地址
	assert.Equal(t, cfg.APIBaseURL, cfg.MediaBaseURL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satark.yaml")
	content := "api_base_url: http://file.example/\npage_size: 25\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("NEXT_PUBLIC_API_URL", "http://legacy.example/")
	cfg, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)
	// 环境变量优先于配置文件
	assert.Equal(t, "http://legacy.example", cfg.APIBaseURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://legacy.example", cfg.MediaBaseURL)
}

func TestLoadConfig_MediaBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "satark.yaml")
	content := "api_base_url: http://api.example\nmedia_base_url: https://media.example/files/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/files", cfg.MediaBaseURL)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
