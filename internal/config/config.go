package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"imsgen/internal/logger"
)

// EnvPrefix 環境變數前綴，區段之間以 "__" 分隔，例如 IMSGEN_LOGGING__LEVEL
const EnvPrefix = "IMSGEN_"

// AppDirName 使用者文件目錄下的資料夾名稱
const AppDirName = "IMS-number-maker"

type Config struct {
	App     AppConfig            `koanf:"app"`
	Server  ServerConfig         `koanf:"server"`
	Logging logger.LoggingConfig `koanf:"logging"`
}

type AppConfig struct {
	ProfilePath string `koanf:"profile_path"`
	OutputDir   string `koanf:"output_dir"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	HistorySize     int           `koanf:"history_size"`
}

// Load 依序載入 TOML 檔與環境變數，補上預設值後驗證
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			// 設定檔可選
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := setDefaults(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// envKey 把 IMSGEN_SERVER__READ_TIMEOUT 轉成 server.read_timeout
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(
		strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// BaseDir 回傳 ~/Documents/IMS-number-maker
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Documents", AppDirName), nil
}

func setDefaults(cfg *Config) error {
	needBase := cfg.App.ProfilePath == "" || cfg.App.OutputDir == "" ||
		(cfg.Logging.Output == "file" && cfg.Logging.FilePath == "")

	var base string
	if needBase {
		var err error
		if base, err = BaseDir(); err != nil {
			return err
		}
	}

	if cfg.App.ProfilePath == "" {
		cfg.App.ProfilePath = filepath.Join(base, "config.json")
	}
	if cfg.App.OutputDir == "" {
		cfg.App.OutputDir = filepath.Join(base, "scripts")
	}

	// Server 預設值
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.HistorySize == 0 {
		cfg.Server.HistorySize = 50
	}

	// Logging 預設值
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	if cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(base, "logs", "app.log")
	}
	if cfg.Logging.MaxSize == 0 {
		cfg.Logging.MaxSize = 5 // 5MB
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAge == 0 {
		cfg.Logging.MaxAge = 28 // 28 days
	}

	return nil
}

func validateConfig(cfg *Config) error {
	if err := validateAppConfig(&cfg.App); err != nil {
		return fmt.Errorf("app config validation failed: %w", err)
	}

	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

func validateAppConfig(cfg *AppConfig) error {
	if cfg.ProfilePath == "" {
		return fmt.Errorf("profile path cannot be empty")
	}

	if strings.HasSuffix(cfg.ProfilePath, string(filepath.Separator)) {
		return fmt.Errorf("profile path must be a file, got directory %s", cfg.ProfilePath)
	}

	if cfg.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}

	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}

	if cfg.ReadTimeout < time.Second {
		return fmt.Errorf("server read timeout must be at least 1 second, got %v", cfg.ReadTimeout)
	}

	if cfg.WriteTimeout < time.Second {
		return fmt.Errorf("server write timeout must be at least 1 second, got %v", cfg.WriteTimeout)
	}

	if cfg.ShutdownTimeout < time.Second {
		return fmt.Errorf("server shutdown timeout must be at least 1 second, got %v", cfg.ShutdownTimeout)
	}

	if cfg.HistorySize < 1 || cfg.HistorySize > 1000 {
		return fmt.Errorf("server history size must be between 1 and 1000, got %d", cfg.HistorySize)
	}

	return nil
}

func validateLoggingConfig(cfg *logger.LoggingConfig) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid logging level: %s, must be one of: debug, info, warn, error", cfg.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}

	if !validFormats[cfg.Format] {
		return fmt.Errorf("invalid logging format: %s, must be one of: json, text", cfg.Format)
	}

	validOutputs := map[string]bool{
		"stdout":  true,
		"stderr":  true,
		"file":    true,
		"discard": true,
	}

	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid logging output: %s, must be one of: stdout, stderr, file, discard", cfg.Output)
	}

	if cfg.Output == "file" && cfg.FilePath == "" {
		return fmt.Errorf("file_path must be specified when output is 'file'")
	}

	if cfg.MaxSize < 1 || cfg.MaxSize > 1000 {
		return fmt.Errorf("max_size must be between 1 and 1000 MB, got %d", cfg.MaxSize)
	}

	if cfg.MaxBackups < 0 || cfg.MaxBackups > 100 {
		return fmt.Errorf("max_backups must be between 0 and 100, got %d", cfg.MaxBackups)
	}

	if cfg.MaxAge < 1 || cfg.MaxAge > 365 {
		return fmt.Errorf("max_age must be between 1 and 365 days, got %d", cfg.MaxAge)
	}

	return nil
}
