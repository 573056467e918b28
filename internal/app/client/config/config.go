package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultEnv             = EnvLocal
	defaultConfigDir       = ".lifelog"
	defaultDataFile        = "lifelog.db"
	defaultLegacyFile      = "journal.db"
	defaultAPIAddress      = "127.0.0.1:8787"
	defaultStatsDebounceMs = 300
	defaultFallbackQuotaMB = 1024
)

type Config struct {
	Env string `mapstructure:"app_env"`
	// LogLevel переопределяет уровень окружения, пусто - уровень по умолчанию для окружения
	LogLevel       string `mapstructure:"log_level"`
	ConfigDir      string `mapstructure:"config_dir"`
	DataPath       string `mapstructure:"data_path"`
	LegacyDataPath string `mapstructure:"legacy_data_path"`
	APIAddress     string `mapstructure:"api_address"`
	// MaxDBSizeMB - предел размера файла базы, 0 - без предела
	MaxDBSizeMB     int64 `mapstructure:"max_db_size_mb"`
	StatsDebounceMs int   `mapstructure:"stats_debounce_ms"`
	FallbackQuotaMB int64 `mapstructure:"fallback_quota_mb"`
}

// MustLoad загружает конфигурацию клиента и паникует, если она некорректна
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env, переменные окружения и необязательный YAML файл
func Load(configFile string) (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("API_ADDRESS", defaultAPIAddress)
	v.SetDefault("MAX_DB_SIZE_MB", 0)
	v.SetDefault("STATS_DEBOUNCE_MS", defaultStatsDebounceMs)
	v.SetDefault("FALLBACK_QUOTA_MB", defaultFallbackQuotaMB)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("чтение файла конфигурации %s: %w", configFile, err)
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("создание директории конфигурации: %w", err)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, defaultDataFile)
	}
	legacyPath := v.GetString("LEGACY_DATA_PATH")
	if legacyPath == "" {
		legacyPath = filepath.Join(configDir, defaultLegacyFile)
	}

	cfg := &Config{
		Env:             v.GetString("APP_ENV"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ConfigDir:       configDir,
		DataPath:        dataPath,
		LegacyDataPath:  legacyPath,
		APIAddress:      v.GetString("API_ADDRESS"),
		MaxDBSizeMB:     v.GetInt64("MAX_DB_SIZE_MB"),
		StatsDebounceMs: v.GetInt("STATS_DEBOUNCE_MS"),
		FallbackQuotaMB: v.GetInt64("FALLBACK_QUOTA_MB"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("app_env должен быть local, dev или prod, получено %q", c.Env)
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path не может быть пустым")
	}
	if c.DataPath == c.LegacyDataPath {
		return fmt.Errorf("data_path и legacy_data_path должны различаться")
	}
	if c.MaxDBSizeMB < 0 {
		return fmt.Errorf("max_db_size_mb не может быть отрицательным")
	}
	if c.StatsDebounceMs < 0 {
		return fmt.Errorf("stats_debounce_ms не может быть отрицательным")
	}
	if c.FallbackQuotaMB <= 0 {
		return fmt.Errorf("fallback_quota_mb должен быть положительным")
	}
	if c.APIAddress == "" {
		return fmt.Errorf("api_address не может быть пустым")
	}
	return nil
}

// MaxDBSizeBytes - предел размера базы в байтах
func (c *Config) MaxDBSizeBytes() int64 {
	return c.MaxDBSizeMB * 1024 * 1024
}

// FallbackQuotaBytes - условный объем хранилища, когда файловая система его не сообщает
func (c *Config) FallbackQuotaBytes() int64 {
	return c.FallbackQuotaMB * 1024 * 1024
}

// StatsDebounce - задержка пересчета статистики
func (c *Config) StatsDebounce() time.Duration {
	return time.Duration(c.StatsDebounceMs) * time.Millisecond
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
