package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadimoyt/atlas-bot/internal/models"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Atlas      AtlasConfig      `yaml:"atlas"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Exports    ExportConfig     `yaml:"exports"`
	Managers   []int64          `yaml:"managers"`
	Blacklist  []int64          `yaml:"blacklist"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type AtlasConfig struct {
	BaseURL string `yaml:"base_url"`
}

type MonitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval период между циклами проверки; по умолчанию 60 секунд
func (m MonitorConfig) Interval() time.Duration {
	if m.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(m.IntervalSeconds) * time.Second
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// Load читает конфигурацию из YAML с подстановкой переменных окружения.
// Файл .env, если есть, подхватывается до подстановки.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadCities читает список городов из отдельного файла
func LoadCities(path string) ([]models.City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var citiesConfig struct {
		Cities []models.City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &citiesConfig); err != nil {
		return nil, err
	}
	if len(citiesConfig.Cities) == 0 {
		return nil, fmt.Errorf("%s: список городов пуст", path)
	}

	return citiesConfig.Cities, nil
}
