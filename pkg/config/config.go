package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	DataSources struct {
		QMT struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"qmt"`
		AKShare struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"akshare"`
	} `yaml:"data_sources"`

	Database struct {
		MySQL struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			Charset  string `yaml:"charset"`
		} `yaml:"mysql"`
	} `yaml:"database"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Sync struct {
		BenchmarkSector string `yaml:"benchmark_sector"` // 全量同步的基准板块，默认沪深A股
		MaxWorkers      int    `yaml:"max_workers"`
		LookbackYears   int    `yaml:"lookback_years"`
	} `yaml:"sync"`

	Export struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"export"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 先尝试加载.env文件，不存在时忽略
	_ = godotenv.Load()

	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)

	// 环境变量覆盖
	overrideFromEnv(&config)

	return &config, nil
}

// applyDefaults 填充默认配置
func applyDefaults(config *Config) {
	if config.Sync.BenchmarkSector == "" {
		config.Sync.BenchmarkSector = "沪深A股"
	}
	if config.Sync.MaxWorkers <= 0 {
		config.Sync.MaxWorkers = 4
	}
	if config.Sync.LookbackYears <= 0 {
		config.Sync.LookbackYears = 3
	}
	if config.Database.MySQL.Charset == "" {
		config.Database.MySQL.Charset = "utf8mb4"
	}
	if config.Export.DataDir == "" {
		config.Export.DataDir = "stock_data"
	}
	if config.Redis.TTL <= 0 {
		config.Redis.TTL = 5 * time.Minute
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// QMT网关配置
	if env := os.Getenv("QMT_BASE_URL"); env != "" {
		config.DataSources.QMT.BaseURL = env
	}

	// AKShare网关配置
	if env := os.Getenv("AKSHARE_BASE_URL"); env != "" {
		config.DataSources.AKShare.BaseURL = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.MySQL.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			config.Database.MySQL.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.MySQL.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.MySQL.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.MySQL.DBName = env
	}

	// Redis配置
	if env := os.Getenv("REDIS_ADDR"); env != "" {
		config.Redis.Addr = env
	}
	if env := os.Getenv("REDIS_PASSWORD"); env != "" {
		config.Redis.Password = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	// 导出目录
	if env := os.Getenv("EXPORT_DATA_DIR"); env != "" {
		config.Export.DataDir = env
	}
}

// DSN 构建MySQL连接串
func (c *Config) DSN() string {
	m := c.Database.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
		m.User, m.Password, m.Host, m.Port, m.DBName, m.Charset)
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
