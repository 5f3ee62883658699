package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config 存储所有配置信息
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	// 数据库配置
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DefaultConnection string        `mapstructure:"DEFAULT_CONNECTION"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	// 瞬时故障重试策略
	DBMaxRetryCount  int           `mapstructure:"DB_MAX_RETRY_COUNT"`
	DBRetryBaseDelay time.Duration `mapstructure:"DB_RETRY_BASE_DELAY"`
	DBRetryMaxDelay  time.Duration `mapstructure:"DB_RETRY_MAX_DELAY"`

	// 启动时初始化
	MigrateOnStartup bool `mapstructure:"MIGRATE_ON_STARTUP"`
	SeedOnStartup    bool `mapstructure:"SEED_ON_STARTUP"`

	// 日志配置
	LogDir   string `mapstructure:"LOG_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"ENVIRONMENT":          "development",
	"SERVER_PORT":          "8080",
	"DB_DRIVER":            DriverMySQL,
	"DEFAULT_CONNECTION":   "",
	"DB_MAX_IDLE_CONNS":    10,
	"DB_MAX_OPEN_CONNS":    100,
	"DB_CONN_MAX_LIFETIME": time.Hour,
	"DB_MAX_RETRY_COUNT":   6,
	"DB_RETRY_BASE_DELAY":  time.Second,
	"DB_RETRY_MAX_DELAY":   30 * time.Second,
	"MIGRATE_ON_STARTUP":   true,
	"SEED_ON_STARTUP":      true,
	"LOG_DIR":              "logs",
	"LOG_LEVEL":            "info",
}

// LoadConfig 从环境变量或配置文件加载配置
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	// ASP.NET 风格的连接串变量名也可用
	if err = v.BindEnv("DEFAULT_CONNECTION", "DEFAULT_CONNECTION", "ConnectionStrings__DefaultConnection"); err != nil {
		return
	}

	err = v.ReadInConfig()
	if err != nil {
		// 允许配置文件不存在，此时会从环境变量中读取
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	err = config.Validate()
	return
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DefaultConnection) == "" {
		return fmt.Errorf("%w: DEFAULT_CONNECTION is required", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBMaxRetryCount < 0 {
		return fmt.Errorf("%w: DB_MAX_RETRY_COUNT must be >= 0", ErrInvalidConfig)
	}
	if c.DBRetryBaseDelay < 0 || c.DBRetryMaxDelay < c.DBRetryBaseDelay {
		return fmt.Errorf("%w: retry delays must satisfy 0 <= base <= max", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
