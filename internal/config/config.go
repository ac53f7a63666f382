package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kitchen-board/internal/connections/database"
	"kitchen-board/internal/connections/rabbitmq"
)

// Config holds all application settings. Values come from config.yaml
// (or an explicit --config path) with env overrides under the
// KITCHEN_BOARD_ prefix, e.g. KITCHEN_BOARD_DATABASE_HOST.
type Config struct {
	HTTP     HTTPConfig      `mapstructure:"http"`
	Board    BoardConfig     `mapstructure:"board"`
	Database database.Config `mapstructure:"database"`
	RabbitMQ rabbitmq.Config `mapstructure:"rabbitmq"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// BoardConfig carries the engine timer knobs. Intervals are injectable
// so tests can drive time instead of sleeping.
type BoardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	IdleThreshold   time.Duration `mapstructure:"idle_threshold"`
	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
}

func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("http.port", 3003)
	v.SetDefault("board.refresh_interval", "30s")
	v.SetDefault("board.scan_interval", "1m")
	v.SetDefault("board.idle_threshold", "60m")
	v.SetDefault("board.store_timeout", "5s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "kitchen_board")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("rabbitmq.host", "")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "/")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KITCHEN_BOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// an explicit path must exist; the default search may come up empty
		if path != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
