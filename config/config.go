package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Binance  BinanceConfig  `mapstructure:"binance"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Tape     TapeConfig     `mapstructure:"tape"`
	Symbols  []string       `mapstructure:"symbols"`
	Prefs    PrefsConfig    `mapstructure:"prefs"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
}

type WSConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// ChartConfig controls the candle window of the active pair.
type ChartConfig struct {
	Capacity        int    `mapstructure:"capacity"`
	Interval        string `mapstructure:"interval"`
	NewBucketPolicy string `mapstructure:"new_bucket_policy"` // "append", "drop" or "reject"
	LabelStep       int    `mapstructure:"label_step"`
}

type TapeConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type ArchiveConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	CreateDB  bool          `mapstructure:"create_db"`
	Retention time.Duration `mapstructure:"retention"` // 0 keeps everything
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := newViper()

	if path := os.Getenv("TICKERDASH_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")

		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
		v.AddConfigPath("./config")
	}

	cfg, err := read(v)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

// LoadFile reads the configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	return read(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Support environment variables with dot notation (e.g., BINANCE_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binance.rest.base_url", "https://api.binance.com")
	v.SetDefault("binance.rest.timeout", 5*time.Second)
	v.SetDefault("binance.rest.rate_limit", 5)
	v.SetDefault("binance.ws.url", "wss://stream.binance.com:9443")
	v.SetDefault("binance.ws.reconnect_delay", 3*time.Second)

	v.SetDefault("chart.capacity", 60)
	v.SetDefault("chart.interval", "1m")
	v.SetDefault("chart.new_bucket_policy", "append")
	v.SetDefault("chart.label_step", 10)
	v.SetDefault("tape.capacity", 8)
	v.SetDefault("symbols", []string{"BTC/USDT", "ETH/USDT", "SOL/USDT", "LINK/USDT", "XRP/USDT", "DOGE/USDT"})
	v.SetDefault("prefs.path", "preferences.json")
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}
