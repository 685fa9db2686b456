// Package config defines all venue configuration. Config is loaded from a
// YAML file (default: configs/venue.yaml) with every key overridable via
// VENUE_* environment variables; a missing file falls back to defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ndrandal/venue-sim/internal/market"
)

// Config is the top-level configuration. Maps directly to the YAML file.
type Config struct {
	// Listen ports.
	PortTCPIn  int `mapstructure:"port_tcp_in"`
	PortTCPOut int `mapstructure:"port_tcp_out"`
	PortUDP    int `mapstructure:"port_udp"`
	PortAdmin  int `mapstructure:"port_admin"`

	// Price feed.
	PriceFeedRateUs    int  `mapstructure:"price_feed_rate_us"`
	PriceFeedAutostart bool `mapstructure:"price_feed_autostart"`

	// Transport.
	BufferSize     int `mapstructure:"buffer_size"`
	MaxMessageSize int `mapstructure:"max_message_size"`

	// Books.
	OrderBookLimit int `mapstructure:"order_book_limit"`
	TickerSize     int `mapstructure:"ticker_size"`

	// Synthetic flow.
	Seed int64 `mapstructure:"seed"`

	// Fill journal (empty URI disables it).
	MongoURI      string `mapstructure:"mongo_uri"`
	JournalBuffer int    `mapstructure:"journal_buffer"`

	Trader  TraderConfig  `mapstructure:"trader"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TraderConfig tunes the trader client binary.
type TraderConfig struct {
	ServerHost     string `mapstructure:"server_host"`
	OrderRateMs    int    `mapstructure:"order_rate_ms"`
	OrdersPerBurst int    `mapstructure:"orders_per_burst"`
}

// LoggingConfig selects handler level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the config file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port_tcp_in", 8401)
	v.SetDefault("port_tcp_out", 8402)
	v.SetDefault("port_udp", 8403)
	v.SetDefault("port_admin", 8404)
	v.SetDefault("price_feed_rate_us", 500_000)
	v.SetDefault("price_feed_autostart", true)
	v.SetDefault("buffer_size", 4096)
	v.SetDefault("max_message_size", 64)
	v.SetDefault("order_book_limit", 1024)
	v.SetDefault("ticker_size", market.TickerSize)
	v.SetDefault("seed", 0)
	v.SetDefault("mongo_uri", "")
	v.SetDefault("journal_buffer", 4096)
	v.SetDefault("trader.server_host", "127.0.0.1")
	v.SetDefault("trader.order_rate_ms", 100)
	v.SetDefault("trader.orders_per_burst", 3)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects configurations the venue cannot run with.
func (c *Config) Validate() error {
	for _, p := range []struct {
		name string
		port int
	}{
		{"port_tcp_in", c.PortTCPIn},
		{"port_tcp_out", c.PortTCPOut},
		{"port_udp", c.PortUDP},
		{"port_admin", c.PortAdmin},
	} {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("%s out of range: %d", p.name, p.port)
		}
	}
	if c.PriceFeedRateUs < 1 {
		return fmt.Errorf("price_feed_rate_us must be positive, got %d", c.PriceFeedRateUs)
	}
	if c.MaxMessageSize < 1 || c.MaxMessageSize > 65535 {
		return fmt.Errorf("max_message_size out of range: %d", c.MaxMessageSize)
	}
	if c.BufferSize < 2+c.MaxMessageSize {
		return fmt.Errorf("buffer_size %d cannot hold one max frame (%d)", c.BufferSize, 2+c.MaxMessageSize)
	}
	if c.OrderBookLimit < 1 {
		return fmt.Errorf("order_book_limit must be positive, got %d", c.OrderBookLimit)
	}
	if c.TickerSize != market.TickerSize {
		return fmt.Errorf("ticker_size %d does not match the wire format width %d", c.TickerSize, market.TickerSize)
	}
	if c.Trader.OrderRateMs < 1 {
		return fmt.Errorf("trader.order_rate_ms must be positive, got %d", c.Trader.OrderRateMs)
	}
	if c.Trader.OrdersPerBurst < 1 {
		return fmt.Errorf("trader.orders_per_burst must be positive, got %d", c.Trader.OrdersPerBurst)
	}
	return nil
}

// FeedRate converts the configured microsecond interval to a duration.
func (c *Config) FeedRate() time.Duration {
	return time.Duration(c.PriceFeedRateUs) * time.Microsecond
}
