package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Payments PaymentsConfig `yaml:"payments"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

// GatewayConfig describes the external payment gateway endpoint and the
// redirect/callback URLs handed to it on session init.
type GatewayConfig struct {
	BaseURL        string `yaml:"base_url"`
	StoreID        string `yaml:"store_id"`
	StorePassword  string `yaml:"store_password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	SuccessURL     string `yaml:"success_url"`
	FailURL        string `yaml:"fail_url"`
	CancelURL      string `yaml:"cancel_url"`
	CallbackURL    string `yaml:"callback_url"`
}

func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type PaymentsConfig struct {
	SettleLockTTLSeconds int `yaml:"settle_lock_ttl_seconds"`
	EventsCacheTTL       int `yaml:"events_cache_ttl_seconds"`
}

func (p PaymentsConfig) SettleLockTTL() time.Duration {
	if p.SettleLockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.SettleLockTTLSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
