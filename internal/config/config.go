package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Mongo      `yaml:"mongo"`
	Redis      `yaml:"redis"`
	RabbitMQ   `yaml:"rabbitmq"`
	OTP        `yaml:"otp"`
	Sessions   `yaml:"sessions"`
	Email      `yaml:"email"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Mongo struct {
	URI         string `yaml:"uri" env:"MONGO_URI" env-required:"true"`
	Database    string `yaml:"database" env-default:"event_service"`
	MaxPoolSize uint64 `yaml:"max_pool_size" env-default:"10"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-required:"true"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"otp_emails"`
}

type OTP struct {
	TTL    time.Duration `yaml:"ttl" env-default:"5m"`
	Length int           `yaml:"length" env-default:"6"`
}

type Sessions struct {
	TokenTTL time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// Email is consumed by the mail_sender worker only.
type Email struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
	ReplyTo  string `yaml:"reply_to" env:"SMTP_REPLY_TO"`
	Subject  string `yaml:"subject" env-default:"Your login code"`
	SiteName string `yaml:"site_name" env-default:"Event Service"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
