package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env   string      `yaml:"env" env:"ENV" env-default:"local"`
	DSN   string      `yaml:"dsn" env:"DSN" env-required:"true"`
	HTTP  HTTPConfig  `yaml:"http"`
	Redis RedisConf   `yaml:"redis"`
	Admin AdminConfig `yaml:"admin"`
	Media MediaConfig `yaml:"media"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type AdminConfig struct {
	// bcrypt hash of the shared admin password; the plain value is never
	// stored server-side.
	PasswordHash  string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH" env-required:"true"`
	TokenSecret   string        `yaml:"token_secret" env:"ADMIN_TOKEN_SECRET" env-required:"true"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"12h"`
}

type MediaConfig struct {
	Provider string `yaml:"provider" env-default:"local"` // local or s3
	BaseDir  string `yaml:"base_dir" env-default:"./uploads"`
	BaseURL  string `yaml:"base_url"`
	MaxSize  int64  `yaml:"max_size" env-default:"52428800"` // 50MB
	S3       S3Conf `yaml:"s3"`
}

type S3Conf struct {
	Region          string `yaml:"region" env:"AWS_REGION"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	BaseURL         string `yaml:"base_url"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
