package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/movapay/movapay/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

// GatewayConfig carries the WayForPay merchant credentials. It is passed to
// the gateway client at construction, never read from the environment at
// request time.
type GatewayConfig struct {
	MerchantAccount string
	MerchantDomain  string
	SecretKey       string
	APIURL          string
	ServiceURL      string
}

func LoadGatewayConfig() (*GatewayConfig, error) {
	cfg := &GatewayConfig{
		MerchantAccount: os.Getenv("WAYFORPAY_MERCHANT_ACCOUNT"),
		MerchantDomain:  os.Getenv("WAYFORPAY_MERCHANT_DOMAIN"),
		SecretKey:       os.Getenv("WAYFORPAY_SECRET_KEY"),
		APIURL:          os.Getenv("WAYFORPAY_API_URL"),
		ServiceURL:      os.Getenv("WAYFORPAY_SERVICE_URL"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.wayforpay.com/api"
	}
	if cfg.MerchantAccount == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("WAYFORPAY_MERCHANT_ACCOUNT and WAYFORPAY_SECRET_KEY are required")
	}
	return cfg, nil
}

type DeepLConfig struct {
	APIURL  string
	AuthKey string
}

func LoadDeepLConfig() (*DeepLConfig, error) {
	cfg := &DeepLConfig{
		APIURL:  os.Getenv("DEEPL_API_URL"),
		AuthKey: os.Getenv("DEEPL_API_KEY"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api-free.deepl.com/v2/translate"
	}
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("DEEPL_API_KEY is required")
	}
	return cfg, nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func LoadSMTPConfig() (*SMTPConfig, error) {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}, nil
}

type RedisConfig struct {
	Addr     string
	Password string
}

func LoadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.PendingTranslation{},
		&models.Translation{},
		&models.DailyStat{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
