package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mpesa    MpesaConfig
	Mail     MailConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// MpesaConfig holds the Daraja (M-Pesa) gateway credentials and endpoints.
// ShortCode and Passkey default to the public sandbox values.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
	Timeout        time.Duration
}

// Configured reports whether real gateway credentials are present.
// Placeholder values from a template .env count as unconfigured.
func (m *MpesaConfig) Configured() bool {
	if m.ConsumerKey == "" || m.ConsumerSecret == "" {
		return false
	}
	return m.ConsumerKey != "your_key" && m.ConsumerSecret != "your_secret"
}

type MailConfig struct {
	SendGridKey string
	From        string
}

func (m *MailConfig) Configured() bool {
	return m.SendGridKey != "" && m.SendGridKey != "your_sendgrid_api_key_here"
}

type SweeperConfig struct {
	Spec          string
	PendingMaxAge time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	viper.SetDefault("MPESA_SHORT_CODE", "174379")
	viper.SetDefault("MPESA_PASSKEY", "bfb279f9ba9b9d0e61f1567f58f3cb4351714ebf750d86640fcd51e6002f18e2")
	viper.SetDefault("MPESA_TIMEOUT", "15s")
	viper.SetDefault("MAIL_FROM", "support@shopki.com")
	viper.SetDefault("SWEEPER_SPEC", "@every 5m")
	viper.SetDefault("SWEEPER_PENDING_MAX_AGE", "2h")

	mpesaTimeout, err := time.ParseDuration(viper.GetString("MPESA_TIMEOUT"))
	if err != nil {
		mpesaTimeout = 15 * time.Second
	}
	pendingMaxAge, err := time.ParseDuration(viper.GetString("SWEEPER_PENDING_MAX_AGE"))
	if err != nil {
		pendingMaxAge = 2 * time.Hour
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:    viper.GetString("MPESA_CONSUMER_KEY"),
			ConsumerSecret: viper.GetString("MPESA_CONSUMER_SECRET"),
			ShortCode:      viper.GetString("MPESA_SHORT_CODE"),
			Passkey:        viper.GetString("MPESA_PASSKEY"),
			CallbackURL:    viper.GetString("MPESA_CALLBACK_URL"),
			BaseURL:        viper.GetString("MPESA_BASE_URL"),
			Timeout:        mpesaTimeout,
		},
		Mail: MailConfig{
			SendGridKey: viper.GetString("SENDGRID_API_KEY"),
			From:        viper.GetString("MAIL_FROM"),
		},
		Sweeper: SweeperConfig{
			Spec:          viper.GetString("SWEEPER_SPEC"),
			PendingMaxAge: pendingMaxAge,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if !cfg.Mpesa.Configured() {
		log.Println("WARNING: M-Pesa credentials are not configured; payment initiation will fail fast")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
