package config

import (
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv            string `env:"APP_ENV" envDefault:"local"`
	Addr              string `env:"APP_ADDR" envDefault:":8080"`
	DbDsn             string `env:"DB_DSN,required"`
	JwtSecret         string `env:"JWT_SECRET,required"`
	JwtAccessMinutes  int    `env:"JWT_ACCESS_MINUTES" envDefault:"60"`
	OtpMinutes        int    `env:"OTP_MINUTES" envDefault:"5"`
	SmtpHost          string `env:"SMTP_HOST,required"`
	SmtpPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUser          string `env:"SMTP_USER"`
	SmtpPass          string `env:"SMTP_PASS"`
	SmtpFrom          string `env:"SMTP_FROM,required"`
	UploadDir         string `env:"UPLOAD_DIR" envDefault:"uploads"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOriginsRaw string `env:"ALLOWED_ORIGINS" envDefault:""`
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
