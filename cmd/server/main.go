package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Hassan-Maher/Quizify/internal/config"
	"github.com/Hassan-Maher/Quizify/internal/db"
	"github.com/Hassan-Maher/Quizify/internal/mailer"
	"github.com/Hassan-Maher/Quizify/internal/otp"
	"github.com/Hassan-Maher/Quizify/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	database, err := db.Open(cfg.DbDsn)
	if err != nil {
		sugar.Fatalw("db error", "error", err)
	}

	mail, err := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SmtpHost,
		Port:     cfg.SmtpPort,
		Username: cfg.SmtpUser,
		Password: cfg.SmtpPass,
		From:     cfg.SmtpFrom,
	})
	if err != nil {
		sugar.Fatalw("mailer error", "error", err)
	}

	codes := otp.NewStore(database, time.Now, time.Duration(cfg.OtpMinutes)*time.Minute)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	routes.Register(router, database, cfg, mail, codes, sugar)

	sugar.Infow("starting server", "addr", cfg.Addr, "env", cfg.AppEnv)
	if err := router.Run(cfg.Addr); err != nil {
		sugar.Fatalw("server error", "error", err)
	}
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.AppEnv == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
