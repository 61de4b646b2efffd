package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hassan-Maher/Quizify/internal/config"
	"github.com/Hassan-Maher/Quizify/internal/handlers"
	"github.com/Hassan-Maher/Quizify/internal/mailer"
	"github.com/Hassan-Maher/Quizify/internal/middleware"
	"github.com/Hassan-Maher/Quizify/internal/otp"
)

func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, mail mailer.Sender, codes *otp.Store, log *zap.SugaredLogger) {
	router.Use(corsMiddleware(cfg.AllowedOriginsRaw))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "quizify-backend"})
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(db, cfg, mail, codes, log)
	quizHandler := handlers.NewQuizHandler(db, cfg)

	router.POST("/register", authHandler.Register)
	router.POST("/verify-otp-register", authHandler.VerifyRegisterOtp)
	router.POST("/resend code", authHandler.ResendCode)
	router.POST("/resend-code", authHandler.ResendCode)
	router.POST("/login", authHandler.Login)
	router.POST("/forget-password-otp", authHandler.ForgetPassword)
	router.POST("/verify-password-otp", authHandler.VerifyPasswordOtp)
	router.POST("/reset-Password", authHandler.ResetPassword)
	router.POST("/reset-password", authHandler.ResetPassword)

	quizzes := router.Group("/quizzes")
	quizzes.Use(middleware.AuthRequired(cfg.JwtSecret))
	{
		quizzes.GET("", quizHandler.List)
		quizzes.POST("", quizHandler.Create)
		quizzes.GET("/:id", quizHandler.Show)
		quizzes.PUT("/:id", quizHandler.Update)
		quizzes.DELETE("/:id", quizHandler.Destroy)
		quizzes.PUT("/:id/questions", quizHandler.ReplaceQuestions)
		quizzes.POST("/:id/publish", quizHandler.Publish)
	}
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	allowAll := len(origins) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowedOrigin := range origins {
				if origin == allowedOrigin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
