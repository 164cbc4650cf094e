package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/movapay/movapay/config"
	"github.com/movapay/movapay/internal/gateway"
	"github.com/movapay/movapay/internal/handlers"
	"github.com/movapay/movapay/internal/mailer"
	"github.com/movapay/movapay/internal/middleware"
	"github.com/movapay/movapay/internal/translator"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	gatewayCfg, err := config.LoadGatewayConfig()
	if err != nil {
		return fmt.Errorf("failed to load gateway config: %v", err)
	}
	gatewayClient := gateway.NewClient(*gatewayCfg)

	deeplCfg, err := config.LoadDeepLConfig()
	if err != nil {
		return fmt.Errorf("failed to load translator config: %v", err)
	}
	translatorClient := translator.NewClient(*deeplCfg)

	smtpCfg, err := config.LoadSMTPConfig()
	if err != nil {
		return fmt.Errorf("failed to load smtp config: %v", err)
	}
	notifier := mailer.NewSMTPNotifier(*smtpCfg)

	var redisClient *redis.Client
	if redisCfg := config.LoadRedisConfig(); redisCfg.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
		})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, stats caching disabled")
	}

	r := gin.Default()

	setupRoutes(r, db, gatewayClient, translatorClient, notifier, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	gatewayClient *gateway.Client,
	translatorClient *translator.Client,
	notifier mailer.Notifier,
	redisClient *redis.Client,
) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.GatewayMiddleware(gatewayClient))
	r.Use(middleware.TranslatorMiddleware(translatorClient))
	r.Use(middleware.MailerMiddleware(notifier))
	r.Use(middleware.RedisMiddleware(redisClient))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		// Unauthenticated by contract; the handler verifies the gateway
		// signature instead.
		public.POST("/callbacks/wayforpay", handlers.WayForPayCallback)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile)
		protected.DELETE("/users/:id", handlers.DeleteUser)

		payments := protected.Group("/payments")
		{
			payments.POST("", handlers.CreatePayment)
			payments.GET("", handlers.ListPayments)
			payments.GET("/:id", handlers.GetPayment)
			payments.DELETE("/:id", handlers.DeletePayment)
			payments.POST("/:id/confirm", handlers.ConfirmPayment)
		}

		translations := protected.Group("/translations")
		{
			translations.GET("", handlers.ListTranslations)
			translations.GET("/:id", handlers.GetTranslation)
			translations.DELETE("/:id", handlers.DeleteTranslation)
		}

		protected.GET("/stats", handlers.GetStats)
	}
}
