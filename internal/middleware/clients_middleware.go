package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/movapay/movapay/internal/gateway"
	"github.com/movapay/movapay/internal/mailer"
	"github.com/movapay/movapay/internal/translator"
)

func GatewayMiddleware(client *gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("gateway_client", client)
		c.Next()
	}
}

func GetGatewayClient(c *gin.Context) *gateway.Client {
	client, exists := c.Get("gateway_client")
	if !exists {
		return nil
	}
	return client.(*gateway.Client)
}

func TranslatorMiddleware(client *translator.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("translator_client", client)
		c.Next()
	}
}

func GetTranslatorClient(c *gin.Context) *translator.Client {
	client, exists := c.Get("translator_client")
	if !exists {
		return nil
	}
	return client.(*translator.Client)
}

func MailerMiddleware(notifier mailer.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("mailer", notifier)
		c.Next()
	}
}

func GetMailer(c *gin.Context) mailer.Notifier {
	notifier, exists := c.Get("mailer")
	if !exists {
		return nil
	}
	return notifier.(mailer.Notifier)
}

// RedisMiddleware is optional; handlers fall back to the database when no
// client is configured.
func RedisMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client != nil {
			c.Set("redis_client", client)
		}
		c.Next()
	}
}

func GetRedisClient(c *gin.Context) *redis.Client {
	client, exists := c.Get("redis_client")
	if !exists {
		return nil
	}
	return client.(*redis.Client)
}
