// Package bootstrap builds the long-lived clients the API server wires together.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/clinicdesk/internal/config"
	"github.com/wolfman30/clinicdesk/internal/notify"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool opens the reschedule ledger database, or returns nil
// when no URL is configured or the database cannot be reached.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Warn("postgres pool not created, reschedule history disabled", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not reachable, reschedule history disabled", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildMailer picks the mailer named by EMAIL_PROVIDER ("sendgrid" or "ses").
// A provider that is not fully configured falls back to a logging mailer.
func BuildMailer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.Mailer {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewLogMailer(logger)
	}

	switch strings.ToLower(cfg.EmailProvider) {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("aws config not loaded, email delivery disabled", "error", err)
			break
		}
		if m := notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); m != nil {
			return m
		}
	case "", "sendgrid":
		if m := notify.NewSendGridMailer(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); m != nil {
			return m
		}
	default:
		logger.Warn("unknown email provider, email delivery disabled", "provider", cfg.EmailProvider)
	}
	return notify.NewLogMailer(logger)
}
