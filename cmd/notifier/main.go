package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/config"
	gateway "github.com/shivamprakash2909/loan-app/internal/gateways"
	"github.com/shivamprakash2909/loan-app/internal/notifier"
	"github.com/shivamprakash2909/loan-app/pkg/logger"
	"github.com/shivamprakash2909/loan-app/pkg/prom"
	"github.com/shivamprakash2909/loan-app/pkg/redis"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	if config.Get().AppDebugMetricsAddr != "" {
		if err := prom.Create("", config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Warn("failed to init metrics", "error", err)
		}
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	providers := make([]gateway.ProviderConfig, 0, 3)
	if url := config.Get().ProviderPrimaryUrl; url != "" {
		providers = append(providers, gateway.ProviderConfig{Name: "primary", URL: url, Weight: 100})
	}
	if url := config.Get().ProviderSecondaryUrl; url != "" {
		providers = append(providers, gateway.ProviderConfig{Name: "secondary", URL: url, Weight: 50})
	}
	if url := config.Get().ProviderBackupUrl; url != "" {
		providers = append(providers, gateway.ProviderConfig{Name: "backup", URL: url, Weight: 10})
	}

	client, err := gateway.NewClient(&gateway.Config{
		Providers:               providers,
		Timeout:                 5 * time.Second,
		MaxRetries:              2,
		RetryDelay:              200 * time.Millisecond,
		MaxConns:                512,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   time.Minute,
	})
	if err != nil {
		logger.Error("failed creating provider client", "error", err)
		return
	}
	defer client.Close()

	idempotency := notifier.NewIdempotencyService(redisAdap, notifier.DefaultIdempotencyConfig())
	processor := notifier.NewReceiptProcessor(client, idempotency)

	service, err := notifier.NewNotifierService(redisAdap)
	if err != nil {
		logger.Error("failed creating notifier service", "error", err)
		return
	}
	service.RegisterProcessor(processor)

	if err := service.Start(); err != nil {
		logger.Error("failed starting notifier service", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	service.Stop()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
