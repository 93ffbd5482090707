package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"highlights-service/handlers"
	"highlights-service/internal/auth"
	"highlights-service/internal/consul"
	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/settings"
	"highlights-service/internal/stores/kafka"
	"highlights-service/internal/stores/postgres"
	"highlights-service/internal/users"
	"highlights-service/internal/videos"
	"highlights-service/pkg/logkey"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := startApp(); err != nil {
		slog.Error("service failed to start", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})))

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on process environment")
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	orderConf, err := orders.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up order store: %w", err)
	}
	videoConf, err := videos.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up video store: %w", err)
	}
	userConf, err := users.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up user store: %w", err)
	}
	settingsConf, err := settings.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up settings store: %w", err)
	}

	keys, err := loadKeys()
	if err != nil {
		return fmt.Errorf("loading auth keys: %w", err)
	}

	gatewayClient, err := gateway.NewClient(os.Getenv("PAGARME_BASE_URL"), os.Getenv("PAGARME_SECRET_KEY"))
	if err != nil {
		return fmt.Errorf("setting up payment gateway: %w", err)
	}

	kafkaConf, err := kafka.NewConf()
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer kafkaConf.Close()

	consulClient, err := consul.NewClient()
	if err != nil {
		return fmt.Errorf("connecting to consul: %w", err)
	}
	port, err := consul.ServicePort()
	if err != nil {
		return fmt.Errorf("reading service port: %w", err)
	}
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "highlights-service"
	}
	serviceAddress := os.Getenv("SERVICE_ADDRESS")
	if serviceAddress == "" {
		serviceAddress = "localhost"
	}
	registrationId, err := consul.RegisterService(consulClient, serviceName, serviceAddress, port)
	if err != nil {
		return fmt.Errorf("registering with consul: %w", err)
	}
	defer func() {
		if err := consul.DeregisterService(consulClient, registrationId); err != nil {
			slog.Error("failed to deregister from consul", slog.String(logkey.ERROR, err.Error()))
		}
	}()

	h := handlers.NewHandler(orderConf, videoConf, userConf, settingsConf, gatewayClient, kafkaConf)

	prefix := os.Getenv("ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/highlights"
	}

	api := http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      handlers.API(prefix, keys, h),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.String("Address", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown signal received", slog.String("Signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			if closeErr := api.Close(); closeErr != nil {
				return fmt.Errorf("forcing server close: %w", closeErr)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// loadKeys reads the RSA material used to verify buyer tokens. The private key
// is optional; only the user service signs tokens.
func loadKeys() (*auth.Keys, error) {
	publicPEM, err := os.ReadFile(envOrDefault("AUTH_PUBLIC_KEY_FILE", "pubkey.pem"))
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	var privateKey *rsa.PrivateKey
	if privateFile := os.Getenv("AUTH_PRIVATE_KEY_FILE"); privateFile != "" {
		privatePEM, err := os.ReadFile(privateFile)
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
		privateKey, err = jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
	}

	return auth.NewKeys(privateKey, publicKey)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
