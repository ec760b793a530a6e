package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/game-gallery/internal/api"
	"github.com/annel0/game-gallery/internal/auth"
	"github.com/annel0/game-gallery/internal/cache"
	"github.com/annel0/game-gallery/internal/catalog"
	"github.com/annel0/game-gallery/internal/config"
	"github.com/annel0/game-gallery/internal/logging"
	"github.com/annel0/game-gallery/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV GALLERY_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("Запуск Game Gallery Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("Ошибка чтения конфигурации: %v", err)
		log.Fatalf("Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("Конфигурация сервера: REST API=%s, storage=%s", restPort, storageBackend(cfg))

	// === TELEMETRY ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "game-gallery", cfg.Observability.GetOTLPEndpoint())
	if err != nil {
		// Трассировка опциональна: без коллектора сервер всё равно работает
		logging.Warn("OpenTelemetry не инициализирован: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === TOKEN MANAGER ===
	secret := cfg.Auth.GetJWTSecret()
	if secret == "" {
		logging.Error("GALLERY_JWT_SECRET не задан")
		log.Fatalf("Секрет подписи токенов обязателен: задайте GALLERY_JWT_SECRET или auth.jwt_secret")
	}
	tokens, err := auth.NewTokenManagerFromBase64(secret, time.Duration(cfg.Auth.TokenExpiryHours)*time.Hour)
	if err != nil {
		logging.Error("Неверный секрет подписи: %v", err)
		log.Fatalf("Неверный секрет подписи: %v", err)
	}

	// === CREDENTIAL STORE ===
	userRepo, repoCloser, err := buildUserRepo(cfg)
	if err != nil {
		logging.Error("Ошибка инициализации хранилища пользователей: %v", err)
		log.Fatalf("Ошибка инициализации хранилища пользователей: %v", err)
	}
	defer repoCloser()

	authService := auth.NewService(userRepo, tokens)

	// === CATALOG GATEWAY ===
	var catalogClient *catalog.Client
	if key := cfg.Catalog.GetAPIKey(); key != "" {
		baseURL := cfg.Catalog.BaseURL
		if baseURL == "" {
			baseURL = "https://api.rawg.io/api"
		}

		opts := []catalog.Option{}
		if cfg.Cache.Enabled {
			redisCache, err := cache.NewRedisCache(&cache.CacheConfig{
				RedisURL:      cfg.Cache.RedisURL,
				RedisPassword: cfg.Cache.RedisPassword,
				RedisDB:       cfg.Cache.RedisDB,
			})
			if err != nil {
				logging.Warn("Redis недоступен, каталог работает без кеша: %v", err)
			} else {
				defer redisCache.Close()
				ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
				if ttl <= 0 {
					ttl = 60 * time.Second
				}
				opts = append(opts, catalog.WithCache(redisCache, ttl))
			}
		}

		catalogClient = catalog.NewClient(baseURL, key, opts...)
		logging.Info("Шлюз каталога игр включен: %s", baseURL)
	} else {
		logging.Warn("Ключ каталога не задан — маршруты /api/games отключены")
	}

	// === REST SERVER ===
	restServer := api.NewRestServer(api.Config{
		Port:        restPort,
		AuthService: authService,
		Catalog:     catalogClient,
	})

	httpServer := &http.Server{
		Addr:    restServer.Port(),
		Handler: restServer.Router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка REST API сервера: %v", err)
		}
	}()

	logging.Info("Сервер запущен: http://localhost%s", restPort)
	logging.Info("   POST   /api/register")
	logging.Info("   POST   /api/login")
	logging.Info("   DELETE /api/users/me (x-auth-token)")
	logging.Info("   GET    /api/games, /api/genres, /api/platforms, /api/favourites")
	logging.Info("   GET    /health, /metrics")

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка при остановке HTTP сервера: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("Ошибка при остановке телеметрии: %v", err)
	}

	logging.Info("Сервер остановлен")
}

// buildUserRepo выбирает реализацию хранилища по конфигурации.
// По умолчанию — MongoDB, как в продакшен-развертывании.
func buildUserRepo(cfg *config.Config) (auth.UserRepository, func(), error) {
	switch storageBackend(cfg) {
	case "memory":
		logging.Warn("Используется in-memory хранилище пользователей (без персистентности)")
		return auth.NewMemoryUserRepo(), func() {}, nil

	case "maria":
		repo, err := auth.NewMariaUserRepo(auth.MariaConfig{
			Host:     cfg.Storage.MariaHost,
			Port:     cfg.Storage.MariaPort,
			Database: cfg.Storage.MariaDatabase,
			Username: cfg.Storage.MariaUsername,
			Password: cfg.Storage.MariaPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		logging.Info("MariaDB подключена успешно")
		return repo, func() { _ = repo.Close() }, nil

	default:
		repo, err := auth.NewMongoUserRepo(auth.MongoConfig{
			URI:        cfg.Storage.GetMongoURI(),
			Database:   cfg.Storage.MongoDatabase,
			Collection: cfg.Storage.MongoCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		logging.Info("MongoDB подключена успешно")
		return repo, func() { _ = repo.Close() }, nil
	}
}

func storageBackend(cfg *config.Config) string {
	switch cfg.Storage.Backend {
	case "memory", "maria":
		return cfg.Storage.Backend
	default:
		return "mongo"
	}
}
