package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/annel0/game-gallery/internal/auth"
	"github.com/annel0/game-gallery/internal/catalog"
	"github.com/annel0/game-gallery/internal/logging"
	"github.com/annel0/game-gallery/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер галереи:
// аутентификация (/api/register, /api/login, /api/users/me)
// и шлюз каталога игр (/api/games и связанные маршруты).
type RestServer struct {
	router      *gin.Engine
	authService *auth.Service
	catalog     *catalog.Client
	port        string
	metrics     *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string          // порт для запуска сервера, например ":3001"
	AuthService *auth.Service   // сервис аутентификации
	Catalog     *catalog.Client // клиент каталога игр (может быть nil)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":3001"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("gallery_api")
	router.Use(otelRouter)

	promMw := middleware.NewPrometheusMiddleware("gallery_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:      router,
		authService: config.AuthService,
		catalog:     config.Catalog,
		port:        config.Port,
		metrics:     NewServerMetrics(),
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, x-auth-token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Группа API
	api := rs.router.Group("/api")

	// Эндпоинты аутентификации (без токена)
	api.POST("/register", rs.handleRegister)
	api.POST("/login", rs.handleLogin)

	// Защищенный эндпоинт: удаление своего аккаунта
	api.DELETE("/users/me", rs.tokenRequired(), rs.handleDeleteAccount)

	// Шлюз каталога игр
	if rs.catalog != nil {
		api.GET("/games", rs.handleGames)
		api.GET("/games/:id", rs.handleGame)
		api.GET("/games/:id/stores", rs.handleGameStores)
		api.GET("/genres", rs.handleGenres)
		api.GET("/platforms", rs.handlePlatforms)
		api.GET("/favourites", rs.handleFavourites)
	}

	// Информация о сервере
	api.GET("/server", rs.handleServerInfo)

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MsgResponse — тело ошибки и простых подтверждений: {"msg": "..."}.
// Формат зафиксирован существующим клиентом галереи.
type MsgResponse struct {
	Msg string `json:"msg"`
}

// handleRegister обрабатывает запрос на регистрацию.
// Успех: 200 {token, user:{id,username,email}}.
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid request body"})
		return
	}

	creds, err := rs.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "User already exists"})
		return
	}
	if err != nil {
		// Детали ошибки остаются в логах, наружу уходит общий ответ
		logging.Error("Register failed: %v", err)
		c.JSON(http.StatusInternalServerError, MsgResponse{Msg: "Server Error"})
		return
	}

	c.JSON(http.StatusOK, creds)
}

// handleLogin обрабатывает запрос на вход.
// Неизвестный email и неверный пароль дают одинаковый ответ.
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid request body"})
		return
	}

	creds, err := rs.authService.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid credentials"})
		return
	}
	if err != nil {
		logging.Error("Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, MsgResponse{Msg: "Server Error"})
		return
	}

	c.JSON(http.StatusOK, creds)
}

// handleDeleteAccount удаляет аккаунт, на который указывает токен.
// Повторное удаление уже отсутствующего аккаунта тоже отвечает 200:
// пост-условие («записи нет») выполнено в обоих случаях.
func (rs *RestServer) handleDeleteAccount(c *gin.Context) {
	token := c.GetString("token")

	err := rs.authService.DeleteAccount(c.Request.Context(), token)
	if errors.Is(err, auth.ErrInvalidToken) {
		c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Token is not valid"})
		return
	}
	if err != nil {
		logging.Error("Delete account failed: %v", err)
		c.JSON(http.StatusInternalServerError, MsgResponse{Msg: "Server Error"})
		return
	}

	c.JSON(http.StatusOK, MsgResponse{Msg: "User deleted successfully"})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	c.JSON(http.StatusOK, gin.H{
		"name":        "Game Gallery Server",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   memoryMB,
		"cpu_percent": cpuPercent,
		"server_time": time.Now().Unix(),
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Router возвращает gin-роутер (для httptest и для graceful shutdown)
func (rs *RestServer) Router() http.Handler {
	return rs.router
}

// Port возвращает адрес, на котором сервер должен слушать
func (rs *RestServer) Port() string {
	return rs.port
}

// Start запускает REST сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}
