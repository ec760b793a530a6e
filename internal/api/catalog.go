package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/annel0/game-gallery/internal/catalog"
	"github.com/annel0/game-gallery/internal/logging"
	"github.com/gin-gonic/gin"
)

// Обработчики шлюза каталога игр. Каталог — внешний сервис; ключ API
// добавляется на сервере, клиент его не видит. Параметры запроса
// пробрасываются по allowlist'у, всё остальное отбрасывается.

// handleGames возвращает страницу каталога с фильтрами галереи
func (rs *RestServer) handleGames(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 40 {
		pageSize = catalog.DefaultPageSize
	}

	query := catalog.GamesQuery{
		Page:      page,
		PageSize:  pageSize,
		Search:    c.Query("search"),
		Genres:    c.Query("genres"),
		Platforms: c.Query("platforms"),
		Ordering:  c.Query("ordering"),
	}

	games, err := rs.catalog.Games(c.Request.Context(), query)
	if err != nil {
		rs.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// handleGame возвращает детали одной игры
func (rs *RestServer) handleGame(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid game id"})
		return
	}

	game, err := rs.catalog.Game(c.Request.Context(), id)
	if err != nil {
		rs.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// handleGameStores возвращает ссылки на магазины для игры
func (rs *RestServer) handleGameStores(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid game id"})
		return
	}

	stores, err := rs.catalog.GameStores(c.Request.Context(), id)
	if err != nil {
		rs.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, stores)
}

// handleGenres возвращает список жанров для фильтра
func (rs *RestServer) handleGenres(c *gin.Context) {
	genres, err := rs.catalog.Genres(c.Request.Context())
	if err != nil {
		rs.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, genres)
}

// handlePlatforms возвращает список родительских платформ для фильтра
func (rs *RestServer) handlePlatforms(c *gin.Context) {
	platforms, err := rs.catalog.Platforms(c.Request.Context())
	if err != nil {
		rs.catalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, platforms)
}

// handleFavourites возвращает кураторский список игр.
// Недогруженные элементы просто отфильтровываются.
func (rs *RestServer) handleFavourites(c *gin.Context) {
	games := rs.catalog.Favourites(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(games),
		"results": games,
	})
}

// catalogError переводит ошибки каталога в HTTP-ответы
func (rs *RestServer) catalogError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrUnavailable) {
		c.JSON(http.StatusBadGateway, MsgResponse{Msg: "Catalog unavailable"})
		return
	}
	logging.Error("Catalog gateway error: %v", err)
	c.JSON(http.StatusInternalServerError, MsgResponse{Msg: "Server Error"})
}
