package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenHeader — заголовок, в котором клиент передает токен.
// Нестандартная схема (не Bearer) сохранена для совместимости
// с существующим клиентом галереи.
const TokenHeader = "x-auth-token"

// tokenRequired проверяет наличие токена в заголовке x-auth-token.
// Валидность токена проверяет auth.Service: ответ на невалидный токен
// одинаков независимо от того, где его отклонили.
func (rs *RestServer) tokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "No token, authorization denied"})
			c.Abort()
			return
		}

		// Сохраняем токен в контексте для обработчика
		c.Set("token", token)

		c.Next()
	}
}
