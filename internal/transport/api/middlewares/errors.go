package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// fallbackStatus статус для ошибки, после которой хендлер не выставил код ответа.
const fallbackStatus = http.StatusInternalServerError

// Errors отдает клиенту первую ошибку контекста. Публичная ошибка (gin.ErrorTypePublic) уходит своим текстом,
// приватная заменяется текстом статуса, а подробности остаются в логе.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// тело уже записано хендлером, ошибки остаются только для лога.
		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = fallbackStatus
		}

		writeError(c, status, clientMessage(c.Errors[0], status))
		c.Abort()
	}
}

func clientMessage(err *gin.Error, status int) string {
	if err.IsType(gin.ErrorTypePublic) {
		return err.Error()
	}
	return strings.ToLower(http.StatusText(status))
}

// writeError пишет JSON, если клиент его принимает или прислал JSON сам, иначе простой текст.
func writeError(c *gin.Context, status int, msg string) {
	if wantsJSON(c.Request) {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.String(status, msg)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), gin.MIMEJSON) ||
		strings.Contains(r.Header.Get("Content-Type"), gin.MIMEJSON)
}
