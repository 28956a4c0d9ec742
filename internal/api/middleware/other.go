package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/internal/service"
	"github.com/jobs/eventhub/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandlingMiddleware 统一错误处理中间件
func ErrorHandlingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "An internal error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var dispatchErr *event.DispatchError
		switch {
		case errors.Is(err, service.ErrNotFound),
			errors.Is(err, gorm.ErrRecordNotFound),
			errors.Is(err, event.ErrUnknownEvent):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "Resource not found",
				Details: err.Error(),
			})
		case errors.Is(err, service.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "INVALID_ARGUMENT",
				Message: "Invalid request",
				Details: err.Error(),
			})
		case errors.Is(err, scheduler.ErrNotScheduled):
			c.JSON(http.StatusConflict, ErrorResponse{
				Code:    "NOT_SCHEDULED",
				Message: "Schedule has no active timer on this node",
				Details: err.Error(),
			})
		case errors.Is(err, gorm.ErrDuplicatedKey):
			c.JSON(http.StatusConflict, ErrorResponse{
				Code:    "DUPLICATE",
				Message: "Resource already exists",
			})
		case errors.As(err, &dispatchErr):
			logger.Warn("listener failed during request",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Code:    "LISTENER_FAILED",
				Message: "A listener rejected the event",
				Details: err.Error(),
			})
		default:
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    "INTERNAL_ERROR",
				Message: "An error occurred while processing your request",
				Details: err.Error(),
			})
		}
	}
}

// HeaderCorrelationID 请求和响应中携带关联ID的头
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationID 把请求头中的关联ID（没有则新生成）写入 Request 的 context，并回写到响应头
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderCorrelationID)
		if id == "" {
			id = logger.NewCorrelationID()
		}
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), id))
		c.Header(HeaderCorrelationID, id)
		c.Next()
	}
}

// Cors 允许所有来源的管理端跨域访问
func Cors() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", HeaderCorrelationID}
	return cors.New(config)
}

type RequestObserver interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

// Metrics 按路由模板记录请求数和耗时，未匹配的路由记为 unmatched
func Metrics(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		o.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
