package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/jobs/eventhub/internal/service"
	"github.com/spf13/cast"
)

var Provider = wire.NewSet(
	NewScheduleAPI,
	NewListenerAPI,
	NewFormAPI,
	NewCommonAPI,
	NewServer,
)

func onGinBind(c *gin.Context, val any, typ string) bool {
	switch typ {
	case "JSON":
		if err := c.ShouldBindJSON(val); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return false
		}
	case "QUERY":
		if err := c.ShouldBindQuery(val); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return false
		}
	default:
		if err := c.ShouldBind(val); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return false
		}
	}
	return true
}

// onGinResponse 错误交给 ErrorHandlingMiddleware 统一映射状态码
func onGinResponse[T any](c *gin.Context, data T, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// onGinPathID 解析路径中的数字 id
func onGinPathID(c *gin.Context, name string) (uint64, bool) {
	id, err := cast.ToUint64E(c.Param(name))
	if err != nil || id == 0 {
		_ = c.Error(fmt.Errorf("%w: bad %s %q", service.ErrInvalidArgument, name, c.Param(name)))
		return 0, false
	}
	return id, true
}
