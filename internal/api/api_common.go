package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/internal/service"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/samber/lo"
)

type ICommonAPI interface {
	// HealthCheck 健康检查
	// 返回存储连通性和本节点的 master 状态
	// @GET(api/v1/health)
	HealthCheck(ctx *gin.Context) (HealthResp, error)

	// Events 事件目录
	// @GET(api/v1/events)
	Events(ctx *gin.Context) ([]EventResp, error)

	// Handlers 可在监听器配置中引用的处理器名称
	// @GET(api/v1/handlers)
	Handlers(ctx *gin.Context) ([]string, error)

	// Publish 按名称发布一个事件
	// @POST(api/v1/events/{name}/publish)
	Publish(ctx *gin.Context, name string, req PublishEventReq) (string, error)
}

var _ ICommonAPI = (*CommonAPI)(nil)

type Pinger interface {
	Ping() error
}

type CommonAPI struct {
	bus      *event.Bus
	oracle   scheduler.MasterOracle
	sched    *scheduler.Scheduler
	storage  Pinger
	instance string
}

func NewCommonAPI(
	cfg config.Config,
	bus *event.Bus,
	oracle scheduler.MasterOracle,
	sched *scheduler.Scheduler,
	storage Pinger,
) ICommonAPI {
	return &CommonAPI{
		bus:      bus,
		oracle:   oracle,
		sched:    sched,
		storage:  storage,
		instance: cfg.Scheduler.InstanceID,
	}
}

func (a *CommonAPI) HealthCheck(ctx *gin.Context) (HealthResp, error) {
	if err := a.storage.Ping(); err != nil {
		return HealthResp{}, err
	}
	return HealthResp{
		Status:       "healthy",
		Instance:     a.instance,
		Master:       a.oracle.IsMaster(),
		ActiveTimers: len(a.sched.Active()),
		Time:         time.Now(),
	}, nil
}

func (a *CommonAPI) Events(ctx *gin.Context) ([]EventResp, error) {
	return lo.Map(a.bus.Catalogue().All(), func(d *event.Descriptor, _ int) EventResp {
		return EventResp{
			Name:        d.Name(),
			PayloadType: d.PayloadType().String(),
			Listeners:   len(a.bus.Registrations(d)),
		}
	}), nil
}

func (a *CommonAPI) Handlers(ctx *gin.Context) ([]string, error) {
	return a.bus.Handlers().Names(), nil
}

func (a *CommonAPI) Publish(ctx *gin.Context, name string, req PublishEventReq) (string, error) {
	d, ok := a.bus.Catalogue().Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", event.ErrUnknownEvent, name)
	}

	ptr := reflect.New(d.PayloadType())
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, ptr.Interface()); err != nil {
			return "", fmt.Errorf("%w: payload for %s: %v", service.ErrInvalidArgument, name, err)
		}
	}
	payload := ptr.Elem().Interface()

	// gin 在请求结束后复用 *gin.Context，异步分发只能拿到 Request 自身的 context
	reqCtx := ctx.Request.Context()
	if req.Async {
		a.bus.PublishAsync(reqCtx, d, payload)
		return "event queued", nil
	}
	if err := a.bus.Publish(reqCtx, d, payload); err != nil {
		return "", err
	}
	return "event published", nil
}
