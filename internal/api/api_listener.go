package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/service"
	"github.com/samber/lo"
)

type IListenerAPI interface {
	// List 获取监听器配置列表
	// @GET(api/v1/listeners)
	List(ctx *gin.Context, req ListListenersReq) ([]ListenerResp, error)

	// Get 获取监听器配置
	// @GET(api/v1/listeners/{id})
	Get(ctx *gin.Context, id uint64) (ListenerResp, error)

	// Create 创建监听器配置
	// 事件名和处理器必须能在本进程解析
	// @POST(api/v1/listeners)
	Create(ctx *gin.Context, req CreateListenerReq) (ListenerResp, error)

	// Update 更新监听器配置
	// @PUT(api/v1/listeners/{id})
	Update(ctx *gin.Context, id uint64, req UpdateListenerReq) (ListenerResp, error)

	// Delete 删除监听器配置
	// @DELETE(api/v1/listeners/{id})
	Delete(ctx *gin.Context, id uint64) (string, error)
}

var _ IListenerAPI = (*ListenerAPI)(nil)

type ListenerAPI struct {
	svc *service.ListenerService
}

func NewListenerAPI(svc *service.ListenerService) IListenerAPI {
	return &ListenerAPI{svc: svc}
}

func (a *ListenerAPI) List(ctx *gin.Context, req ListListenersReq) ([]ListenerResp, error) {
	defs, err := a.svc.List(ctx, req.toFilter())
	if err != nil {
		return nil, err
	}
	return lo.Map(defs, func(d *listener.Definition, _ int) ListenerResp {
		return toListenerResp(d)
	}), nil
}

func (a *ListenerAPI) Get(ctx *gin.Context, id uint64) (ListenerResp, error) {
	def, err := a.svc.Get(ctx, id)
	if err != nil {
		return ListenerResp{}, err
	}
	return toListenerResp(def), nil
}

func (a *ListenerAPI) Create(ctx *gin.Context, req CreateListenerReq) (ListenerResp, error) {
	def, err := a.svc.Create(ctx, req.toRequest())
	if err != nil {
		return ListenerResp{}, err
	}
	return toListenerResp(def), nil
}

func (a *ListenerAPI) Update(ctx *gin.Context, id uint64, req UpdateListenerReq) (ListenerResp, error) {
	def, err := a.svc.Update(ctx, id, req.toRequest())
	if err != nil {
		return ListenerResp{}, err
	}
	return toListenerResp(def), nil
}

func (a *ListenerAPI) Delete(ctx *gin.Context, id uint64) (string, error) {
	if err := a.svc.Delete(ctx, id); err != nil {
		return "", err
	}
	return "listener deleted successfully", nil
}
