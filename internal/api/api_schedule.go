package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/service"
	"github.com/samber/lo"
)

type IScheduleAPI interface {
	// List 获取定时任务列表
	// @GET(api/v1/schedules)
	List(ctx *gin.Context, req ListSchedulesReq) ([]ScheduleResp, error)

	// Get 获取定时任务详情
	// @GET(api/v1/schedules/{id})
	Get(ctx *gin.Context, id uint64) (ScheduleResp, error)

	// Create 创建定时任务，提交后通知集群加载
	// @POST(api/v1/schedules)
	Create(ctx *gin.Context, req CreateScheduleReq) (ScheduleResp, error)

	// Update 更新定时任务
	// @PUT(api/v1/schedules/{id})
	Update(ctx *gin.Context, id uint64, req UpdateScheduleReq) (ScheduleResp, error)

	// Delete 删除定时任务
	// @DELETE(api/v1/schedules/{id})
	Delete(ctx *gin.Context, id uint64) (string, error)

	// Trigger 在本节点立即触发一次
	// @POST(api/v1/schedules/{id}/trigger)
	Trigger(ctx *gin.Context, id uint64) (string, error)
}

var _ IScheduleAPI = (*ScheduleAPI)(nil)

type ScheduleAPI struct {
	svc *service.ScheduleService
}

func NewScheduleAPI(svc *service.ScheduleService) IScheduleAPI {
	return &ScheduleAPI{svc: svc}
}

func (a *ScheduleAPI) resp(e *schedule.Entry) ScheduleResp {
	return toScheduleResp(e, a.svc.NextRun(e.ID))
}

func (a *ScheduleAPI) List(ctx *gin.Context, req ListSchedulesReq) ([]ScheduleResp, error) {
	entries, err := a.svc.List(ctx, req.toFilter())
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e *schedule.Entry, _ int) ScheduleResp {
		return a.resp(e)
	}), nil
}

func (a *ScheduleAPI) Get(ctx *gin.Context, id uint64) (ScheduleResp, error) {
	entry, err := a.svc.Get(ctx, id)
	if err != nil {
		return ScheduleResp{}, err
	}
	return a.resp(entry), nil
}

func (a *ScheduleAPI) Create(ctx *gin.Context, req CreateScheduleReq) (ScheduleResp, error) {
	entry, err := a.svc.Create(ctx, req.toRequest())
	if err != nil {
		return ScheduleResp{}, err
	}
	return a.resp(entry), nil
}

func (a *ScheduleAPI) Update(ctx *gin.Context, id uint64, req UpdateScheduleReq) (ScheduleResp, error) {
	entry, err := a.svc.Update(ctx, id, req.toRequest())
	if err != nil {
		return ScheduleResp{}, err
	}
	return a.resp(entry), nil
}

func (a *ScheduleAPI) Delete(ctx *gin.Context, id uint64) (string, error) {
	if err := a.svc.Delete(ctx, id); err != nil {
		return "", err
	}
	return "schedule deleted successfully", nil
}

func (a *ScheduleAPI) Trigger(ctx *gin.Context, id uint64) (string, error) {
	if err := a.svc.TriggerNow(ctx, id); err != nil {
		return "", err
	}
	return "schedule triggered", nil
}
