package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/biz/form"
	"github.com/jobs/eventhub/internal/service"
	"github.com/samber/lo"
)

type IFormAPI interface {
	// List 获取表单定义列表
	// @GET(api/v1/forms)
	List(ctx *gin.Context) ([]FormResp, error)

	// Get 获取表单定义
	// @GET(api/v1/forms/{id})
	Get(ctx *gin.Context, id uint64) (FormResp, error)

	// Create 创建表单定义
	// @POST(api/v1/forms)
	Create(ctx *gin.Context, req CreateFormReq) (FormResp, error)

	// Update 更新表单定义
	// @PUT(api/v1/forms/{id})
	Update(ctx *gin.Context, id uint64, req UpdateFormReq) (FormResp, error)

	// Delete 删除表单定义
	// @DELETE(api/v1/forms/{id})
	Delete(ctx *gin.Context, id uint64) (string, error)
}

var _ IFormAPI = (*FormAPI)(nil)

type FormAPI struct {
	svc *service.FormService
}

func NewFormAPI(svc *service.FormService) IFormAPI {
	return &FormAPI{svc: svc}
}

func (a *FormAPI) List(ctx *gin.Context) ([]FormResp, error) {
	defs, err := a.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(defs, func(d *form.Definition, _ int) FormResp {
		return toFormResp(d)
	}), nil
}

func (a *FormAPI) Get(ctx *gin.Context, id uint64) (FormResp, error) {
	def, err := a.svc.Get(ctx, id)
	if err != nil {
		return FormResp{}, err
	}
	return toFormResp(def), nil
}

func (a *FormAPI) Create(ctx *gin.Context, req CreateFormReq) (FormResp, error) {
	def, err := a.svc.Create(ctx, req.toRequest())
	if err != nil {
		return FormResp{}, err
	}
	return toFormResp(def), nil
}

func (a *FormAPI) Update(ctx *gin.Context, id uint64, req UpdateFormReq) (FormResp, error) {
	def, err := a.svc.Update(ctx, id, req.toRequest())
	if err != nil {
		return FormResp{}, err
	}
	return toFormResp(def), nil
}

func (a *FormAPI) Delete(ctx *gin.Context, id uint64) (string, error) {
	if err := a.svc.Delete(ctx, id); err != nil {
		return "", err
	}
	return "form deleted successfully", nil
}
