package api

import (
	"github.com/gin-gonic/gin"
)

// 以下包装把 I*API 接口按注释中的路由绑定到 gin

type ScheduleAPIWrap struct {
	inner IScheduleAPI
}

func NewScheduleAPIWrap(inner IScheduleAPI) *ScheduleAPIWrap {
	return &ScheduleAPIWrap{inner: inner}
}

func (a *ScheduleAPIWrap) BindAll(r gin.IRouter) {
	r.GET("/api/v1/schedules", a.List)
	r.GET("/api/v1/schedules/:id", a.Get)
	r.POST("/api/v1/schedules", a.Create)
	r.PUT("/api/v1/schedules/:id", a.Update)
	r.DELETE("/api/v1/schedules/:id", a.Delete)
	r.POST("/api/v1/schedules/:id/trigger", a.Trigger)
}

func (a *ScheduleAPIWrap) List(c *gin.Context) {
	var req ListSchedulesReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.List(c, req)
	onGinResponse(c, resp, err)
}

func (a *ScheduleAPIWrap) Get(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Get(c, id)
	onGinResponse(c, resp, err)
}

func (a *ScheduleAPIWrap) Create(c *gin.Context) {
	var req CreateScheduleReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Create(c, req)
	onGinResponse(c, resp, err)
}

func (a *ScheduleAPIWrap) Update(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	var req UpdateScheduleReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Update(c, id, req)
	onGinResponse(c, resp, err)
}

func (a *ScheduleAPIWrap) Delete(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Delete(c, id)
	onGinResponse(c, resp, err)
}

func (a *ScheduleAPIWrap) Trigger(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Trigger(c, id)
	onGinResponse(c, resp, err)
}

type ListenerAPIWrap struct {
	inner IListenerAPI
}

func NewListenerAPIWrap(inner IListenerAPI) *ListenerAPIWrap {
	return &ListenerAPIWrap{inner: inner}
}

func (a *ListenerAPIWrap) BindAll(r gin.IRouter) {
	r.GET("/api/v1/listeners", a.List)
	r.GET("/api/v1/listeners/:id", a.Get)
	r.POST("/api/v1/listeners", a.Create)
	r.PUT("/api/v1/listeners/:id", a.Update)
	r.DELETE("/api/v1/listeners/:id", a.Delete)
}

func (a *ListenerAPIWrap) List(c *gin.Context) {
	var req ListListenersReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.List(c, req)
	onGinResponse(c, resp, err)
}

func (a *ListenerAPIWrap) Get(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Get(c, id)
	onGinResponse(c, resp, err)
}

func (a *ListenerAPIWrap) Create(c *gin.Context) {
	var req CreateListenerReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Create(c, req)
	onGinResponse(c, resp, err)
}

func (a *ListenerAPIWrap) Update(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	var req UpdateListenerReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Update(c, id, req)
	onGinResponse(c, resp, err)
}

func (a *ListenerAPIWrap) Delete(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Delete(c, id)
	onGinResponse(c, resp, err)
}

type FormAPIWrap struct {
	inner IFormAPI
}

func NewFormAPIWrap(inner IFormAPI) *FormAPIWrap {
	return &FormAPIWrap{inner: inner}
}

func (a *FormAPIWrap) BindAll(r gin.IRouter) {
	r.GET("/api/v1/forms", a.List)
	r.GET("/api/v1/forms/:id", a.Get)
	r.POST("/api/v1/forms", a.Create)
	r.PUT("/api/v1/forms/:id", a.Update)
	r.DELETE("/api/v1/forms/:id", a.Delete)
}

func (a *FormAPIWrap) List(c *gin.Context) {
	resp, err := a.inner.List(c)
	onGinResponse(c, resp, err)
}

func (a *FormAPIWrap) Get(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Get(c, id)
	onGinResponse(c, resp, err)
}

func (a *FormAPIWrap) Create(c *gin.Context) {
	var req CreateFormReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Create(c, req)
	onGinResponse(c, resp, err)
}

func (a *FormAPIWrap) Update(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	var req UpdateFormReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Update(c, id, req)
	onGinResponse(c, resp, err)
}

func (a *FormAPIWrap) Delete(c *gin.Context) {
	id, ok := onGinPathID(c, "id")
	if !ok {
		return
	}
	resp, err := a.inner.Delete(c, id)
	onGinResponse(c, resp, err)
}

type CommonAPIWrap struct {
	inner ICommonAPI
}

func NewCommonAPIWrap(inner ICommonAPI) *CommonAPIWrap {
	return &CommonAPIWrap{inner: inner}
}

func (a *CommonAPIWrap) BindAll(r gin.IRouter) {
	r.GET("/api/v1/health", a.HealthCheck)
	r.GET("/api/v1/events", a.Events)
	r.GET("/api/v1/handlers", a.Handlers)
	r.POST("/api/v1/events/:name/publish", a.Publish)
}

func (a *CommonAPIWrap) HealthCheck(c *gin.Context) {
	resp, err := a.inner.HealthCheck(c)
	onGinResponse(c, resp, err)
}

func (a *CommonAPIWrap) Events(c *gin.Context) {
	resp, err := a.inner.Events(c)
	onGinResponse(c, resp, err)
}

func (a *CommonAPIWrap) Handlers(c *gin.Context) {
	resp, err := a.inner.Handlers(c)
	onGinResponse(c, resp, err)
}

func (a *CommonAPIWrap) Publish(c *gin.Context) {
	var req PublishEventReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Publish(c, c.Param("name"), req)
	onGinResponse(c, resp, err)
}
