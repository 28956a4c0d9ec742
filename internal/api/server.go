package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobs/eventhub/internal/api/middleware"
	"github.com/jobs/eventhub/internal/metrics"
	"github.com/jobs/eventhub/pkg/config"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer(
	cfg config.Config,
	recorder *metrics.Recorder,
	schedules IScheduleAPI,
	listeners IListenerAPI,
	forms IFormAPI,
	common ICommonAPI,
	logger *zap.Logger,
) *Server {
	s := &Server{logger: logger}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Metrics(recorder))
	s.router.Use(middleware.CorrelationID())
	s.router.Use(middleware.ErrorHandlingMiddleware(logger))
	s.router.Use(middleware.Cors())

	NewScheduleAPIWrap(schedules).BindAll(s.router)
	NewListenerAPIWrap(listeners).BindAll(s.router)
	NewFormAPIWrap(forms).BindAll(s.router)
	NewCommonAPIWrap(common).BindAll(s.router)

	if cfg.Metrics.Enabled {
		s.router.GET(cfg.Metrics.Path, gin.WrapH(recorder.Handler()))
	}

	s.http = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run 阻塞直到 Shutdown 被调用
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
