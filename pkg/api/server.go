package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"QuantDataHub/pkg/logger"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器
func NewServer(port string, readTimeout, writeTimeout time.Duration) *Server {
	router := gin.New()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// Router 暴露底层路由，供测试使用
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 交易日历接口
		v1.GET("/calendar", handlers.GetCalendar)
		v1.GET("/calendar/next", handlers.GetNextTradeDate)
		v1.GET("/calendar/is-trade-date", handlers.IsTradeDate)

		// 板块接口
		v1.GET("/sectors", handlers.ListSectors)
		v1.POST("/sectors", handlers.CreateSector)
		v1.GET("/sectors/:name/stocks", handlers.GetSectorStocks)

		// K线接口
		v1.GET("/klines", handlers.GetKlines)

		// 除权接口
		v1.GET("/dividends", handlers.GetDividends)

		// 同步接口
		v1.GET("/sync/runs", handlers.ListSyncRuns)
		v1.POST("/sync/:job", handlers.TriggerSync)
	}
}

// Start 启动服务器并阻塞等待中断信号
func (s *Server) Start() {
	go func() {
		logger.Info("API服务器启动在 " + s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("启动服务器失败: " + err.Error())
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭
	if err := s.srv.Shutdown(ctx); err != nil {
		logger.Fatal("服务器关闭失败: " + err.Error())
	}

	logger.Info("服务器已关闭")
}
