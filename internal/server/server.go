package server

import (
	"net/http"

	"github.com/iceymoss/go-taskimport/internal/engine"
	"github.com/iceymoss/go-taskimport/pkg/errors"
	"github.com/iceymoss/go-taskimport/pkg/xerr"

	"github.com/gin-gonic/gin"
)

type Server struct {
	engine    *gin.Engine
	scheduler *engine.Scheduler
}

func NewServer(scheduler *engine.Scheduler) *Server {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":  xerr.ErrInternalServer,
			"error": "internal server error",
		})
	}))

	api := router.Group("/api")
	{
		api.GET("/tasks", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": scheduler.Stats.GetAll()})
		})

		api.POST("/tasks/:name/run", func(c *gin.Context) {
			name := c.Param("name")
			if err := scheduler.ManualRun(name); err != nil {
				c.JSON(errorStatus(err), gin.H{"code": errorCode(err), "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Triggered"})
		})
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": xerr.ErrNotFound, "error": "API not found"})
	})

	return &Server{engine: router, scheduler: scheduler}
}

// Handler 暴露路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	// 启动任务调度器
	s.scheduler.Start()
	defer s.scheduler.Stop()

	// 启动 web server
	return s.engine.Run(addr)
}

// errorCode 未带错误码的错误按请求错误处理
func errorCode(err error) int {
	if code := errors.CodeOf(err); code != 0 {
		return code
	}
	return xerr.ErrBadRequest
}

func errorStatus(err error) int {
	if errors.HasCode(err, xerr.ErrTaskNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
