// server.go — HTTP 路由 (运行投递与生命周期端点)。
package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server 入站 HTTP/WS 服务。
type Server struct {
	router   *gin.Engine
	registry *Registry
	stores   *Stores
	upgrader websocket.Upgrader
}

// NewServer 创建服务并注册路由。stores 可为 nil (禁用审计查询)。
func NewServer(registry *Registry, stores *Stores) *Server {
	s := &Server{
		router:   gin.Default(),
		registry: registry,
		stores:   stores,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	return s
}

// Engine 返回 Gin 引擎。
func (s *Server) Engine() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.healthz)

	v1 := s.router.Group("/v1")
	v1.POST("/runs/:key/deliver", s.deliverRun)
	v1.POST("/runs/:key/finalize", s.finalizeRun)
	v1.POST("/runs/:key/error", s.errorRun)
	v1.GET("/runs/:key/stream", s.streamRun)

	audit := v1.Group("/audit")
	audit.GET("/system-logs", s.listSystemLogs)
	audit.GET("/system-logs/filters", s.systemLogFilters)
	audit.GET("/publish-logs", s.listPublishLogs)
	audit.GET("/publish-logs/filters", s.publishLogFilters)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// deliverRun 投递一份不透明负载。body 必须是 JSON object。
func (s *Server) deliverRun(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid_payload", err.Error())
		return
	}
	key := c.Param("key")
	if err := s.registry.Deliver(c.Request.Context(), key, payload); err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"run_key": key})
}

func (s *Server) finalizeRun(c *gin.Context) {
	key := c.Param("key")
	if err := s.registry.Finalize(c.Request.Context(), key); err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"run_key": key})
}

func (s *Server) errorRun(c *gin.Context) {
	key := c.Param("key")
	if err := s.registry.Error(c.Request.Context(), key); err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"run_key": key})
}
