// audit_api.go — 审计查询端点 (系统日志 / 外发记录)。
//
// 仅在配置了 PostgreSQL 时可用; 未配置时统一返回 503。
package service

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/multi-agent/agent-card-bridge/internal/store"
)

// Stores 审计查询所需的存储集合。
type Stores struct {
	SystemLog  *store.SystemLogStore
	PublishLog *store.PublishLogStore
}

func (s *Server) requireStores(c *gin.Context) bool {
	if s.stores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false,
			"error": gin.H{"code": "persistence_disabled", "message": "未配置数据库"}})
		return false
	}
	return true
}

func queryLimit(c *gin.Context, def int) int {
	v, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if v < 1 {
		return def
	}
	if v > 2000 {
		return 2000
	}
	return v
}

func (s *Server) listSystemLogs(c *gin.Context) {
	if !s.requireStores(c) {
		return
	}
	items, err := s.stores.SystemLog.List(c.Request.Context(), store.SystemLogParams{
		Level:     c.Query("level"),
		Component: c.Query("component"),
		RunKey:    c.Query("run_key"),
		EventType: c.Query("event_type"),
		ToolName:  c.Query("tool_name"),
		Keyword:   c.Query("keyword"),
		Limit:     queryLimit(c, 100),
	})
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, items)
}

func (s *Server) systemLogFilters(c *gin.Context) {
	if !s.requireStores(c) {
		return
	}
	values, err := s.stores.SystemLog.ListFilterValues(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, values)
}

func (s *Server) listPublishLogs(c *gin.Context) {
	if !s.requireStores(c) {
		return
	}
	items, err := s.stores.PublishLog.List(c.Request.Context(), store.PublishLogParams{
		RunKey:    c.Query("run_key"),
		MessageID: c.Query("message_id"),
		Action:    c.Query("action"),
		Status:    c.Query("status"),
		Limit:     queryLimit(c, 100),
	})
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, items)
}

func (s *Server) publishLogFilters(c *gin.Context) {
	if !s.requireStores(c) {
		return
	}
	values, err := s.stores.PublishLog.ListFilterValues(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, values)
}
