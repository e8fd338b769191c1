// cmd/bridge-server — 卡片桥接服务主入口。
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/config"
	"github.com/multi-agent/agent-card-bridge/internal/database"
	"github.com/multi-agent/agent-card-bridge/internal/lark"
	"github.com/multi-agent/agent-card-bridge/internal/renderer"
	"github.com/multi-agent/agent-card-bridge/internal/service"
	"github.com/multi-agent/agent-card-bridge/internal/store"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
	"github.com/multi-agent/agent-card-bridge/pkg/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.Init(cfg.LogEnv, cfg.LogLevel)

	// 持久化是可选的审计面: 无连接串时纯内存运行
	var stores *service.Stores
	var publishLogs *store.PublishLogStore
	if cfg.PostgresConnStr != "" {
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("数据库初始化失败", logger.Any(logger.FieldError, err))
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, "./migrations"); err != nil {
			logger.Fatal("迁移失败", logger.Any(logger.FieldError, err))
		}
		logger.AttachDBHandler(pool)
		defer logger.ShutdownDBHandler()

		systemLogs := store.NewSystemLogStore(pool)
		publishLogs = store.NewPublishLogStore(pool)
		stores = &service.Stores{SystemLog: systemLogs, PublishLog: publishLogs}

		// 每日清理过期系统日志
		util.SafeGo(func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					n, err := systemLogs.Cleanup(ctx, cfg.LogRetentionDays)
					if err != nil {
						logger.Warnw("系统日志清理失败", logger.FieldError, err)
						continue
					}
					logger.Infow("系统日志清理完成", logger.FieldCount, n)
				}
			}
		})
	}

	chat := lark.NewClient(cfg.ChatAPIBaseURL, cfg.ChatAPIToken,
		time.Duration(cfg.ChatTimeoutSec)*time.Second)

	registry := service.NewRegistry(func(runKey string) *renderer.Controller {
		return renderer.New(service.NewAuditClient(chat, publishLogs, runKey), renderer.Options{
			Target:       cfg.ChatReceiveID,
			RunKey:       runKey,
			MinInterval:  time.Duration(cfg.PublishMinIntervalMS) * time.Millisecond,
			BodyMaxChars: cfg.BodyMaxChars,
		})
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: service.NewServer(registry, stores).Engine(),
	}
	logger.Infow("bridge-server 启动", logger.FieldAddr, cfg.ListenAddr)
	util.SafeGo(func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务启动失败", logger.Any(logger.FieldError, err))
		}
	})

	<-ctx.Done()
	logger.Info("开始退出")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP 关闭超时", logger.Any(logger.FieldError, err))
	}
	// 在途运行的最后一次发布落地后再退出
	registry.FlushAll(shutdownCtx)
	logger.Info("退出完成")
}
