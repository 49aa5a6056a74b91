package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/iceymoss/go-taskimport/internal/conf"
	"github.com/iceymoss/go-taskimport/internal/engine"
	"github.com/iceymoss/go-taskimport/internal/server"
	"github.com/iceymoss/go-taskimport/pkg/logger"
	"github.com/iceymoss/go-taskimport/pkg/taskimport"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.yaml"

// 用法: scheduler [task...]
// 带任务名时依次执行后退出，否则按配置调度并启动 dashboard
func main() {
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal("❌ .env error", zap.Error(err))
	}

	configPath := os.Getenv("TASKIMPORT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := conf.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	scheduler := engine.NewScheduler()
	if err := taskimport.Import(scheduler, scheduler.Handle(), cfg.Import.Input()); err != nil {
		logger.Fatal("❌ Import tasks error", zap.String("dir", cfg.Import.Dir), zap.Error(err))
	}
	logger.Info("📦 Tasks imported", zap.Strings("tasks", scheduler.Registry().Names()))

	if names := os.Args[1:]; len(names) > 0 {
		for _, name := range names {
			if err := scheduler.Run(context.Background(), name); err != nil {
				logger.Fatal("❌ Task failed", zap.String("task", name), zap.Error(err))
			}
		}
		return
	}

	for _, job := range cfg.Jobs {
		if !job.Enable {
			continue
		}
		if err := scheduler.AddJob(job.Cron, job.Name); err != nil {
			logger.Warn("⚠️ Failed to schedule", zap.String("task", job.Name), zap.Error(err))
		} else {
			logger.Info("✅ Job scheduled", zap.String("task", job.Name), zap.String("cron", job.Cron))
		}
	}

	srv := server.NewServer(scheduler)
	logger.Info("🌐 Dashboard running", zap.String("addr", cfg.Server.Port))
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
}
