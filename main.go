package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/database"
	"github.com/SmithE65/Containerizing/routes"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	conf, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 初始化日志
	if err := config.InitLogger(conf); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer config.Logger.Sync()

	// 收到 SIGINT/SIGTERM 时取消
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := config.OpenDB(conf)
	if err != nil {
		config.Logger.Fatalw("无法初始化数据库", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		config.Logger.Fatalw("无法获取数据库连接池", "error", err)
	}
	defer sqlDB.Close()

	// 建库、迁移、初始化数据，完成后再开始提供服务
	if conf.MigrateOnStartup {
		policy := database.RetryPolicyFromConfig(conf)
		if _, err := database.Initialize(rootCtx, db, policy, conf.SeedOnStartup); err != nil {
			config.Logger.Fatalw("数据库初始化失败", "error", err)
		}
	}

	// 设置Gin模式
	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := routes.NewEngine(db)
	if err != nil {
		config.Logger.Fatalw("无法创建路由", "error", err)
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 在goroutine中启动服务器
	go func() {
		config.Logger.Infow("启动服务器", "port", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Fatalw("服务器启动失败", "error", err)
		}
	}()

	// 等待中断信号以实现优雅关闭
	<-rootCtx.Done()
	config.Logger.Infow("正在关闭服务器...")

	// 创建超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		config.Logger.Errorw("服务器关闭失败", "error", err)
		return
	}

	config.Logger.Infow("服务器已关闭")
}
