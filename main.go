package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/ligna159/iPadManualImageMasking/config"
	"github.com/ligna159/iPadManualImageMasking/decode"
	"github.com/ligna159/iPadManualImageMasking/decode/cvdecode"
	"github.com/ligna159/iPadManualImageMasking/handler"
	"github.com/ligna159/iPadManualImageMasking/middleware"
	"github.com/ligna159/iPadManualImageMasking/service"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting mask server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	// 初始化Redis，连接失败时不启用归档
	var redisService *service.RedisService
	rs := service.NewRedisService(&cfg.Redis)
	if err := rs.Ping(context.Background()); err != nil {
		utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		rs.Close()
	} else {
		utils.Logger.Info("redis connected successfully")
		redisService = rs
		defer redisService.Close()
	}

	// 解码器
	var decoder decode.Decoder = decode.NewRegistry()
	if cfg.Decode.Backend == "opencv" {
		decoder = decode.NewRegistry(cvdecode.New())
		utils.Logger.Info("opencv decode fallback enabled")
	}

	sessions, err := service.NewSessionManager(cfg, decoder)
	if err != nil {
		utils.Logger.Fatal("failed to create session manager", zap.Error(err))
	}
	exports, err := service.NewExportService(&cfg.Export, redisService)
	if err != nil {
		utils.Logger.Fatal("failed to create export service", zap.Error(err))
	}

	// 初始化Handler
	sessionHandler := handler.NewSessionHandler(cfg, sessions, exports, redisService)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 创建路由
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"version":  Version,
			"sessions": sessions.Len(),
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
		})
	})

	// API路由
	sessionHandler.Register(r.Group("/api/v1"))

	// 启动服务器
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		utils.Logger.Fatal("failed to start server", zap.Error(err))
	}
}
