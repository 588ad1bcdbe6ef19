// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickvest-go/internal/config"
	"quickvest-go/internal/handler"
	"quickvest-go/internal/middleware"
	"quickvest-go/internal/model"
	"quickvest-go/internal/pipeline"
	"quickvest-go/internal/repository"
	"quickvest-go/internal/service"
	"quickvest-go/pkg/database"
	"quickvest-go/pkg/es"
	"quickvest-go/pkg/extract"
	"quickvest-go/pkg/kafka"
	"quickvest-go/pkg/log"
	"quickvest-go/pkg/quizhelp"
	"quickvest-go/pkg/storage"
	"quickvest-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储、ES 和 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.User{}, &model.Account{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	accountRepository := repository.NewAccountRepository(database.DB)
	sessionRepository := repository.NewSessionRepository(database.RDB, time.Duration(cfg.Onboarding.SessionTTLHours)*time.Hour)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	extractClient := extract.NewClient(cfg.Extraction)
	helpClient := quizhelp.NewClient(cfg.QuizHelp)
	userService := service.NewUserService(userRepository, jwtManager)
	accountService := service.NewAccountService(accountRepository, es.ESClient, cfg.Elasticsearch.IndexName, cfg.MinIO.BucketName)
	onboardingService := service.NewOnboardingService(
		sessionRepository,
		extractClient,
		helpClient,
		accountService,
		service.NewKafkaHandoffPublisher(),
		service.NewMinioLicenseArchiver(cfg.MinIO),
		service.OnboardingOptions{
			HandoffDelay: time.Duration(cfg.Onboarding.HandoffDelaySeconds) * time.Second,
			TypingDelay:  time.Duration(cfg.Onboarding.TypingDelayMs) * time.Millisecond,
		},
	)

	// 6. 初始化账户索引管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(accountRepository, cfg.Elasticsearch)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 健康检查
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 8. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
			}
		}

		// Onboarding 路由组
		onboardingHandler := handler.NewOnboardingHandler(onboardingService)
		onboarding := apiV1.Group("/onboarding")
		{
			// 配置接口公开访问，对齐原有前端的启动流程
			onboarding.GET("/config", onboardingHandler.GetConfig)

			authed := onboarding.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/session", onboardingHandler.GetSession)
				authed.DELETE("/session", onboardingHandler.Teardown)
				authed.GET("/messages", onboardingHandler.GetMessages)
				authed.POST("/message", onboardingHandler.SubmitMessage)
				authed.POST("/document", onboardingHandler.UploadDocument)
			}
		}

		// Account 路由组，需要认证
		accountHandler := handler.NewAccountHandler(accountService)
		accounts := apiV1.Group("/accounts")
		accounts.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			accounts.GET("", accountHandler.ListMine)
			accounts.GET("/search", accountHandler.Search)
			accounts.GET("/:accountID/license", accountHandler.GetLicenseURL)
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", handler.NewChatHandler(onboardingService, jwtManager).Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
