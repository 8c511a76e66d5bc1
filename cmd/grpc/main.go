package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-layout-service/config"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/database"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/search"

	fpH "github.com/fekuna/omnipos-layout-service/internal/floorplan/handler"
	fpListenerPkg "github.com/fekuna/omnipos-layout-service/internal/floorplan/listener"
	fpRepoPkg "github.com/fekuna/omnipos-layout-service/internal/floorplan/repository"
	fpUCPkg "github.com/fekuna/omnipos-layout-service/internal/floorplan/usecase"

	layoutH "github.com/fekuna/omnipos-layout-service/internal/layout/handler"
	layoutRepoPkg "github.com/fekuna/omnipos-layout-service/internal/layout/repository"
	layoutUCPkg "github.com/fekuna/omnipos-layout-service/internal/layout/usecase"

	"github.com/fekuna/omnipos-layout-service/internal/floorplan"
	"github.com/fekuna/omnipos-layout-service/internal/layout"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "omnipos-layout-service"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		ServiceName:       serviceName,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize Repositories
	var (
		layoutRepo layout.Repository
		fpRepo     floorplan.Repository
		db         *sqlx.DB
	)
	switch cfg.Store.Driver {
	case "memory":
		layoutRepo = layoutRepoPkg.NewMemoryRepository()
		fpRepo = fpRepoPkg.NewMemoryRepository()
		appLogger.Warn("Using in-memory store, data is lost on restart")
	default:
		dbCfg := databaseConfig(cfg)
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		db, err = database.Connect(connectCtx, dbCfg)
		cancel()
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.String("driver", dbCfg.Driver), zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to database", zap.String("driver", dbCfg.Driver), zap.String("db_name", dbCfg.DBName))

		layoutRepo = layoutRepoPkg.NewSQLRepository(db)
		fpRepo = fpRepoPkg.NewSQLRepository(db)
	}

	// 4. Initialize Redis scope lock
	var locker layoutUCPkg.Locker
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, default writes rely on the store transaction only", zap.Error(err))
		} else {
			defer redisClient.Close()
			locker = cache.NewScopeLocker(redisClient, cfg.Layout.LockPrefix, cfg.Layout.LockTTL, cfg.Layout.LockRetries, appLogger)
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		var err error
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, layout search falls back to the database", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize UseCases
	layoutUC := layoutUCPkg.NewLayoutUseCase(layoutRepo, locker, esClient, appLogger)
	fpUC := fpUCPkg.NewFloorPlanUseCase(fpRepo, appLogger)

	// 7. Start table status listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		tableListener := fpListenerPkg.NewTableStatusListener(kafkaConsumer, fpUC, appLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			tableListener.Start(ctx)
		}()
	}

	// 8. Initialize Handlers
	layoutHandler := layoutH.NewLayoutHandler(layoutUC, appLogger)
	fpHandler := fpH.NewFloorPlanHandler(fpUC, appLogger)

	// 9. Start gRPC Server
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)
	layoutHandler.RegisterGRPC(grpcServer)
	fpHandler.RegisterGRPC(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(layoutH.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(fpH.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// 10. Start HTTP Server
	if !logConfig.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(appLogger), middleware.CORS(cfg.Server.CORSOrigins))
	router.GET("/health", healthCheck(db))

	api := router.Group("/api/v1")
	api.Use(middleware.MerchantContext())
	layoutHandler.RegisterRoutes(api)
	fpHandler.RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown error", zap.Error(err))
	}

	grpcServer.GracefulStop()

	cancel()
	wg.Wait()
	appLogger.Info("Server stopped")
}

func databaseConfig(cfg *config.Config) *database.Config {
	src := cfg.Postgres
	driver := database.DriverPostgres
	if cfg.Store.Driver == database.DriverMySQL {
		src = cfg.MySQL
		driver = database.DriverMySQL
	}
	return &database.Config{
		Driver:          driver,
		Host:            src.Host,
		Port:            src.Port,
		User:            src.User,
		Password:        src.Password,
		DBName:          src.DBName,
		SSLMode:         src.SSLMode,
		MaxOpenConns:    src.MaxOpenConns,
		MaxIdleConns:    src.MaxIdleConns,
		ConnMaxLifetime: time.Duration(src.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(src.ConnMaxIdleTime) * time.Second,
	}
}

func healthCheck(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
