package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	config "github.com/davicafu/lazygrid/internal/config"
	employeeApp "github.com/davicafu/lazygrid/internal/employee/application"
	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	employeeEvents "github.com/davicafu/lazygrid/internal/employee/infra/inbound/events"
	employeeHttp "github.com/davicafu/lazygrid/internal/employee/infra/inbound/http"
	employeeAnalytics "github.com/davicafu/lazygrid/internal/employee/infra/outbound/analytics/clickhouse"
	sharedEvents "github.com/davicafu/lazygrid/internal/shared/infra/events"
	sharedBus "github.com/davicafu/lazygrid/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/lazygrid/internal/shared/infra/platform/cache"
	"github.com/davicafu/lazygrid/internal/shared/infra/relayer"
	"github.com/davicafu/lazygrid/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	logger.Init(os.Getenv("LOG_LEVEL")) // inicializa zap
	log := logger.Logger()              // obtiene logger estructurado
	defer log.Sync()                    // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer st.close()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		mem := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer mem.Stop()
		cacheInstance = mem
	} else {
		defer rdb.Close()
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ------------ Query log (ClickHouse) ------------
	serviceOpts := []employeeApp.ServiceOption{employeeApp.WithCacheTTL(int(cfg.CacheTTL.Seconds()))}
	if cfg.ClickHouseAddr != "" {
		queryLogRepo, err := employeeAnalytics.NewQueryLogRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, sin registro de consultas", zap.Error(err))
		} else {
			defer queryLogRepo.Close()
			if err := queryLogRepo.InitSchema(ctx); err != nil {
				log.Fatal("failed to initialize ClickHouse schema", zap.Error(err))
			}
			recorder := employeeApp.NewQueryRecorder(queryLogRepo, cfg.QueryLogPeriod, cfg.QueryLogBatch, log)
			go recorder.Start(ctx)
			serviceOpts = append(serviceOpts, employeeApp.WithQueryRecorder(recorder))
			log.Info("📊 Registro de consultas en ClickHouse habilitado")
		}
	}

	// --------------- Servicio --------------
	employeeService := employeeApp.NewEmployeeService(st.employees, cacheInstance, log, serviceOpts...)
	employeeConsumer := employeeEvents.NewEmployeeConsumer(employeeService, log)

	// ---------------- Events ---------------
	var publisher sharedBus.EventBus

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    employeeDomain.EmployeeTopic,
			Balancer: &kafka.Hash{},
		}
		defer writer.Close()
		publisher = sharedEvents.NewKafkaPublisher(writer, log)

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    employeeDomain.EmployeeTopic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()
		sharedEvents.NewConsumerAdapter(reader, employeeConsumer, log).Start(ctx)
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		bus := sharedEvents.NewInMemoryEventBus(employeeDomain.EmployeeTopic)
		defer bus.Close()
		publisher = bus

		log.Info("🎧 Iniciando listener en memoria para eventos de empleado")
		sharedEvents.ConsumeChannel(ctx, bus.Subscribe(64), employeeConsumer, log)
	}

	// ------------ Outbox Worker ------------
	worker := relayer.NewOutboxWorker(st.outbox, publisher, employeeDomain.NewEventRegistry(), cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go worker.Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	employeeHttp.RegisterEmployeeRoutes(router, employeeHttp.NewEmployeeHandler(employeeService, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": cfg.DBDriver})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running",
			zap.String("url", "http://localhost:"+cfg.HTTPPort),
			zap.String("driver", cfg.DBDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Apagando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// requestLogger sustituye al logger de gin.Default por zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
