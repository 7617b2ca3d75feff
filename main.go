package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/api"
	"taskboard/cache"
	"taskboard/common"
	"taskboard/config"
	"taskboard/storage/sqlite"
	handler "taskboard/system"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.MustLoad(*configPath)

	logger, err := InitLogger(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sqlite.Migrate(db, logger); err != nil {
		return err
	}
	store := sqlite.New(db)

	var c *cache.Cache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		c = cache.New(client)
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("redis not configured, caching and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := common.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieSecure, c,
		common.WithRevocationStore(store))
	h := handler.NewHandler(store, c, sessions, logger, cfg.TaskCacheTTL)

	scheduler := handler.NewScheduler(logger.Named("scheduler"))
	if err := scheduler.Register(
		handler.NewDueChecker(store, logger.Named("due-check"), handler.NewSweepMetrics(registry)),
		cfg.DueCheck.InitialDelay,
		cfg.DueCheck.Interval,
	); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr: cfg.HTTPAddress,
		Handler: api.NewRouter(api.RouterConfig{
			Handler:  h,
			Logger:   logger.Named("http"),
			Registry: registry,
			Limiter:  api.NewLimiter(c, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger.Named("ratelimit")),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.String("addr", cfg.HTTPAddress), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// InitLogger writes JSON logs in deployed environments and console logs
// locally. When a file is configured, output also goes to a rotating file.
func InitLogger(env string, cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	if env == "local" {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), nil
}
