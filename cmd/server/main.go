package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/feed-service/config"
	"github.com/d60-Lab/feed-service/internal/api/handler"
	"github.com/d60-Lab/feed-service/internal/api/router"
	"github.com/d60-Lab/feed-service/internal/cache"
	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/events"
	"github.com/d60-Lab/feed-service/internal/repository"
	"github.com/d60-Lab/feed-service/internal/service"
	"github.com/d60-Lab/feed-service/pkg/database"
	"github.com/d60-Lab/feed-service/pkg/logger"
	"github.com/d60-Lab/feed-service/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// @title feed-service API
// @version 1.0
// @description 用户时间线读写服务：扇出写入 + 游标分页读取
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, "feed-service", cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(ctx) }()
		}
	}

	db := must(database.InitDB(cfg))
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})

	timeout := time.Duration(cfg.Services.TimeoutMS) * time.Millisecond
	followerClient := client.NewFollowerClient(cfg.Services.FollowersBaseURL, timeout)
	postClient := client.NewPostClient(cfg.Services.PostsBaseURL, timeout)
	profileClient := client.NewProfileClient(cfg.Services.ProfilesBaseURL, timeout)
	profileCache := cache.NewProfileCache(profileClient, rdb, time.Duration(cfg.Feed.ProfileCacheTTLSec)*time.Second)

	repo := repository.NewTimelineRepository(db)
	feedSvc := service.NewFeedService(repo, postClient, profileCache)

	writer := service.NewFanoutWriter(repo, followerClient, service.FanoutOptions{
		FollowerPageSize: cfg.Fanout.FollowerPageSize,
		AppendWorkers:    cfg.Fanout.AppendWorkers,
		AppendMaxTries:   cfg.Fanout.AppendMaxTries,
		AppendRatePerSec: cfg.Fanout.AppendRatePerSec,
	})
	src := events.NewStreamSource(rdb, cfg.Fanout.Stream, cfg.Fanout.Group, cfg.Fanout.Consumer,
		events.StreamOptions{Workers: cfg.Fanout.EventWorkers})
	stopConsumer := src.Start(writer.HandleEvent)

	h := handler.New(feedSvc, cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: router.New(cfg, h)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", zap.Error(err))
		}
	}()
	logger.Info("feed-service started", zap.Int("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// 先停消费（未 ack 的事件会在重启后重投递），再停 HTTP
	_ = stopConsumer(shutdownCtx)
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("feed-service stopped")
}
