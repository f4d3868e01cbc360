package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"campus_map/internal/config"
	"campus_map/internal/controllers"
	"campus_map/internal/lock"
	"campus_map/internal/logger"
	"campus_map/internal/middleware"
	"campus_map/internal/overlap"
	"campus_map/internal/realtime"
	"campus_map/internal/repository"
	"campus_map/internal/routes"
	"campus_map/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	logger.Setup(cfg.LogFile, cfg.LogLevel)

	// Connect to the database
	config.InitDB(cfg)
	db := config.GetDB()

	var locker lock.Locker = lock.Nop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		cancel()
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.RegionLockTTL, cfg.RegionLockTTL)
		logrus.WithField("addr", cfg.RedisAddr).Info("region writes serialized through redis")
	}

	hub := realtime.NewHub()
	auth := middleware.NewAuth(cfg.JWTSecret)

	regionSvc := services.NewRegionService(repository.NewRegionRepository(db), overlap.CentroidContainment{}, locker, hub)
	hierarchySvc := services.NewHierarchyService(repository.NewHierarchyRepository(db), hub)
	catalogSvc := services.NewCatalogService(repository.NewCatalogRepository(db))

	r := routes.SetupRouter(routes.Deps{
		Auth:        auth,
		CORSOrigins: cfg.CORSOrigins,
		Regions:     controllers.NewRegionController(regionSvc),
		Hierarchy:   controllers.NewHierarchyController(hierarchySvc, catalogSvc),
		MapSocket:   controllers.NewMapSocketController(hub, auth),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server running at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
