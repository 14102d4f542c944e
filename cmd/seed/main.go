package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grade-stats-api/internal/models"
	"github.com/noah-isme/grade-stats-api/internal/repository"
	"github.com/noah-isme/grade-stats-api/internal/service"
	"github.com/noah-isme/grade-stats-api/pkg/cache"
	"github.com/noah-isme/grade-stats-api/pkg/config"
	"github.com/noah-isme/grade-stats-api/pkg/database"
	"github.com/noah-isme/grade-stats-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var opts seedOptions
	flag.StringVar(&opts.file, "file", cfg.Seed.File, "JSON file with grade records; empty seeds the built-in sample")
	flag.BoolVar(&opts.schemaOnly, "schema-only", false, "Apply tables and indexes without inserting records")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall seed timeout")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	err = run(cfg, opts, logr)
	if err != nil {
		logr.Error("seed failed", zap.Error(err))
	}
	_ = logr.Sync()
	if err != nil {
		os.Exit(1)
	}
}

type seedOptions struct {
	file       string
	schemaOnly bool
	timeout    time.Duration
}

// run owns every resource it opens so deferred cleanup happens on all paths.
func run(cfg *config.Config, opts seedOptions, logr *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logr.Info("indexes and schema checks applied")
	if opts.schemaOnly {
		return nil
	}

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, cached stats not invalidated", zap.Error(err))
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, nil, cfg.Stats.CacheTTL, logr, true)
	}

	seeder := service.NewSeedService(repository.NewGradeRepository(db), cacheSvc, nil, logr)
	records, err := loadRecords(seeder, opts.file)
	if err != nil {
		return fmt.Errorf("read seed records from %q: %w", opts.file, err)
	}
	if err := seeder.Seed(ctx, records); err != nil {
		return fmt.Errorf("insert grade records: %w", err)
	}
	return nil
}

func loadRecords(seeder *service.SeedService, path string) ([]models.ScoreRecord, error) {
	if path == "" {
		return service.SampleRecords(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seeder.Decode(f)
}
