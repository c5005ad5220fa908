package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"family-health-engine/internal/adapters/healthdata/recordsapi"
	mem "family-health-engine/internal/adapters/storage/memory"
	pg "family-health-engine/internal/adapters/storage/postgres"
	"family-health-engine/internal/domain/events"
	"family-health-engine/internal/domain/feeding"
	"family-health-engine/internal/domain/scheduler"
	"family-health-engine/internal/platform/config"
	"family-health-engine/internal/platform/logger"
)

// Batch de generación de eventos: corre una página de usuarios por tick.
// Con BATCH_INTERVAL_MINUTES=0 corre una sola vez y termina (útil para cron).
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "family-health-engine-batch",
	})

	if cfg.HealthRecords.BaseURL == "" {
		log.Error("health_records.base_url requerido para el batch", nil)
		os.Exit(1)
	}

	source, err := recordsapi.NewClient(recordsapi.Config{
		BaseURL: cfg.HealthRecords.BaseURL,
		APIKey:  cfg.HealthRecords.APIKey,
		Timeout: time.Duration(cfg.HealthRecords.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Error("health-records client inválido", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	var (
		eventsRepo  events.Repository
		feedingRepo feeding.Repository
	)
	if cfg.Database.DSN != "" {
		db, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		eventsRepo = pg.NewEventsRepo(db)
		feedingRepo = pg.NewFeedingRepo(db)
	} else {
		log.Warn("DB_DSN vacío, usando storage in-memory", nil)
		eventsRepo = mem.NewEventsRepo()
		feedingRepo = mem.NewFeedingRepo()
	}

	feedingSvc := feeding.NewService(feedingRepo)
	svc := scheduler.NewService(source, eventsRepo, feedingSvc, log, scheduler.Config{
		LifecycleLookbackDays: cfg.Gamification.LifecycleLookbackDays,
		BatchPageSize:         cfg.Gamification.BatchPageSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	intervalMin := 0
	if v := os.Getenv("BATCH_INTERVAL_MINUTES"); v != "" {
		intervalMin, _ = strconv.Atoi(v)
	}

	runOnce(ctx, svc, log)
	if intervalMin <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(intervalMin) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("batch detenido", nil)
			return
		case <-ticker.C:
			runOnce(ctx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *scheduler.Service, log logger.Logger) {
	start := time.Now()
	counts, err := svc.GenerateBatch(ctx)
	if err != nil {
		log.Error("batch falló", map[string]any{"error": err.Error()})
		return
	}
	log.Info("batch terminado", map[string]any{
		"users_processed": counts.UsersProcessed,
		"created":         counts.Created(),
		"medication":      counts.MedicationCreated,
		"feeding":         counts.FeedingCreated,
		"lifecycle":       counts.LifecycleCreated,
		"skipped_units":   counts.SkippedUnits,
		"dropped_notices": counts.DroppedNotices,
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
}
