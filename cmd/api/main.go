package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"family-health-engine/internal/adapters/auth/hostiam"
	"family-health-engine/internal/adapters/healthdata/memsource"
	"family-health-engine/internal/adapters/healthdata/recordsapi"
	pg "family-health-engine/internal/adapters/storage/postgres"
	"family-health-engine/internal/domain/events"
	"family-health-engine/internal/domain/scheduler"
	"family-health-engine/internal/platform/config"
	"family-health-engine/internal/platform/logger"
	"family-health-engine/internal/ports/auth"
	"family-health-engine/internal/ports/healthdata"
	"family-health-engine/internal/router"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "family-health-engine",
	})

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("DB_DSN vacío, usando storage in-memory", nil)
	}

	var source healthdata.Source
	if cfg.HealthRecords.BaseURL != "" {
		client, err := recordsapi.NewClient(recordsapi.Config{
			BaseURL: cfg.HealthRecords.BaseURL,
			APIKey:  cfg.HealthRecords.APIKey,
			Timeout: time.Duration(cfg.HealthRecords.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Error("health-records client inválido", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		source = client
	} else {
		log.Warn("servicio de registros no configurado, usando fuente in-memory", nil)
		source = memsource.New()
	}

	table := events.RewardTableFromMaps(cfg.Gamification.BasePoints, cfg.Gamification.PriorityMultipliers, cfg.Gamification.ExperiencePerPoint)

	// Sin IAM configurado queda en modo dev (X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if base := os.Getenv("IAM_BASE_URL"); base != "" {
		iamClient, err := hostiam.NewClient(hostiam.Config{
			BaseURL: base,
			APIKey:  os.Getenv("IAM_API_KEY"),
		})
		if err != nil {
			log.Error("iam client inválido", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = hostiam.NewVerifier(iamClient)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Source:       source,
		Logger:       log,
		DB:           db,
		RewardTable:  table,
		Scheduler: scheduler.Config{
			LifecycleLookbackDays: cfg.Gamification.LifecycleLookbackDays,
			BatchPageSize:         cfg.Gamification.BatchPageSize,
		},
	})

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
