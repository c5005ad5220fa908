package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "family-health-engine/internal/adapters/storage/memory"
	pg "family-health-engine/internal/adapters/storage/postgres"
	"family-health-engine/internal/domain/audit"
	"family-health-engine/internal/domain/emotion"
	"family-health-engine/internal/domain/events"
	"family-health-engine/internal/domain/feeding"
	"family-health-engine/internal/domain/rewards"
	"family-health-engine/internal/domain/scheduler"
	"family-health-engine/internal/middleware"
	"family-health-engine/internal/platform/logger"
	"family-health-engine/internal/ports/auth"
	"family-health-engine/internal/ports/healthdata"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "family-health-engine/docs"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Fuente de triggers. Requerida para el scheduler; en dev se puede
	// pasar memsource.New().
	Source healthdata.Source

	Logger logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Tabla de rewards; zero value => DefaultRewardTable().
	RewardTable events.RewardTable

	Scheduler scheduler.Config
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var (
		eventsRepo  events.Repository
		feedingRepo feeding.Repository
		rewardsRepo rewards.Repository
		auditRepo   audit.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		eventsRepo = pg.NewEventsRepo(db)
		feedingRepo = pg.NewFeedingRepo(db)
		rewardsRepo = pg.NewRewardsRepo(db)
		auditRepo = pg.NewAuditRepo(db)
	} else {
		eventsRepo = mem.NewEventsRepo()
		feedingRepo = mem.NewFeedingRepo()
		rewardsRepo = mem.NewRewardsRepo()
		auditRepo = mem.NewAuditRepo()
	}

	table := opts.RewardTable
	if table.BasePoints == nil {
		table = events.DefaultRewardTable()
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	// Services por módulo
	rewardsSvc := rewards.NewService(rewardsRepo)
	feedingSvc := feeding.NewService(feedingRepo)
	eventsSvc := events.NewService(eventsRepo, rewardsSvc, auditRepo, table)
	schedulerSvc := scheduler.NewService(opts.Source, eventsRepo, feedingSvc, log, opts.Scheduler)
	validator := audit.NewValidator(rewardsSvc, auditRepo)

	// Rutas por módulo
	events.RegisterRoutes(r, eventsSvc)
	feeding.RegisterRoutes(r, feedingSvc)
	rewards.RegisterRoutes(r, rewardsSvc)
	scheduler.RegisterRoutes(r, schedulerSvc)
	emotion.RegisterRoutes(r)
	audit.RegisterRoutes(r, validator)

	return r
}
