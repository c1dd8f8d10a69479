package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"goqc/adapters/criteria"
	"goqc/adapters/postgres"
	"goqc/internal/api"
	"goqc/internal/config"
	"goqc/internal/errors"
	"goqc/internal/evaluation"
	"goqc/internal/report"
	"goqc/internal/session"
	"goqc/internal/testkit"
	"goqc/ports"
	"goqc/ui"
)

// initDatabase connects to PostgreSQL and ensures the verdicts table
func initDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(session.FacilityInfo{
		Facility:     cfg.Facility.Name,
		Address:      cfg.Facility.Address,
		Location:     cfg.Facility.Location,
		XrayLicense:  cfg.Facility.XrayLicense,
		Manufacturer: cfg.Facility.Manufacturer,
		Model:        cfg.Facility.Model,
		Serial:       cfg.Facility.Serial,
		Physicist:    cfg.Facility.Physicist,
	})

	var verdicts ports.VerdictRepository = store
	if cfg.Database.Enabled {
		db, err := initDatabase(ctx, cfg)
		if err != nil {
			log.Fatalf("Database initialization failed: %v", err)
		}
		defer db.Close()
		verdicts = postgres.NewVerdictRepository(db)
		log.Println("[Main] Verdict persistence: PostgreSQL")
	} else {
		log.Println("[Main] Verdict persistence: in-memory session store")
	}

	catalog := criteria.NewCatalog()
	evaluator := evaluation.NewEvaluator(catalog)
	trends := testkit.NewGenerator(cfg.Data.TrendSeed)

	synthesizer, err := report.NewSynthesizer()
	if err != nil {
		log.Fatalf("Failed to initialize report synthesizer: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)
	engine := gin.Default()
	api.RegisterRoutes(engine, api.NewHandler(store, verdicts, evaluator, trends, synthesizer))

	uiApp, err := ui.NewApp(store, verdicts, trends, synthesizer)
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}

	apiServer := &http.Server{Addr: ":" + cfg.Server.APIPort, Handler: engine}
	uiServer := &http.Server{Addr: ":" + cfg.Server.UIPort, Handler: uiApp.Router()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[Main] API listening on :%s", cfg.Server.APIPort)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("[Main] UI listening on :%s", cfg.Server.UIPort)
		if err := uiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
		_ = uiServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("[Main] Shutdown complete")
}
