package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"plated-rewards/handlers"
	"plated-rewards/middleware"
	"plated-rewards/services"
	"plated-rewards/utils"
	"plated-rewards/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
)

// dailyIngredientCacheTTL bounds how long a scheduled ingredient is memoized.
const dailyIngredientCacheTTL = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the chaos schedule job and the profile sync worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := migrate(db); err != nil {
		return err
	}

	catalog, err := services.DefaultCatalog()
	if err != nil {
		return err
	}

	var store services.ObjectStore
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Store(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		store = r2
	} else {
		local := utils.LocalStore{Dir: cfg.UploadDir, BaseURL: "/uploads"}
		if err := local.EnsureDir(); err != nil {
			return fmt.Errorf("failed to ensure upload dir: %w", err)
		}
		log.Warnw("R2 credentials not set, storing proof images locally", "dir", cfg.UploadDir)
		store = local
	}

	recipes := services.GormRecipeDirectory{DB: db}
	profiles := services.GormProfileDirectory{DB: db}
	chaos := services.NewChaosService(services.NewGormIngredientSchedule(db, dailyIngredientCacheTTL), recipes)

	svc := &handlers.Services{
		Progression: services.NewProgressionService(db, log),
		Ledger:      services.NewLedgerService(db, log),
		Streak:      services.NewStreakService(db, log),
		Chaos:       chaos,
		Completions: services.NewCompletionService(db, log, chaos, recipes, profiles),
		Tracks:      services.NewSkillTrackService(db),
		Badges:      services.NewBadgeService(db),
		Proofs:      services.NewProofService(db, log, store),
		Squads:      services.NewSquadService(db, log, profiles),
	}

	scheduler, err := services.NewChaosScheduler(db, log, catalog.ChaosRotation, cfg.ChaosScheduleDays).Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start chaos scheduler: %w", err)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Warnw("chaos scheduler shutdown", "error", err)
		}
	}()

	if cfg.SyncServiceURL != "" {
		workers.NewProfileSyncWorker(db, log, cfg.SyncServiceURL, cfg.ProfileSyncPath, cfg.GatewayToken).Start(ctx)
	} else {
		log.Warn("SYNC_SERVICE_URL not set, cooked-it chain will show Unknown User for unsynced profiles")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024,
	})

	handlers.SetupMetricsRoute(app)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, log))

	if !cfg.R2Enabled() {
		app.Static("/uploads", cfg.UploadDir)
	}

	handlers.SetupRoutes(app, svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()
	log.Infow("server running", "addr", cfg.ListenAddr, "origins", cfg.AllowedOrigins, "chaos_days", cfg.ChaosScheduleDays)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}
