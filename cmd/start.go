package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"unisync/core/config"
	"unisync/core/loader"
	"unisync/core/logger"
	"unisync/core/metrics"
	"unisync/core/middleware/auth"
	"unisync/core/middleware/rayid"
	"unisync/core/scheduler"
	syncfeature "unisync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "unisync/docs/swagger"
)

// @title unisync API
// @version 1.0
// @description API for triggering and inspecting academic catalog syncs.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long: `Starts the HTTP API, the metrics endpoint and, when sync.schedule is
set, the periodic full sync of every registered institution.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := cfg.Server.Validate(); err != nil {
			log.Fatalf("Invalid server configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Database, registry, ledger, archive and orchestrator
		comps, err := buildComponents(ctx, cfg, logg, false)
		if err != nil {
			logg.Fatal("Failed to initialize sync components", zap.Error(err))
		}
		logg.Info("Institutions registered", zap.Strings("codes", comps.registry.Codes()))

		// 4. Metrics
		metrics.Register()

		// 5. Scheduler (Optional)
		var sched *scheduler.Scheduler
		if cfg.Sync.Schedule != "" {
			sched, err = scheduler.New(cfg.Sync.Schedule, func(ctx context.Context) error {
				runs, err := comps.orch.SyncAll(ctx)
				for _, run := range runs {
					logRun(logg, run)
				}
				return err
			}, logg)
			if err != nil {
				logg.Fatal("Failed to create scheduler", zap.Error(err))
			}
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// 7. Initialize Feature Loader
		// A nil archiver must stay a nil interface so the feature reports archiving as disabled.
		var snapshots syncfeature.SnapshotLister
		if comps.archiver != nil {
			snapshots = comps.archiver
		}
		syncFeat := syncfeature.NewFeature(comps.orch, snapshots, logg)

		mgr := loader.NewManager()
		mgr.Register(syncFeat)

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with Zap + RayID
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 4. Auth (Protect API)
		authCfg := auth.Config{ApiKey: cfg.Server.ApiKey}
		if cfg.Server.MetricsPublic {
			authCfg.Skip = []string{"/metrics"}
		}
		app.Use(auth.New(authCfg))

		// 5. Prometheus endpoint
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

		// 8. Load Features
		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		if sched != nil {
			sched.Start()
			logg.Info("Periodic sync enabled",
				zap.String("schedule", cfg.Sync.Schedule),
				zap.Time("next", sched.Next()),
			)
		}

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if sched != nil {
			if err := sched.Stop(shutdownCtx); err != nil {
				logg.Warn("Scheduled sync did not stop in time", zap.Error(err))
			}
		}
		syncFeat.Close()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logg.Warn("Server shutdown failed", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
