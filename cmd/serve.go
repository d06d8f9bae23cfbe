package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"measurement-extractor/core/config"
	"measurement-extractor/core/database"
	"measurement-extractor/core/loader"
	"measurement-extractor/core/logger"
	"measurement-extractor/core/middleware/auth"
	"measurement-extractor/core/middleware/requestid"
	"measurement-extractor/core/storage"
	"measurement-extractor/feature/measurements"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (Optional)
		var store *measurements.Store
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, runs will not be stored", zap.Error(err))
		} else {
			store = measurements.NewStore(db)
			if err := store.Migrate(); err != nil {
				return err
			}
			logg.Info("Connected to run database", zap.String("driver", cfg.Database.Driver))
		}

		// 4. Initialize Storage
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		app := newApp(cfg, logg)

		// 5. Register and load features
		mgr := loader.NewManager(logg)
		mgr.Register(measurements.NewFeature(
			measurements.NewService(client, store, cfg.Extract, cfg.Storage, logg),
		))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 6. Start Server
		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			errCh <- app.Listen(cfg.Server.Address())
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-c:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

// newApp builds the fiber app with the global middleware chain.
func newApp(cfg *config.Config, logg *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We log our own startup message
		BodyLimit:             cfg.Server.BodyLimit(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	// Request ID first so every log line can carry it
	app.Use(requestid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRequestID(logg, c)
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

	// Health stays public so liveness checks need no key
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/health"}}))

	return app
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
