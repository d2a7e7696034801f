package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"p9e.in/fcrm/config"
	"p9e.in/fcrm/handlers"
	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/pkg/notify"
	"p9e.in/fcrm/pkg/storage"
	"p9e.in/fcrm/routes"
)

// ServeCmd runs migrations and the HTTP API.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "Listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Connect(cfg); err != nil {
		return err
	}
	if cfg.SeedOnStart {
		if err := config.RunAllSeeding(config.DB); err != nil {
			log.Printf("Warning: seeding encountered issues: %v", err)
		}
	}
	middleware.Configure(cfg.JWTSecret, cfg.JWTTTL)

	opts := handlers.Options{MaxUploadBytes: cfg.MaxUploadBytes, OrgName: cfg.OrgName}
	routeOpts := routes.Options{}

	if cfg.UseGCS {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			return fmt.Errorf("gcs: %w", err)
		}
		defer gcs.Close()
		opts.Store = gcs
		log.Printf("📦 Attachments stored in gs://%s", cfg.GCSBucket)
	} else {
		opts.Store = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
		routeOpts.UploadDir = cfg.UploadDir
		log.Printf("📦 Attachments stored in %s", cfg.UploadDir)
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, caching disabled: %v", err)
		} else {
			defer rc.Close()
			opts.Cache = rc
			log.Printf("⚡ Redis cache at %s", cfg.RedisAddr)
		}
	}

	if cfg.TelegramToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️  Telegram unavailable, notices will be logged: %v", err)
		} else {
			opts.Notifier = tn
		}
	}

	h := handlers.New(config.DB, opts)
	router := routes.RegisterRoutes(h, config.DB, routeOpts)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSOrigin)(middleware.RequestLogger(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("Server starting at port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
