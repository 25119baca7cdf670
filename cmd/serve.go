package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"truebite-api/handlers"
	"truebite-api/middleware"
	"truebite-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, pub, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)
		defer pub.Close()

		gin.SetMode(cfg.GinMode)
		r := gin.New()
		r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

		secret := []byte(cfg.JWTSecret)
		routes.SetupRoutes(r, handlers.New(svc, secret, cfg.TokenTTL, logger), secret, svc.Users)

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Server running", "addr", "http://localhost:"+cfg.Port)
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

		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
