package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/api"
	"github.com/maratgil/eventbooking/config"
	"github.com/maratgil/eventbooking/internal/service/events"
	"github.com/maratgil/eventbooking/internal/service/payments"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, paymentSvc payments.UseCase, eventSvc events.EventUseCase, log *logrus.Logger) error {
	router := NewRouter(paymentSvc, eventSvc, log)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(paymentSvc payments.UseCase, eventSvc events.EventUseCase, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	apiGroup := router.Group("/api")
	paymentsGroup := apiGroup.Group("/payments")
	eventsGroup := apiGroup.Group("/events")
	packagesGroup := apiGroup.Group("/packages")

	api.NewPaymentHandler(paymentSvc, log).Register(paymentsGroup)
	api.NewEventHandler(eventSvc).Register(eventsGroup, packagesGroup)

	return router
}
