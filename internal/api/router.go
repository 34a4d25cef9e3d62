package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(log))
	r.MaxMultipartMemory = maxUploadBytes

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/ingest", h.Ingest)
	v1.POST("/schedules/generate", h.Generate)

	sessions := v1.Group("/sessions/:id")
	sessions.DELETE("", h.DeleteSession)
	sessions.GET("/sections", h.Sections)
	sessions.GET("/changes", h.Changes)
	sessions.POST("/editors", h.OpenEditor)

	editors := v1.Group("/editors/:id")
	editors.POST("/propose", h.Propose)
	editors.POST("/suggestions/:index/apply", h.ApplySuggestion)
	editors.POST("/save", h.Save)
	editors.POST("/cancel", h.CancelEditor)
	editors.DELETE("", h.CloseEditor)

	return r
}

// Serve runs the router until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
