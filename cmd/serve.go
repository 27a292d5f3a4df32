package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/model"
	"github.com/screenpick/screenpick/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

const shutdownTimeout = 10 * time.Second

// shutdownServer drains in-flight requests before closing. The signal
// context is already canceled by the time shutdown starts, so it must not
// be the one bounding the drain.
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown incomplete", zap.Error(err))
	}
}

func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/users/{userID}/recommendations", e.handleRecommendations)
		r.Get("/users/{userID}/status", e.handleStatus)
		r.Post("/users/{userID}/exclusions", e.handleAddExclusion)
		r.Delete("/users/{userID}/exclusions/{catalogID}", e.handleRemoveExclusion)
		r.Delete("/users/{userID}/cache", e.handleInvalidateCache)
		r.Delete("/cache", e.handleClearCaches)
	})

	return r
}

func (e *env) handleRecommendations(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "userID")

	var kinds []model.MediaKind
	if raw := req.URL.Query().Get("kinds"); raw != "" {
		kinds = parseKinds(strings.Split(raw, ","))
	}

	results, err := e.orch.GenerateRecommendations(req.Context(), userID, kinds)
	if err != nil {
		zap.L().Error("recommendation run failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "recommendation run failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":         userID,
		"recommendations": results,
		"fallback_mode":   e.orch.Status(userID).FallbackMode,
	})
}

func (e *env) handleStatus(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "userID")
	writeJSON(w, http.StatusOK, e.orch.Status(userID))
}

func (e *env) handleAddExclusion(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "userID")

	var body struct {
		CatalogID string `json:"catalog_id"`
		Kind      string `json:"kind"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.CatalogID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "catalog_id is required"})
		return
	}

	item := model.ExclusionItem{
		CatalogID: body.CatalogID,
		Kind:      model.ParseMediaKind(body.Kind),
	}
	if detail, err := e.throttled().Details(req.Context(), body.CatalogID); err == nil {
		item.Title = detail.Title
		item.Genres = detail.Genres
		item.Directors = detail.Directors
		item.Actors = detail.Actors
		item.Kind = detail.Kind
	}

	if err := e.orch.AddExclusion(req.Context(), userID, item); err != nil {
		zap.L().Error("add exclusion failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "add exclusion failed"})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (e *env) handleRemoveExclusion(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "userID")
	catalogID := chi.URLParam(req, "catalogID")

	if err := e.orch.RemoveExclusion(req.Context(), userID, catalogID); err != nil {
		status := http.StatusInternalServerError
		if store.IsNotFound(err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": "remove exclusion failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *env) handleInvalidateCache(w http.ResponseWriter, req *http.Request) {
	e.orch.InvalidateUserCache(chi.URLParam(req, "userID"))
	w.WriteHeader(http.StatusNoContent)
}

func (e *env) handleClearCaches(w http.ResponseWriter, req *http.Request) {
	e.orch.ClearAllCaches()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
