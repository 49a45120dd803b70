package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
			var body pipeline.Request
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Phase == pipeline.RequestPhaseClassification {
				if body.ProjectID == "" {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "projectId is required when phase is 2"})
					return
				}
			} else if body.Symbol == "" || body.SourceURL == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol and sourceUrl are required"})
				return
			}

			// Analysis runs asynchronously; failures are recorded on the
			// project and reported through the notifier.
			go func() {
				if err := env.Orch.Run(ctx, body); err != nil {
					zap.L().Error("webhook analysis failed",
						zap.Int("phase", body.Phase),
						zap.String("project_id", body.ProjectID),
						zap.String("symbol", body.Symbol),
						zap.String("url", body.SourceURL),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":    "accepted",
				"projectId": body.ProjectID,
				"symbol":    body.Symbol,
				"url":       body.SourceURL,
			})
		})

		r.Get("/v1/projects/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			p, err := env.Store.GetProject(req.Context(), id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
				return
			}

			out := map[string]any{"project": p}
			if tc, tcErr := env.Store.GetComparison(req.Context(), id); tcErr == nil && tc != nil {
				out["comparison"] = tc
			}
			writeJSON(w, http.StatusOK, out)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
