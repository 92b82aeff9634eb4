package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-sidebar/internal/participant"
	"github.com/sells-group/crm-sidebar/internal/sidebar"
	"github.com/sells-group/crm-sidebar/pkg/attio"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sidebar API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc := newSidebarService(cfg)
		router := buildRouter(svc, cfg.Server.AllowedOrigins)

		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// requestID tags each request with an id for log correlation, honoring an
// id supplied by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// buildRouter assembles the sidebar HTTP API on top of the service.
func buildRouter(svc *sidebar.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.State())
		})

		r.Post("/conversation", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				ConversationID string                `json:"conversation_id"`
				Messages       []participant.Message `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if req.ConversationID == "" {
				writeError(w, http.StatusBadRequest, "conversation_id is required")
				return
			}
			state := svc.SetConversation(r.Context(), req.ConversationID, req.Messages)
			writeJSON(w, http.StatusOK, state)
		})

		r.Post("/people", func(w http.ResponseWriter, r *http.Request) {
			var form sidebar.PersonForm
			if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			rec, err := svc.CreatePerson(r.Context(), form)
			if err != nil {
				writeMutationError(w, err)
				return
			}
			svc.Reload(r.Context())
			writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.RecordID})
		})

		r.Patch("/people/{id}", func(w http.ResponseWriter, r *http.Request) {
			var patch sidebar.PersonPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			rec, err := svc.UpdatePerson(r.Context(), chi.URLParam(r, "id"), patch)
			if err != nil {
				writeMutationError(w, err)
				return
			}
			svc.Reload(r.Context())
			writeJSON(w, http.StatusOK, map[string]string{"id": rec.ID.RecordID})
		})

		r.Patch("/companies/{id}", func(w http.ResponseWriter, r *http.Request) {
			var patch sidebar.CompanyPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			rec, err := svc.UpdateCompany(r.Context(), chi.URLParam(r, "id"), patch)
			if err != nil {
				writeMutationError(w, err)
				return
			}
			svc.Reload(r.Context())
			writeJSON(w, http.StatusOK, map[string]string{"id": rec.ID.RecordID})
		})

		r.Post("/deals", func(w http.ResponseWriter, r *http.Request) {
			var form sidebar.DealForm
			if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			rec, err := svc.CreateDeal(r.Context(), form)
			if err != nil {
				writeMutationError(w, err)
				return
			}
			svc.Reload(r.Context())
			writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.RecordID})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMutationError maps service errors to HTTP statuses: validation
// failures are the caller's fault, CRM rejections pass their status through,
// anything else is a gateway failure.
func writeMutationError(w http.ResponseWriter, err error) {
	var vErr *sidebar.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusUnprocessableEntity, vErr.Error())
		return
	}
	var apiErr *attio.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		writeError(w, apiErr.StatusCode, "CRM rejected the request")
		return
	}
	zap.L().Error("mutation failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, "CRM request failed")
}

func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		_ = srv.Shutdown(context.Background())
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
