package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/adientlz/pvs-reporter/internal/report"
	"github.com/adientlz/pvs-reporter/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initReport(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		snapshots, err := store.NewSQLite(cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer snapshots.Close()
		if err := snapshots.Migrate(ctx); err != nil {
			return err
		}

		srv := newAPIServer(env.Builder, snapshots)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer serves report and history endpoints. Concurrent report requests
// collapse into one build via singleflight; an overall rate limit guards
// the workbook and database behind it.
type apiServer struct {
	builder   *report.Builder
	snapshots *store.SnapshotStore
	group     singleflight.Group
	limiter   *rate.Limiter
}

func newAPIServer(builder *report.Builder, snapshots *store.SnapshotStore) *apiServer {
	return &apiServer{
		builder:   builder,
		snapshots: snapshots,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Server.RatePerSec), cfg.Server.RateBurst),
	}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSHosts,
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/pvs", s.handlePVS)
	r.Get("/api/pvs/history", s.handleHistory)
	r.Get("/api/pvs/history/{date}", s.handleHistoryDate)
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handlePVS(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, report.Failure(time.Now(), "too many requests"))
		return
	}

	v, _, _ := s.group.Do("pvs", func() (interface{}, error) {
		return s.builder.Build(r.Context()), nil
	})
	res := v.(report.Result)

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.List(r.Context(), 31)
	if err != nil {
		zap.L().Error("list snapshots failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, report.Failure(time.Now(), "history unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snaps})
}

func (s *apiServer) handleHistoryDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeJSON(w, http.StatusBadRequest, report.Failure(time.Now(), "date must be YYYY-MM-DD"))
		return
	}

	payload, err := s.snapshots.Get(r.Context(), date)
	if eris.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, report.Failure(time.Now(), "no snapshot for "+date))
		return
	}
	if err != nil {
		zap.L().Error("load snapshot failed", zap.String("date", date), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, report.Failure(time.Now(), "history unavailable"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
