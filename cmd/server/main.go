// Package main runs the event aggregation service: a websocket transport
// to the scraper fanout, the session manager with its deduplication
// engine, and an HTTP control surface for starting, cancelling and
// observing searches.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"event-radar/internal/config"
	"event-radar/internal/dedup"
	"event-radar/internal/logging"
	"event-radar/internal/match"
	"event-radar/internal/observability"
	"event-radar/internal/session"
	"event-radar/internal/storage"
	chstore "event-radar/internal/storage/clickhouse"
	"event-radar/internal/storage/memory"
	"event-radar/internal/storage/migrations"
	pgstore "event-radar/internal/storage/postgres"
	"event-radar/internal/stream"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive, latency, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	wsConfig := stream.DefaultWSConfig()
	wsConfig.HandshakeTimeout = time.Duration(cfg.StreamHandshakeTimeoutSec) * time.Second
	transport := stream.NewWSTransport(cfg.StreamEndpoint, &wsConfig, logger)

	resolver := match.NewResolver(match.Config{
		TitleOverlap:       cfg.TitleOverlap,
		TitleOverlapNoDate: cfg.TitleOverlapNoDate,
	})
	manager := session.NewManager(session.ManagerOptions{
		Transport:      transport,
		Engine:         dedup.NewEngine(resolver),
		Logger:         logger,
		Archive:        archive,
		Latency:        latency,
		ArchiveTimeout: time.Duration(cfg.ArchiveTimeoutSec) * time.Second,
	})

	api := &apiServer{manager: manager, archive: archive, logger: logger}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("control API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	}

	manager.Cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics shutdown")
	}
	return nil
}

// createStores wires the archive backends. Empty DSNs fall back to the
// in-memory stores, which keeps local development free of databases.
func createStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.SessionArchiveStore, storage.SourceLatencyStore, func(), error) {
	var archive storage.SessionArchiveStore
	var latency storage.SourceLatencyStore
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		archive = pgstore.NewSessionArchiveStore(pool)
		logger.Info().Msg("session archive: postgres")
	} else {
		archive = memory.NewSessionArchiveStore()
		logger.Info().Msg("session archive: in-memory")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		cleanups = append(cleanups, func() { _ = conn.Close() })
		latency = chstore.NewSourceLatencyStore(conn)
		logger.Info().Msg("latency analytics: clickhouse")
	} else {
		latency = memory.NewSourceLatencyStore()
		logger.Info().Msg("latency analytics: in-memory")
	}

	return archive, latency, cleanup, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// apiServer is the HTTP control surface over the session manager.
type apiServer struct {
	manager *session.Manager
	archive storage.SessionArchiveStore
	logger  zerolog.Logger
}

func (a *apiServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/search", a.handleSearch)
	mux.HandleFunc("/cancel", a.handleCancel)
	mux.HandleFunc("/session", a.handleSession)
	mux.HandleFunc("/sessions/recent", a.handleRecent)
	return mux
}

type searchRequest struct {
	QueryLocation string            `json:"query_location"`
	RegionHint    string            `json:"region_hint,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type searchResponse struct {
	SessionID string `json:"session_id"`
}

func (a *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueryLocation == "" {
		http.Error(w, "query_location is required", http.StatusBadRequest)
		return
	}

	id, err := a.manager.StartSearch(r.Context(), req.QueryLocation, stream.Options{
		RegionHint: req.RegionHint,
		Extra:      req.Extra,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("start search")
		http.Error(w, "failed to open search stream", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusAccepted, searchResponse{SessionID: id})
}

func (a *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cancelled := a.manager.Cancel()
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

type eventResponse struct {
	EventID       string     `json:"event_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	StartDateTime *time.Time `json:"start_datetime,omitempty"`
	VenueName     string     `json:"venue_name,omitempty"`
	VenueAddress  string     `json:"venue_address,omitempty"`
	City          string     `json:"city,omitempty"`
	Province      string     `json:"province,omitempty"`
	Country       string     `json:"country,omitempty"`
	Category      string     `json:"category,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	IsFree        *bool      `json:"is_free,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	SourceID      string     `json:"source_id"`
}

type diagnosticResponse struct {
	SourceID            string `json:"source_id"`
	Status              string `json:"status"`
	EventsCount         int    `json:"events_count"`
	FirstEventLatencyMs *int64 `json:"first_event_latency_ms,omitempty"`
	TotalLatencyMs      *int64 `json:"total_latency_ms,omitempty"`
	Message             string `json:"message,omitempty"`
}

type sessionResponse struct {
	SessionID     string                        `json:"session_id"`
	Query         string                        `json:"query"`
	Status        string                        `json:"status"`
	StartedAt     time.Time                     `json:"started_at"`
	EndedAt       *time.Time                    `json:"ended_at,omitempty"`
	Events        []eventResponse               `json:"events"`
	Diagnostics   map[string]diagnosticResponse `json:"diagnostics"`
	Summary       string                        `json:"summary,omitempty"`
	FastestSource string                        `json:"fastest_source,omitempty"`
	SlowestSource string                        `json:"slowest_source,omitempty"`
}

func (a *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var snap session.Snapshot
	var ok bool
	if id := r.URL.Query().Get("id"); id != "" {
		snap, ok = a.manager.SnapshotByID(id)
	} else {
		snap, ok = a.manager.Snapshot()
	}
	if !ok {
		http.Error(w, "no session", http.StatusNotFound)
		return
	}

	resp := sessionResponse{
		SessionID:     snap.SessionID,
		Query:         snap.Query,
		Status:        snap.Status.String(),
		StartedAt:     snap.StartedAt,
		Summary:       snap.Summary,
		FastestSource: snap.FastestSource,
		SlowestSource: snap.SlowestSource,
		Events:        make([]eventResponse, 0, len(snap.Events)),
		Diagnostics:   make(map[string]diagnosticResponse, len(snap.Diagnostics)),
	}
	if snap.Status.IsTerminal() {
		ended := snap.EndedAt
		resp.EndedAt = &ended
	}
	for _, e := range snap.Events {
		resp.Events = append(resp.Events, eventResponse{
			EventID:       e.EventID,
			Title:         e.Title,
			Description:   e.Description,
			StartDateTime: e.StartDateTime,
			VenueName:     e.VenueName,
			VenueAddress:  e.VenueAddress,
			City:          e.City,
			Province:      e.Province,
			Country:       e.Country,
			Category:      e.Category,
			Price:         e.Price,
			IsFree:        e.IsFree,
			ImageURL:      e.ImageURL,
			SourceID:      e.SourceID,
		})
	}
	for id, d := range snap.Diagnostics {
		resp.Diagnostics[id] = diagnosticResponse{
			SourceID:            d.SourceID,
			Status:              d.Status.String(),
			EventsCount:         d.EventsCount,
			FirstEventLatencyMs: d.FirstEventLatencyMs,
			TotalLatencyMs:      d.TotalLatencyMs,
			Message:             d.Message,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type recentSessionResponse struct {
	SessionID        string `json:"session_id"`
	Query            string `json:"query"`
	Status           string `json:"status"`
	StartedAt        int64  `json:"started_at"`
	EndedAt          int64  `json:"ended_at"`
	EventsTotal      int    `json:"events_total"`
	SourcesTotal     int    `json:"sources_total"`
	SourcesSucceeded int    `json:"sources_succeeded"`
	Summary          string `json:"summary"`
}

func (a *apiServer) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := a.archive.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger.Error().Err(err).Msg("list recent sessions")
		http.Error(w, "archive unavailable", http.StatusInternalServerError)
		return
	}

	resp := make([]recentSessionResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, recentSessionResponse{
			SessionID:        rec.SessionID,
			Query:            rec.Query,
			Status:           rec.Status.String(),
			StartedAt:        rec.StartedAt,
			EndedAt:          rec.EndedAt,
			EventsTotal:      rec.EventsTotal,
			SourcesTotal:     rec.SourcesTotal,
			SourcesSucceeded: rec.SourcesSucceeded,
			Summary:          rec.Summary,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
