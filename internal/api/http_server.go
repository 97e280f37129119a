package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marifkon/internal/config"
	"marifkon/internal/database"
	"marifkon/internal/domain"
	"marifkon/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HTTPServer раздает статистику марафона организаторам: здоровье процесса,
// рейтинг приглашающих и статус конкретного пользователя.
type HTTPServer struct {
	cfg    config.APIConfig
	repo   domain.Repository
	ledger domain.Ledger
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, repo domain.Repository, ledger domain.Ledger, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, repo: repo, ledger: ledger, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/leaderboard", srv.handleLeaderboard)
	mux.HandleFunc("/api/v1/users/", srv.handleUserStatus)
	mux.Handle("/metrics", promhttp.Handler())

	metrics.Register()

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler возвращает корневой обработчик, в тестах поднимается через httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("healthz")

	total, rewarded, err := s.repo.CountUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"users":    total,
		"rewarded": rewarded,
	})
}

func (s *HTTPServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("leaderboard")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.ledger.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard query failed")
		return
	}

	results := make([]map[string]any, 0, len(entries))
	for i, entry := range entries {
		results = append(results, map[string]any{
			"rank":        i + 1,
			"telegram_id": entry.ReferrerID,
			"name":        entry.DisplayName,
			"referrals":   entry.Count,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": results})
}

func (s *HTTPServer) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_status")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/users/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idPart, tail, found := strings.Cut(rest, "/")
	if !found || tail != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	telegramID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || telegramID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	user, err := s.repo.GetUserByTelegramID(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "status query failed")
		return
	}

	// Живой пересчёт, кэшированная колонка не используется
	count, err := s.repo.CountReferrals(r.Context(), telegramID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"telegram_id": user.TelegramID,
		"name":        user.DisplayName(),
		"referrals":   count,
		"rewarded":    user.Rewarded,
		"language":    user.LanguageOrDefault(),
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
