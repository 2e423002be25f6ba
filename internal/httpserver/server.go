package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/daiet-app/daiet-server/internal/auth"
	"github.com/daiet-app/daiet-server/internal/blob"
	"github.com/daiet-app/daiet-server/internal/config"
	"github.com/daiet-app/daiet-server/internal/dailylog"
	"github.com/daiet-app/daiet-server/internal/foods"
	"github.com/daiet-app/daiet-server/internal/mealgen"
	"github.com/daiet-app/daiet-server/internal/onboarding"
	"github.com/daiet-app/daiet-server/internal/profiles"
	"github.com/daiet-app/daiet-server/internal/reports"
	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/daiet-app/daiet-server/internal/storage/memory"
	"github.com/daiet-app/daiet-server/internal/storage/postgres"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	profiles       storage.ProfilesStorage
	dailyLogs      storage.DailyLogsStorage
	reports        storage.ReportsStorage
	authMiddleware *auth.Middleware
	closer         func() error
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Используется in-memory storage")
		s.useMemoryStorage()
		return
	}

	log.Println("Подключение к PostgreSQL...")
	ctx := context.Background()
	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Printf("Ошибка подключения к PostgreSQL: %v", err)
		log.Println("Fallback на in-memory storage")
		s.useMemoryStorage()
		return
	}

	log.Println("PostgreSQL подключен успешно")
	s.profiles = pgStorage
	s.dailyLogs = pgStorage.GetDailyLogsStorage()
	s.reports = pgStorage.GetReportsStorage()
	s.closer = pgStorage.Close
}

func (s *Server) useMemoryStorage() {
	store := memory.New()
	s.profiles = store
	s.dailyLogs = store.GetDailyLogsStorage()
	s.reports = store.GetReportsStorage()
	s.closer = store.Close
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Meal generator is shared by the daily log and food analysis.
	generator := mealgen.NewGenerator(s.config)

	// Onboarding API
	onboardingService := onboarding.NewService(s.profiles, s.config.OnboardingMinAge)
	onboardingHandler := onboarding.NewHandler(onboardingService)

	// POST /v1/onboarding/{kind} - save a draft fragment (activity|goal|foods)
	s.mux.HandleFunc("POST /v1/onboarding/{kind}", onboardingHandler.HandleSaveFragment)

	// GET /v1/onboarding/complete - draft status and merged payload
	s.mux.HandleFunc("GET /v1/onboarding/complete", onboardingHandler.HandleGetComplete)

	// POST /v1/onboarding/complete - finalize draft into a profile
	s.mux.HandleFunc("POST /v1/onboarding/complete", onboardingHandler.HandleComplete)

	// Profile API
	profileService := profiles.NewService(s.profiles)
	profileHandler := profiles.NewHandler(profileService)

	// GET /v1/profile - get the caller's profile
	s.mux.HandleFunc("GET /v1/profile", profileHandler.HandleGet)

	// PATCH /v1/profile - partial update with target recompute
	s.mux.HandleFunc("PATCH /v1/profile", profileHandler.HandleUpdate)

	// Daily Log API
	dailyLogService := dailylog.NewService(s.dailyLogs, s.profiles, generator)
	dailyLogHandler := dailylog.NewHandler(dailyLogService)

	// GET /v1/daily-log/today - get or create the log for a date
	s.mux.HandleFunc("GET /v1/daily-log/today", dailyLogHandler.HandleGetToday)

	// POST /v1/daily-log/consume - toggle consumed state of an item
	s.mux.HandleFunc("POST /v1/daily-log/consume", dailyLogHandler.HandleToggleConsumed)

	// POST /v1/daily-log/food - add a manual food item
	s.mux.HandleFunc("POST /v1/daily-log/food", dailyLogHandler.HandleAddFood)

	// Food analysis API
	foodsHandler := foods.NewHandler(generator)

	// POST /v1/foods/analyze - estimate macros from a free-form description
	s.mux.HandleFunc("POST /v1/foods/analyze", foodsHandler.HandleAnalyze)

	// Reports API
	reportsBlobStore := s.initReportsBlobStore()
	reportsService := reports.NewService(
		s.reports,
		s.dailyLogs,
		s.profiles,
		reportsBlobStore,
		s.config.Blob.S3.PresignTTLSeconds,
		s.config.Blob.S3.PublicBaseURL,
		s.config.Blob.S3.PreferPublicURL,
	)
	reportsHandler := reports.NewHandlers(reportsService)

	// POST /v1/reports - create day summary export
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)

	// GET /v1/reports - list reports
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)

	// GET /v1/reports/{id}/download - download report
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)

	// DELETE /v1/reports/{id} - delete report
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// initReportsBlobStore initializes the blob store for reports.
// Reports may override BLOB_MODE via REPORTS_MODE.
func (s *Server) initReportsBlobStore() blob.Store {
	cfg := s.config.Blob
	effectiveMode := cfg.EffectiveReportsMode()
	if effectiveMode != cfg.Mode {
		log.Printf("INFO blob: REPORTS_MODE=%s overrides BLOB_MODE=%s", effectiveMode, cfg.Mode)
	}
	cfg.Mode = effectiveMode
	cfg.ReportsModeSet = false
	cfg.ReportsMode = effectiveMode

	store, mode, err := blob.NewBlobStore(cfg, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize reports store: %v", err)
	}
	log.Printf("INFO blob: reports blob mode: %s", mode)
	return store
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	// Build middleware chain (outermost first): CORS → Rate Limit → Auth → Router
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != "none" {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Daily log API: http://localhost%s/v1/daily-log/today\n", addr)

	return http.ListenAndServe(addr, handler)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
