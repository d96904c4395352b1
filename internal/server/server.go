package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"imsgen/internal/config"
	"imsgen/internal/logger"
	"imsgen/internal/services"
)

type Server struct {
	router    chi.Router
	server    *http.Server
	api       huma.API
	cfg       config.ServerConfig
	scripts   *services.ScriptService // 共用的腳本服務
	history   *history                // 最近的產生結果
	metrics   *Metrics
	outputDir string
	log       *logger.Logger
}

// New 建立 API 伺服器；metrics 須與 scripts 的 Observer 為同一個實例
func New(cfg config.ServerConfig, outputDir string, scripts *services.ScriptService, metrics *Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	// 初始化 Chi router
	r := chi.NewRouter()

	// 添加基本中間件
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if cfg.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.WriteTimeout))
	}

	// 初始化 Huma API 配置
	humaConfig := huma.DefaultConfig("IMS Number Maker API", "1.0.0")
	humaConfig.Info.Description = "產生 USPP、ENUM、SSS 放號腳本"

	api := humachi.New(r, humaConfig)

	s := &Server{
		router:    r,
		api:       api,
		cfg:       cfg,
		scripts:   scripts,
		history:   newHistory(cfg.HistorySize),
		metrics:   metrics,
		outputDir: outputDir,
		log:       log,
	}

	// 註冊全局中間件
	api.UseMiddleware(
		s.errorHandlingMiddleware, // 錯誤處理（最外層）
		CORSMiddleware,
		s.requestLogMiddleware,
		s.validationMiddleware,
	)

	s.registerAPIRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerAPIRoutes() {
	// 腳本 API
	s.registerScriptsAPI()

	// 參數設定檔 API
	s.registerProfileAPI()

	s.router.Get("/scripts/{id}.txt", s.downloadScript)
	s.router.Get("/healthz", s.healthz)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

// healthz 回報狀態與日誌記錄器累計的放號統計；log 須與 scripts 共用同一個實例
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":           "ok",
		"retained_scripts": s.history.len(),
		"generations":      s.log.Metrics(),
	})
}

// Handler 回傳完整的路由，供測試與內嵌使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 啟動 HTTP 伺服器，阻塞直到伺服器停止
func (s *Server) Start() error {
	s.log.Info("starting IMS number maker API server",
		"addr", s.cfg.Addr,
		"docs", "/docs",
		"openapi", "/openapi.json",
		"output_dir", s.outputDir,
	)

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop 優雅關閉
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	m := s.log.Metrics()
	s.log.Info("HTTP server stopped",
		"total_generations", m.TotalGenerations,
		"successful_generations", m.SuccessfulGenerations,
		"numbers_generated", m.NumbersGenerated,
		"scripts_saved", m.ScriptsSaved,
	)
	return err
}
