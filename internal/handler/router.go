package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/yevmiye/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger               *slog.Logger
	SessionAuthenticator middleware.SessionAuthenticator
	HTTPRecorder         middleware.HTTPRecorder
	CORSAllowedOrigin    string

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	AuthService      AuthServiceInterface
	WorkplaceService WorkplaceServiceInterface
	WorkdayService   WorkdayServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → (Session)
//
// /auth/register・/auth/login・/auth/federated と運用エンドポイントはセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	workplaceHandler := NewWorkplaceHandler(deps.WorkplaceService)
	workdayHandler := NewWorkdayHandler(deps.WorkdayService)
	session := middleware.NewSessionMiddleware(deps.SessionAuthenticator)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証 ---
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/federated", authHandler.FederatedLogin)
		r.Post("/google", authHandler.FederatedLogin)
		r.With(session).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(session)

		// 勤務先
		r.Route("/workplaces", func(r chi.Router) {
			r.Get("/", workplaceHandler.ListActive)
			r.Post("/", workplaceHandler.Create)
			r.Get("/all", workplaceHandler.ListAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", workplaceHandler.Update)
				r.Delete("/", workplaceHandler.Delete)
				r.Patch("/toggle", workplaceHandler.ToggleActive)
			})
		})

		// 勤務記録
		r.Route("/workdays", func(r chi.Router) {
			r.Get("/", workdayHandler.List)
			r.Post("/", workdayHandler.Create)
			r.Get("/stats/this-month", workdayHandler.ThisMonthStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", workdayHandler.Update)
				r.Delete("/", workdayHandler.Delete)
			})
		})
	})

	return r
}
