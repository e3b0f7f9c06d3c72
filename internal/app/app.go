package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/yevmiye/internal/auth"
	"github.com/hitoshi/yevmiye/internal/config"
	"github.com/hitoshi/yevmiye/internal/database"
	"github.com/hitoshi/yevmiye/internal/handler"
	"github.com/hitoshi/yevmiye/internal/logger"
	"github.com/hitoshi/yevmiye/internal/metrics"
	"github.com/hitoshi/yevmiye/internal/repository"
	"github.com/hitoshi/yevmiye/internal/security"
	"github.com/hitoshi/yevmiye/internal/workday"
	"github.com/hitoshi/yevmiye/internal/workplace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// defaultServerPort はSERVER_PORT未設定時のヘルスチェック先ポート。
const defaultServerPort = "5001"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// 設定読み込み後にLOG_LEVELを反映したロガーへ差し替える。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultServerPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. ルーターの構築
	reg := prometheus.NewRegistry()
	router, err := buildRouter(cfg, db, reg)
	if err != nil {
		return err
	}

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ・サービス・ハンドラーアダプタをワイヤリングしてルーターを返す。
// メトリクスはregに登録され、/metricsで公開される。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	workplaceRepo := repository.NewPostgresWorkplaceRepo(db)
	workdayRepo := repository.NewPostgresWorkdayRepo(db)

	// 2. メトリクスの初期化
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. セキュリティサービスの初期化
	guard := security.NewOutboundGuard()
	if err := guard.ValidateEndpoint(cfg.GoogleCertsURL); err != nil {
		return nil, fmt.Errorf("invalid google certs url: %w", err)
	}
	sanitizer := security.NewTextSanitizer()

	clientIDs := cfg.GoogleClientIDs()
	if len(clientIDs) == 0 {
		slog.Warn("no google client ids configured, federated login is disabled")
	}
	googleVerifier := auth.NewGoogleVerifier(
		guard.NewClient(cfg.GoogleCertsTimeout),
		auth.GoogleVerifierConfig{
			CertsURL:  cfg.GoogleCertsURL,
			ClientIDs: clientIDs,
			CacheTTL:  cfg.GoogleCertsCacheTTL,
		},
	)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenManager(cfg.JWTSecret),
		googleVerifier,
		sanitizer,
		collector,
	)
	workplaceService := workplace.NewService(workplaceRepo, sanitizer, collector)
	workdayService := workday.NewService(workdayRepo, workplaceRepo, collector)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:               slog.Default(),
		SessionAuthenticator: authService,
		HTTPRecorder:         collector,
		CORSAllowedOrigin:    cfg.CORSAllowedOrigin,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService:      authService,
		WorkplaceService: handler.NewWorkplaceServiceAdapter(workplaceService),
		WorkdayService:   handler.NewWorkdayServiceAdapter(workdayService),
	}

	return handler.NewRouter(deps), nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
