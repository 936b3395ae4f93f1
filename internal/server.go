package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/davidjes1/fitnesstracker/internal/config"
	"github.com/davidjes1/fitnesstracker/internal/db"
	"github.com/davidjes1/fitnesstracker/internal/events"
	"github.com/davidjes1/fitnesstracker/internal/identity"
	"github.com/davidjes1/fitnesstracker/internal/middleware"
	"github.com/davidjes1/fitnesstracker/internal/session"
	"github.com/davidjes1/fitnesstracker/internal/storage"
	"github.com/davidjes1/fitnesstracker/internal/storage/pgstore"
	"github.com/davidjes1/fitnesstracker/internal/storage/redisstore"
	"github.com/davidjes1/fitnesstracker/internal/storage/sqlitestore"
	"github.com/davidjes1/fitnesstracker/internal/telemetry/metrics"
	"github.com/davidjes1/fitnesstracker/internal/telemetry/tracing"
	"github.com/davidjes1/fitnesstracker/pkg"
)

const sessionSweepInterval = 5 * time.Minute

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config    *config.Config
	dbPool    *pgxpool.Pool
	closeDB   func() error
	publisher events.Publisher

	redisClient *redis.Client
	manager     *session.Manager

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}

	s := &Server{
		config:       cfg,
		versionInfo:  params.VersionInfo,
		publisher:    events.NopPublisher{},
		otelShutdown: func() {},
	}

	if params.HoneycombTracingEnabled {
		s.otelShutdown, err = tracing.HoneycombSetup()
		if err != nil {
			return nil, err
		}
	}

	// sign-in sessions and rate limiting live in redis, whatever the storage backend
	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})
	if params.HoneycombTracingEnabled {
		tracing.InstrumentRedis(s.redisClient)
	}
	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	var collectors []prometheus.Collector
	store, err := s.setupStore(ctx, params, &collectors)
	if err != nil {
		return nil, err
	}

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("fitness", "tracker", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.CacheSizeMB > 0 {
		store = storage.NewCached(store, cfg.CacheSizeMB, cfg.CacheTTL())
	}
	store = storage.NewGuard(store, storage.GuardParams{
		Timeout: cfg.StorageTimeout(),
		Retries: cfg.StorageRetries,
	})

	if len(cfg.KafkaBrokers) > 0 {
		s.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Debugf("publishing tracker events to kafka topic %s", cfg.KafkaTopic)
	}

	accounts := make([]identity.Account, 0, len(cfg.Accounts))
	for _, acc := range cfg.Accounts {
		accounts = append(accounts, identity.Account{
			Email:        acc.Email,
			PasswordHash: acc.PasswordHash,
		})
	}
	identityService := identity.NewService(cfg.SessionTTL(), s.redisClient, accounts)

	s.manager = session.NewManager(identityService, session.Params{
		Store:                store,
		Publisher:            s.publisher,
		PublishTimeout:       cfg.StorageTimeout(),
		Metrics:              s.metricsManager,
		Location:             loc,
		WeeklyGoal:           cfg.WeeklyGoal,
		PersonalRecordsLimit: cfg.PersonalRecordsLimit,
		WeightHistoryLimit:   cfg.WeightHistoryLimit,
	}, cfg.SessionIdle())
	go s.manager.RunSweeper(ctx, sessionSweepInterval)

	return s, nil
}

func (s *Server) setupStore(ctx context.Context, params NewServerParams, collectors *[]prometheus.Collector) (storage.Store, error) {
	cfg := params.Config
	log.Infof("storage backend: %s", cfg.StorageBackend)

	switch cfg.StorageBackend {
	case config.StorageRedis:
		return redisstore.New(s.redisClient), nil
	case config.StoragePostgres:
		dbParams := db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDB,
			DBPassword:     params.PostgresPassword,
			SSLMode:        cfg.PostgresSSLMode,
			TracingEnabled: params.HoneycombTracingEnabled,
		}
		if err := pgstore.Migrate(db.ConnString(dbParams)); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		dbPool, err := db.NewDBPool(ctx, dbParams)
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool
		*collectors = append(*collectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDB},
		))
		return pgstore.New(dbPool), nil
	case config.StorageSQLite:
		sqlite, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.closeDB = sqlite.Close
		return sqlite, nil
	default:
		log.Warnln("memory storage: data is lost on restart")
		return storage.NewMemory(), nil
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	h := session.NewHandler(s.manager)

	r.HandleFunc("/", s.handleRoot).Methods("GET").Name("root")
	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/anonymous", h.HandleSignInAnonymous).Methods("POST", "OPTIONS").Name("sign-in-anonymous")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	authRouter.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		s.metricsManager,
		"auth",
		s.config.SignInRateLimitPerMin,
	))

	r.HandleFunc("/me", h.HandleMe).Methods("GET", "OPTIONS").Name("me")
	r.HandleFunc("/dashboard", h.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	r.HandleFunc("/stats", h.HandleStats).Methods("GET", "OPTIONS").Name("stats")
	r.HandleFunc("/progress", h.HandleProgress).Methods("GET", "OPTIONS").Name("progress")
	r.HandleFunc("/workouts", h.HandleListWorkouts).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", h.HandleAddWorkout).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", h.HandleGetWorkout).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", h.HandleDeleteWorkout).Methods("DELETE", "OPTIONS").Name("remove-workout")
	r.HandleFunc("/weights", h.HandleAddWeight).Methods("POST", "OPTIONS").Name("new-weight")
	r.HandleFunc("/data", h.HandleResetData).Methods("DELETE", "OPTIONS").Name("reset-data")
	r.HandleFunc("/templates", h.HandleListTemplates).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/templates/{name}", h.HandleGetTemplate).Methods("GET", "OPTIONS").Name("get-template")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.manager)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if err := s.publisher.Close(); err != nil {
		log.Errorf("failed to close event publisher: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close()
		log.Debugln("db pool closed")
	}
	if s.closeDB != nil {
		if err := s.closeDB(); err != nil {
			log.Errorf("failed to close sqlite db: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
