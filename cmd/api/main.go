package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/prayas-foundation/prayas-api/internal/analytics"
	"github.com/prayas-foundation/prayas-api/internal/auth"
	"github.com/prayas-foundation/prayas-api/internal/authz"
	"github.com/prayas-foundation/prayas-api/internal/cart"
	"github.com/prayas-foundation/prayas-api/internal/catalog"
	"github.com/prayas-foundation/prayas-api/internal/checkout"
	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/config"
	"github.com/prayas-foundation/prayas-api/internal/culture"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
	"github.com/prayas-foundation/prayas-api/internal/fees"
	"github.com/prayas-foundation/prayas-api/internal/health"
	"github.com/prayas-foundation/prayas-api/internal/notify"
	"github.com/prayas-foundation/prayas-api/internal/obs"
	"github.com/prayas-foundation/prayas-api/internal/order"
	"github.com/prayas-foundation/prayas-api/internal/payment"
	"github.com/prayas-foundation/prayas-api/internal/posts"
	"github.com/prayas-foundation/prayas-api/internal/ratelimit"
	"github.com/prayas-foundation/prayas-api/internal/school"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "prayas")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "prayas-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "prayas-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := db.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	currency := envOrDefault("CURRENCY_CODE", "INR")

	authService, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          envOrDefault("JWT_ISSUER", "prayas-api"),
		Audience:        envOrDefault("JWT_AUDIENCE", "prayas"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	accessCookie := envOrDefault("ACCESS_COOKIE_NAME", "prayas_access")
	refreshCookie := envOrDefault("REFRESH_COOKIE_NAME", "prayas_refresh")
	authHandler := &auth.Handler{
		Service:           authService,
		AccessCookieName:  accessCookie,
		RefreshCookieName: refreshCookie,
		CookieDomain:      cfg.CookieDomain,
		CookieSecure:      cfg.CookieSecure,
		CookieSameSite:    cfg.CookieSameSite,
	}
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: accessCookie}

	gate := &authz.Gate{Q: queries}
	authzHandler := &authz.Handler{Gate: gate}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:login:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: envDuration("LOGIN_RATE_WINDOW", time.Minute),
			Max:    envInt("LOGIN_RATE_MAX", 10),
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	notifier := &notify.Notifier{Q: queries}
	bus := &events.Bus{
		Q:         queries,
		Log:       logger,
		Notifiers: []events.Notifier{notifier},
	}

	catalogService := &catalog.Service{
		Q:     queries,
		Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	}
	catalogHandler := &catalog.Handler{Service: catalogService}

	cartService := &cart.Service{Q: queries, R: redisClient, TTL: envDuration("CART_CACHE_TTL", 10*time.Minute)}
	cartHandler := &cart.Handler{Service: cartService}

	checkoutService := &checkout.Service{
		Q:        queries,
		InTx:     checkout.PoolRunner(pool, queries),
		Cart:     cartService,
		Events:   bus,
		Currency: currency,
	}
	checkoutHandler := &checkout.Handler{Service: checkoutService}

	orderService := &order.Service{Q: queries}
	orderHandler := &order.Handler{Service: orderService}
	orderAdmin := &order.AdminHandler{Service: orderService}

	providers := map[string]payment.Provider{
		payment.GatewayRazorpay: payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret),
		payment.GatewayStripe:   payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
	}
	paymentService := &payment.Service{
		Q:              queries,
		Providers:      providers,
		DefaultGateway: cfg.DefaultGateway,
		Currency:       currency,
	}
	paymentHandler := &payment.Handler{Service: paymentService}
	paymentWebhook := &payment.Webhook{
		Q:                     queries,
		Providers:             providers,
		Replay:                redisClient,
		ReplayTTL:             envDuration("WEBHOOK_REPLAY_TTL", 48*time.Hour),
		Events:                bus,
		Log:                   logger,
		SubscriptionExtension: envDuration("SUBSCRIPTION_PERIOD", 0),
	}

	schoolService := &school.Service{Q: queries}
	schoolHandler := &school.Handler{Service: schoolService}

	feeService := &fees.Service{Q: queries}
	feeHandler := &fees.Handler{Service: feeService}

	cultureService := &culture.Service{Q: queries}
	cultureHandler := &culture.Handler{Service: cultureService}

	postService := &posts.Service{Q: queries, Events: bus}
	postHandler := &posts.Handler{Service: postService}

	notifyHandler := &notify.Handler{Q: queries}
	eventsHandler := &events.Handler{Q: queries}

	analyticsService := &analytics.Service{Q: queries, R: redisClient, TTL: cfg.AnalyticsCacheTTL}
	analyticsHandler := &analytics.Handler{Service: analyticsService}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Deps{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/schools", schoolHandler.List)
		v.Get("/schools/{schoolID}", schoolHandler.Get)
		v.Get("/schools/{schoolID}/fees", feeHandler.ListStructures)
		v.Post("/schools/{schoolID}/fees/quote", feeHandler.Quote)

		v.Get("/culture/categories", cultureHandler.ListCategories)
		v.Get("/culture/programs", cultureHandler.ListPrograms)
		v.Get("/culture/programs/{programID}", cultureHandler.GetProgram)

		v.Get("/books", catalogHandler.List)
		v.Get("/books/{bookID}", catalogHandler.Get)

		v.Get("/posts", postHandler.ListApproved)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		v.Group(func(authed chi.Router) {
			authed.Use(authMiddleware.RequireAuth)

			authed.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Post("/items", cartHandler.Add)
				c.Patch("/items/{itemID}", cartHandler.UpdateQty)
				c.Delete("/items/{itemID}", cartHandler.Remove)
				c.Delete("/", cartHandler.Clear)
			})

			authed.With(idem.Middleware).Post("/checkout", checkoutHandler.Create)

			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{orderID}", orderHandler.Get)
			authed.Post("/orders/{orderID}/cancel", orderHandler.Cancel)

			authed.Route("/payments", func(p chi.Router) {
				p.With(idem.Middleware).Post("/create-intent", paymentHandler.CreateIntent)
				p.Get("/{orderID}/status", paymentHandler.StatusForOrder)
			})

			authed.With(idem.Middleware).Post("/schools/{schoolID}/fee-payments", feeHandler.RecordPayment)

			authed.Post("/posts", postHandler.Submit)
			authed.Get("/posts/mine", postHandler.ListMine)
			authed.Delete("/posts/{postID}", postHandler.Delete)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)

			admin.Group(func(sa chi.Router) {
				sa.Use(gate.RequireAdmin)

				sa.Post("/schools", schoolHandler.Create)
				sa.Post("/culture/categories", cultureHandler.CreateCategory)

				sa.Post("/books", catalogHandler.Create)
				sa.Put("/books/{bookID}", catalogHandler.Update)
				sa.Delete("/books/{bookID}", catalogHandler.Delete)
				sa.Get("/books/low-stock", catalogHandler.LowStock)

				sa.Get("/orders/{orderID}", orderAdmin.Get)
				sa.Patch("/orders/{orderID}/status", orderAdmin.UpdateStatus)
				sa.Post("/orders/{orderID}/cancel", orderAdmin.Cancel)
				sa.Put("/orders/{orderID}/tracking", orderAdmin.SetTracking)

				sa.Get("/posts", postHandler.ListQueue)
				sa.Post("/posts/{postID}/moderate", postHandler.Moderate)

				sa.Get("/notifications", notifyHandler.List)
				sa.Get("/notifications/unread-count", notifyHandler.UnreadCount)
				sa.Post("/notifications/{notificationID}/read", notifyHandler.MarkRead)
				sa.Post("/notifications/read-all", notifyHandler.MarkAllRead)

				sa.Get("/events", eventsHandler.List)

				sa.Get("/analytics/overview", analyticsHandler.Overview)
				sa.Get("/analytics/top-books", analyticsHandler.TopBooks)
				sa.Get("/analytics/fee-collection", analyticsHandler.FeeCollection)

				sa.Put("/users/{userID}/permissions", authzHandler.UpdatePermissions)
			})

			admin.Route("/schools/{schoolID}", func(s chi.Router) {
				s.Use(gate.RequireManager(authz.ResourceSchool, "schoolID"))
				s.Get("/", schoolHandler.AdminGet)
				s.Put("/", schoolHandler.Update)
				s.Put("/payment-settings", schoolHandler.UpdatePaymentSettings)
				s.Post("/fees", feeHandler.CreateStructure)
				s.Get("/fee-payments", feeHandler.ListPayments)
			})

			admin.Group(func(c chi.Router) {
				c.Use(gate.RequireProgramManager("programID"))
				c.Put("/culture/programs/{programID}", cultureHandler.UpdateProgram)
				c.Delete("/culture/programs/{programID}", cultureHandler.DeleteProgram)
			})
			admin.With(gate.RequireAdmin).Post("/culture/programs", cultureHandler.CreateProgram)
		})

		v.Post("/webhooks/payment/{gateway}", paymentWebhook.Handle)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drain, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(drain); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
