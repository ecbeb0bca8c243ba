package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"golang.org/x/sync/errgroup"

	"github.com/cinetix/cinema-booking/internal/booking"
	"github.com/cinetix/cinema-booking/internal/cache"
	"github.com/cinetix/cinema-booking/internal/event"
	"github.com/cinetix/cinema-booking/internal/mailer"
	"github.com/cinetix/cinema-booking/internal/payment"
	"github.com/cinetix/cinema-booking/internal/realtime"
	"github.com/cinetix/cinema-booking/internal/repository"
	appvalidator "github.com/cinetix/cinema-booking/internal/validator"
)

const version = "1.0.0"

type application struct {
	config    config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate
	mailer    mailer.Mailer

	bus            *event.Bus
	hub            *realtime.Hub
	expiryListener *cache.ExpiryListener

	holds        *booking.HoldService
	availability *booking.AvailabilityService
	lifecycle    *booking.LifecycleService
	reconciler   *booking.Reconciler
	scheduler    *booking.Scheduler
	sweeper      *booking.Sweeper
	tickets      *booking.TicketService
}

type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	stripe struct {
		secretKey     string
		webhookSecret string
		successUrl    string
		failureUrl    string
	}
	jwt struct {
		secret string
	}
	holds struct {
		ttl time.Duration
	}
	checkout struct {
		window time.Duration
		grace  time.Duration
	}
	sweep            booking.SweeperConfig
	otelCollectorUrl string
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "CineTix <no-reply@cinetix.example.com>", "SMTP sender")

	flag.StringVar(&cfg.stripe.secretKey, "stripe-key", "", "Stripe secret key")
	flag.StringVar(&cfg.stripe.webhookSecret, "stripe-webhook-secret", "", "Stripe webhook secret")
	flag.StringVar(&cfg.stripe.successUrl, "stripe-success-url", "https://example.com/success.html", "Stripe payment success page")
	flag.StringVar(&cfg.stripe.failureUrl, "stripe-failure-url", "https://example.com/failure.html", "Stripe payment failure page")

	flag.StringVar(&cfg.jwt.secret, "jwt-secret", "", "HMAC secret for auth and ticket tokens")

	flag.DurationVar(&cfg.holds.ttl, "hold-ttl", 5*time.Minute, "Seat hold time to live")
	flag.DurationVar(&cfg.checkout.window, "checkout-window", 10*time.Minute, "Time a booking may await payment")
	flag.DurationVar(&cfg.checkout.grace, "checkout-grace", 5*time.Second, "Grace period before expiring a booking")

	flag.DurationVar(&cfg.sweep.ExpireInterval, "sweep-expire-interval", 5*time.Minute, "Interval between overdue booking sweeps")
	flag.DurationVar(&cfg.sweep.AlignInterval, "sweep-align-interval", 30*time.Minute, "Interval between expired booking alignment sweeps")
	flag.DurationVar(&cfg.sweep.PastInterval, "sweep-past-interval", time.Hour, "Interval between past session sweeps")
	flag.DurationVar(&cfg.sweep.RetentionInterval, "sweep-retention-interval", 24*time.Hour, "Interval between retention sweeps")
	flag.DurationVar(&cfg.sweep.RetentionAge, "retention-age", 7*24*time.Hour, "Age after which expired bookings are purged")

	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	stripe.Key = cfg.stripe.secretKey

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	bookingRepo := repository.NewPostgresBookingRepository(db)
	seatRepo := repository.NewPostgresSeatRepository(db)
	sessionRepo := repository.NewPostgresSessionRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	bus := event.NewBus(logger)
	holdCache := cache.NewRedisSeatHoldCache(redisClient, cfg.holds.ttl)
	provider := payment.NewStripePaymentProvider(cfg.stripe.successUrl, cfg.stripe.failureUrl, cfg.checkout.window)
	smtpMailer := mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)

	lifecycle := booking.NewLifecycleService(
		bookingRepo, sessionRepo, seatRepo, userRepo, holdCache, provider, bus, logger, cfg.checkout.window)
	reconciler := booking.NewReconciler(bookingRepo, provider, lifecycle, logger)
	holds := booking.NewHoldService(seatRepo, bookingRepo, holdCache, bus, logger)
	availability := booking.NewAvailabilityService(seatRepo, bookingRepo, holdCache)
	tickets := booking.NewTicketService(bookingRepo, sessionRepo, []byte(cfg.jwt.secret))
	scheduler := booking.NewScheduler(cfg.checkout.grace, reconciler.TryExpire, logger)
	sweeper := booking.NewSweeper(bookingRepo, reconciler, logger, cfg.sweep)
	notifier := booking.NewNotifier(userRepo, sessionRepo, smtpMailer, logger)

	hub := realtime.NewHub(bus, logger)
	broadcaster := realtime.NewBroadcaster(hub, logger)
	broadcaster.Register(bus)

	bus.Subscribe(event.TopicBookingCreated, "scheduler", scheduler.HandleBookingCreated)
	bus.Subscribe(event.TopicBookingStatusUpdated, "scheduler", scheduler.HandleStatusUpdated)
	bus.Subscribe(event.TopicBookingStatusUpdated, "notifier", notifier.HandleStatusUpdated)
	bus.Subscribe(event.TopicClientDisconnected, "hold-release", holds.HandleClientDisconnected)

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      appvalidator.NewValidator(),
		mailer:         smtpMailer,
		bus:            bus,
		hub:            hub,
		expiryListener: cache.NewExpiryListener(redisClient, bus, logger),
		holds:          holds,
		availability:   availability,
		lifecycle:      lifecycle,
		reconciler:     reconciler,
		scheduler:      scheduler,
		sweeper:        sweeper,
		tickets:        tickets,
	}

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// run drives the HTTP server, the websocket hub, the sweep loops and the
// hold expiry listener until a shutdown signal arrives.
func (app *application) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.hub.Run(ctx)
	})

	g.Go(func() error {
		return app.sweeper.Run(ctx)
	})

	g.Go(func() error {
		return app.expiryListener.Run(ctx)
	})

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	app.scheduler.Stop()
	app.bus.Close()

	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.recoverPanic)

	r.Get("/health", app.healthcheckHandler)

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/", app.StripeWebhookHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(app.requireAuthentication)

		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/seats", app.getSessionSeatsHandler)
			r.Get("/live", app.sessionLiveHandler)

			r.Post("/holds", app.holdSeatHandler)
			r.Delete("/holds", app.releaseAllHoldsHandler)
			r.Delete("/holds/{seatId}", app.releaseSeatHandler)

			r.Post("/bookings", app.createBookingHandler)
		})

		r.Route("/bookings/{bookingId}", func(r chi.Router) {
			r.Get("/", app.getBookingHandler)
			r.Delete("/", app.cancelBookingHandler)
			r.Post("/confirm", app.confirmBookingHandler)
			r.Get("/ticket", app.getTicketHandler)
		})

		r.Post("/tickets/redeem", app.redeemTicketHandler)
	})

	return r
}
