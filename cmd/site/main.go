package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"site-edge/api"
	"site-edge/config"
	"site-edge/contact"
	"site-edge/logging"
	"site-edge/middleware/csrf"
	"site-edge/middleware/gate"
	"site-edge/middleware/geo"
	"site-edge/middleware/ratelimit"
	"site-edge/middleware/ratelimit/domain"
	"site-edge/middleware/ratelimit/infra"
	"site-edge/osclient"
	"site-edge/tracking"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "json")
		log.Fatal().Err(err).Msg("config error")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping error")
		}
	}

	var windows domain.WindowStore
	if cfg.RateLimit.Store == "redis" {
		windows = infra.NewRedisWindowStore(rdb)
	} else {
		mem := infra.NewMemoryWindowStore()
		mem.StartJanitor(ctx)
		windows = mem
	}

	var (
		statsStore  domain.StatsStore
		statsReader api.StatsReader
	)
	if cfg.RateLimit.StatsEnabled {
		if rdb != nil {
			s := infra.NewRedisStatsStore(rdb,
				infra.WithStatsTTL(cfg.RateLimit.StatsTTL),
				infra.WithStatsTrackKeys(cfg.RateLimit.StatsKeys),
				infra.WithStatsBucket(cfg.RateLimit.StatsBucket),
			)
			statsStore, statsReader = s, s
		} else {
			s := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.RateLimit.StatsKeys))
			statsStore, statsReader = s, s
		}
	}

	var locator geo.Locator
	if cfg.Geo.Enabled {
		table := geo.DefaultTable
		if cfg.Geo.LocalesFile != "" {
			table, err = geo.LoadLocaleFile(cfg.Geo.LocalesFile)
			if err != nil {
				log.Fatal().Err(err).Str("file", cfg.Geo.LocalesFile).Msg("locale file error")
			}
		}
		var cache geo.Cache = geo.NewMemoryCache(10000)
		if rdb != nil {
			cache = geo.NewRedisCache(rdb)
		}
		locator = geo.NewClient(geo.Options{
			BaseURL:  cfg.Geo.BaseURL,
			Timeout:  cfg.Geo.Timeout,
			RPS:      cfg.Geo.RPS,
			Burst:    cfg.Geo.Burst,
			Cache:    cache,
			CacheTTL: cfg.Geo.CacheTTL,
			Table:    table,
		})
	}

	var dispatcher *tracking.Dispatcher
	if cfg.OS.Configured() {
		osc := osclient.New(osclient.Config{
			BaseURL:      cfg.OS.BaseURL,
			ClientID:     cfg.OS.ClientID,
			ClientSecret: cfg.OS.ClientSecret,
			Timeout:      cfg.OS.Timeout,
		})
		dispatcher = tracking.NewDispatcher(osc, tracking.Options{
			Concurrency: cfg.Tracking.Concurrency,
			Timeout:     cfg.Tracking.Timeout,
		})
	} else {
		log.Warn().Msg("partner api not configured, ingestion disabled")
	}

	var submissions contact.Store = contact.NewMemoryStore(0)
	if rdb != nil {
		submissions = contact.NewRedisStore(rdb)
	}

	handlers := &api.Handlers{Submissions: submissions, Stats: statsReader}
	if dispatcher != nil {
		handlers.Dispatcher = dispatcher
		handlers.Ingest = dispatcher
	}

	g := gate.Middleware(gate.Options{
		RateLimit: ratelimit.Options{
			Store:  windows,
			Policy: domain.Policy{Points: cfg.RateLimit.Points, Window: cfg.RateLimit.Window},
			Stats:  statsStore,
		},
		CSRF: csrf.Options{
			AuthKey:        cfg.CSRF.AuthKey,
			Secure:         cfg.Production(),
			TrustedOrigins: cfg.CSRF.TrustedOrigins,
			Stats:          statsStore,
		},
		Geo: locator,
	})

	h := api.NewRouter(handlers, g)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.Concurrency.Timeout,
	})(h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.ListenAddr).Msg("listen error")
		os.Exit(1)
	}

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("env", cfg.Env).
		Int("points", cfg.RateLimit.Points).
		Dur("window", cfg.RateLimit.Window).
		Str("store", cfg.RateLimit.Store).
		Bool("stats", cfg.RateLimit.StatsEnabled).
		Bool("geo", cfg.Geo.Enabled).
		Bool("ingest", dispatcher != nil).
		Int("concurrencyMax", cfg.Concurrency.Max).
		Msg("site listening")

	var drain func(context.Context) error
	if dispatcher != nil {
		drain = dispatcher.Close
	}
	if err := serve(ctx, srv, ln, 10*time.Second, drain); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("site stopped")
}
