// File: cmd/app/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hostilerust-bot/internal/application"
	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/infra/adapters/gameserver"
	tele "hostilerust-bot/internal/infra/adapters/telegram"
	pg "hostilerust-bot/internal/infra/db/postgres"
	"hostilerust-bot/internal/infra/logging"
	"hostilerust-bot/internal/infra/metrics"
	red "hostilerust-bot/internal/infra/redis"
	"hostilerust-bot/internal/infra/sched"
	"hostilerust-bot/internal/infra/web"
	"hostilerust-bot/internal/infra/worker"
	"hostilerust-bot/internal/usecase"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	stateRepo := red.NewStateRepo(redisClient, cfg.Redis.FlowTTL)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	promoRepo := pg.NewPromoCodeRepo(pool)
	issuanceRepo := pg.NewIssuanceRepo(pool)
	ticketRepo := pg.NewTicketRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Broadcast worker pool ----
	workerPool := worker.NewPool(cfg.Bot.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Telegram adapter ----
	// Use cases send through the adapter port, so the adapter exists before
	// the facade; the facade is attached just before polling starts.
	var bot adapter.TelegramBotAdapter
	var realBot *tele.RealTelegramBotAdapter
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode: using noop telegram adapter, no polling")
		bot = tele.NewNoopBotAdapter(logger)
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, stateRepo, rateLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram connect failed")
		}
		bot = realBot
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, logger)
	promoUC := usecase.NewPromoUseCase(userRepo, promoRepo, issuanceRepo, tm, locker,
		cfg.Promo.RateLimitWindow, cfg.Promo.ExpiryWindow, logger)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, bot, workerPool, logger)
	ticketUC := usecase.NewTicketUseCase(ticketRepo, userRepo, bot, rateLimiter, cfg.Ticket.Cooldown, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, issuanceRepo, promoRepo, logger)
	wipeUC, err := usecase.NewWipeUseCase(cfg.Wipe, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wipe schedule config invalid")
	}
	probe := gameserver.NewA2SProbe(cfg.Probe.Timeout, logger)

	// ---- Facade + polling ----
	facade := application.NewBotFacade(userUC, promoUC, broadcastUC, ticketUC, statsUC, wipeUC, probe, &cfg.Bot, &cfg.Probe)
	if realBot != nil {
		if strings.ToLower(cfg.Bot.Mode) != "polling" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("unsupported bot mode, falling back to polling")
		}
		realBot.SetFacade(facade)
		go func() {
			if err := realBot.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Wipe scheduler + cron housekeeping ----
	wipeScheduler := sched.NewWipeScheduler(wipeUC, broadcastUC, bot, cfg.Wipe, logger)
	go func() { _ = wipeScheduler.Run(ctx) }()

	cronJobs := sched.NewCronJobs(probe, promoUC, cfg.Probe, wipeUC.Location(), logger)
	if err := cronJobs.Start(); err != nil {
		logger.Fatal().Err(err).Msg("cron start failed")
	}
	defer cronJobs.Stop()

	// ---- Admin HTTP API ----
	checks := map[string]web.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisClient.Ping,
	}
	webServer := web.NewServer(&cfg.Web, statsUC, userUC, promoUC, checks, logger)
	go func() {
		if err := webServer.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("admin api stopped")
		}
	}()

	logger.Info().Str("version", version).Msg("bot started")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
