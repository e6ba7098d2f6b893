package main

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goalmates-app/goalmates-backend/api/routes"
	"github.com/goalmates-app/goalmates-backend/internal/chat"
	"github.com/goalmates-app/goalmates-backend/internal/digest"
	"github.com/goalmates-app/goalmates-backend/internal/matches"
	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/realtime"
	"github.com/goalmates-app/goalmates-backend/internal/teams"
	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/goalmates-app/goalmates-backend/pkg/db"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/goalmates-app/goalmates-backend/pkg/mail"
	"github.com/goalmates-app/goalmates-backend/pkg/metrics"
	"github.com/goalmates-app/goalmates-backend/pkg/migrate"
	"github.com/goalmates-app/goalmates-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	rtMetrics := metrics.NewRealtimeMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	chatRepo := chat.NewRepository(dbClient.DB())

	notificationsGateway, err := realtime.NewGateway(realtime.GatewayParams{
		Namespace: realtime.NamespaceNotifications,
		Verifier:  realtime.NewJWTVerifier(cfg.JWT),
		Logger:    logg,
		Metrics:   rtMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications gateway", err)
		os.Exit(1)
	}

	queue, err := digest.NewQueue(logg, rtMetrics, cfg.Digest)
	if err != nil {
		logg.Error(context.Background(), "failed to create digest queue", err)
		os.Exit(1)
	}

	mailer := mail.NewClient(cfg.Mail, logg)
	worker, err := digest.NewWorker(notificationsRepo, usersRepo, mailer, logg, rtMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create digest worker", err)
		os.Exit(1)
	}
	if err := queue.RegisterProcessor(worker.HandleJob); err != nil {
		logg.Error(context.Background(), "failed to register digest processor", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(
		notificationsRepo,
		usersRepo,
		notifications.NewGatewayEvents(notificationsGateway),
		queue,
		logg,
		cfg.Notifications,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	// The chat service and its gateway reference each other: the gateway
	// gates connects on the service's eligibility check, the service
	// broadcasts through the gateway. The closure breaks the cycle.
	var chatService chat.Service
	chatGateway, err := realtime.NewGateway(realtime.GatewayParams{
		Namespace: realtime.NamespaceChat,
		Verifier:  realtime.NewJWTVerifier(cfg.JWT),
		Logger:    logg,
		Metrics:   rtMetrics,
		Eligibility: func(ctx context.Context, userID uuid.UUID) error {
			return chatService.Eligibility(ctx, userID)
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat gateway", err)
		os.Exit(1)
	}

	chatService, err = chat.NewService(chatRepo, usersRepo, chatGateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	teamsRepo := teams.NewRepository(dbClient.DB())
	teamsService, err := teams.NewService(teamsRepo, usersRepo, notificationsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create teams service", err)
		os.Exit(1)
	}

	matchesRepo := matches.NewRepository(dbClient.DB())
	matchAnnouncer, err := matches.NewAnnouncer(matchesRepo, teamsRepo, notificationsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create match announcer", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Metrics:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Notifications:        notificationsService,
			NotificationsGateway: notificationsGateway,
			Chat:                 chatService,
			ChatGateway:          chatGateway,
			Teams:                teamsService,
			Matches:              matchAnnouncer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	queue.Wait()
}
