package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civicchain/civic-service/internal/api/http"
	"github.com/civicchain/civic-service/internal/api/http/handlers"
	"github.com/civicchain/civic-service/internal/auth"
	"github.com/civicchain/civic-service/internal/classify"
	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/ledger"
	"github.com/civicchain/civic-service/internal/observability"
	"github.com/civicchain/civic-service/internal/persistence"
	"github.com/civicchain/civic-service/internal/ranking"
	"github.com/civicchain/civic-service/internal/reputation"
	"github.com/civicchain/civic-service/internal/repository"
	"github.com/civicchain/civic-service/internal/service"
	"github.com/civicchain/civic-service/internal/wallet"
	"github.com/civicchain/civic-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	store := repository.NewStore(pg.PoolHandle())
	leaderboard := ranking.NewLeaderboard(redis.Client)
	dispatcher := events.NewInMemoryDispatcher()

	deltas := reputation.Deltas{
		UpvoteReceived:        cfg.Engine.UpvoteDelta,
		DownvoteReceived:      cfg.Engine.DownvoteDelta,
		IssueVerifiedResolved: cfg.Engine.ResolvedDelta,
		VerificationPerformed: cfg.Engine.VerificationDelta,
		MarkedSpam:            cfg.Engine.SpamDelta,
	}

	scoringService := service.NewScoringService(store, leaderboard, logger)
	issueService := service.NewIssueService(service.IssueDependencies{
		Store:      store,
		Scoring:    scoringService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	voteService := service.NewVoteService(service.VoteDependencies{
		Store:      store,
		Scoring:    scoringService,
		Dispatcher: dispatcher,
		Deltas:     deltas,
		Logger:     logger,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		Store:      store,
		Scoring:    scoringService,
		Dispatcher: dispatcher,
		Deltas:     deltas,
		Threshold:  cfg.Engine.VerificationThreshold,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   store.Users(),
		Wallets:    wallet.NewHTTPProvider(cfg.Wallet),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	notifier := ledger.NewNotifier(ledger.NewHTTPClient(cfg.Ledger), store.Issues(), logger, metrics, cfg.Ledger)
	worker.StartLedgerWorker(ctx, dispatcher, notifier)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())
	classifier := classify.NewHTTPClassifier(cfg.Classify, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService, scoringService, classifier),
		Votes:          handlers.NewVotesHandler(voteService, verificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
