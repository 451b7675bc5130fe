package cmd

import (
	"context"
	"fmt"
	"time"

	"betledger/application"
	"betledger/cache"
	"betledger/config"
	"betledger/database"
	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/interfaces"
	"betledger/gateway"
	"betledger/httpapi"
	"betledger/oracle"
	"betledger/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting bet ledger...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Redis is optional; without it wallet reads hit the database directly.
	var walletCache *cache.Cache
	if cfg.RedisAddr != "" {
		walletCache, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer walletCache.Close()
		log.WithField("addr", cfg.RedisAddr).Info("Redis cache connected")

		// Settlement and funding invalidate cached wallet snapshots.
		eventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
			if change, ok := event.(events.BalanceChangeEvent); ok {
				walletCache.Delete(ctx, cache.WalletKey(change.UserID))
			}
		})
	}

	var resultOracle interfaces.ResultOracle
	if cfg.OracleEnabled {
		resultOracle = oracle.NewHTTPOracle()
	}

	ledger := application.NewLedger(uowFactory, resultOracle)

	processors := make([]interfaces.PaymentProcessor, 0, 2)
	if cfg.EcoCashAPIURL != "" {
		processors = append(processors, gateway.NewEcoCashGateway(cfg.EcoCashAPIURL, cfg.EcoCashAPIKey))
	}
	if cfg.PayPalAPIURL != "" {
		processors = append(processors, gateway.NewPayPalGateway(cfg.PayPalAPIURL, cfg.PayPalAPIKey))
	}
	funding := application.NewFundingService(uowFactory, processors...)

	logBetEvents(eventBus)

	handler := httpapi.NewHandler(ledger, funding, walletCache)
	server := httpapi.NewServer(cfg.HTTPAddr, handler, db.Healthy)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("Ledger is running")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	log.Info("Shutdown completed")
	return nil
}

// logBetEvents subscribes audit logging to the bet lifecycle events.
func logBetEvents(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetAccepted, func(ctx context.Context, event events.Event) {
		if accepted, ok := event.(events.BetAcceptedEvent); ok {
			log.WithFields(log.Fields{
				"betID":      accepted.BetID,
				"creatorID":  accepted.CreatorID,
				"opponentID": accepted.OpponentID,
				"amount":     accepted.Amount,
			}).Info("Bet accepted, escrow locked")
		}
	})

	bus.Subscribe(events.EventTypeBetResolved, func(ctx context.Context, event events.Event) {
		if resolved, ok := event.(events.BetResolvedEvent); ok {
			log.WithFields(log.Fields{
				"betID":  resolved.BetID,
				"result": resolved.Result,
				"payout": payoutFor(resolved),
			}).Info("Bet settled")
		}
	})

	bus.Subscribe(events.EventTypeBetDisputed, func(ctx context.Context, event events.Event) {
		if disputed, ok := event.(events.BetDisputedEvent); ok {
			log.WithFields(log.Fields{
				"betID":      disputed.BetID,
				"creatorID":  disputed.CreatorID,
				"opponentID": disputed.OpponentID,
			}).Warn("Bet disputed, awaiting adjudication")
		}
	})
}

func payoutFor(resolved events.BetResolvedEvent) int64 {
	if resolved.Result == entities.BetResultDraw || resolved.Result == entities.BetResultCancelled {
		return resolved.Amount
	}
	return 2 * resolved.Amount
}
