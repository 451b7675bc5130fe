package application

import (
	"context"
	"fmt"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// FundingService moves money between external payment rails and wallets.
// External calls never run inside a database transaction: a deposit credits
// the wallet only after the rail confirms, and a withdrawal debits first,
// then refunds the hold if the rail declines. Each local step is one atomic
// unit, so a crash between steps leaves at worst a pending ledger entry with
// the funds still accounted for.
type FundingService struct {
	uowFactory UnitOfWorkFactory
	processors map[entities.PaymentMethod]interfaces.PaymentProcessor
}

// NewFundingService creates a new FundingService with the given payment
// processors.
func NewFundingService(uowFactory UnitOfWorkFactory, processors ...interfaces.PaymentProcessor) *FundingService {
	byMethod := make(map[entities.PaymentMethod]interfaces.PaymentProcessor, len(processors))
	for _, p := range processors {
		byMethod[p.Method()] = p
	}
	return &FundingService{
		uowFactory: uowFactory,
		processors: byMethod,
	}
}

// Deposit tops up a user's wallet from an external payment rail.
func (s *FundingService) Deposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, sourceRef string) (*entities.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive: %w", domain.ErrInvalidState)
	}
	processor, err := s.processor(method)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("Deposit via %s", method)
	result, err := processor.ProcessPayment(ctx, interfaces.PaymentRequest{
		Amount:         amount,
		DestinationRef: sourceRef,
		Reference:      reference,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, domain.NewExternalServiceError(string(method), result.Reason, nil)
	}

	txn, err := s.creditDeposit(ctx, userID, amount, method, reference, result.ExternalID)
	if err != nil {
		// The rail captured the payment but the credit never landed. The
		// external reference is the reconciliation handle.
		log.WithError(err).WithFields(log.Fields{
			"userID":     userID,
			"method":     method,
			"amount":     amount,
			"externalID": result.ExternalID,
		}).Error("Captured payment could not be credited, reconciliation required")
		return nil, domain.NewExternalServiceError(string(method),
			fmt.Sprintf("payment %s captured but not credited", result.ExternalID), err)
	}
	return txn, nil
}

// creditDeposit credits the wallet and records the completed ledger entry for
// a captured payment in one atomic unit.
func (s *FundingService) creditDeposit(ctx context.Context, userID, amount int64, method entities.PaymentMethod, reference, externalID string) (*entities.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uow.WalletRepository().ApplyDelta(ctx, wallet.ID, amount, 0); err != nil {
		return nil, err
	}

	txn := &entities.Transaction{
		UserID:        userID,
		WalletID:      wallet.ID,
		Amount:        amount,
		Type:          entities.TransactionTypeDeposit,
		Status:        entities.TransactionStatusCompleted,
		PaymentMethod: method,
		Reference:     reference,
		ExternalID:    &externalID,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, err
	}

	if err := uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          userID,
		WalletID:        wallet.ID,
		TransactionType: entities.TransactionTypeDeposit,
		ChangeAmount:    amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return txn, nil
}

// Withdraw cashes out wallet funds to an external payment rail. The wallet is
// debited and a pending ledger entry written before the rail is called; the
// entry is finalized as completed or failed-and-refunded afterwards.
func (s *FundingService) Withdraw(ctx context.Context, userID, amount int64, method entities.PaymentMethod, destinationRef string) (*entities.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive: %w", domain.ErrInvalidState)
	}
	processor, err := s.processor(method)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("Withdrawal via %s", method)
	txn, err := s.holdWithdrawal(ctx, userID, amount, method, reference)
	if err != nil {
		return nil, err
	}

	result, railErr := processor.ProcessWithdrawal(ctx, interfaces.PaymentRequest{
		Amount:         amount,
		DestinationRef: destinationRef,
		Reference:      reference,
	})
	if railErr == nil && result.Success {
		if err := s.finalizeWithdrawal(ctx, txn, result.ExternalID); err != nil {
			return nil, err
		}
		txn.Status = entities.TransactionStatusCompleted
		txn.ExternalID = &result.ExternalID
		return txn, nil
	}

	reason := "withdrawal declined"
	if railErr != nil {
		reason = railErr.Error()
	} else if result.Reason != "" {
		reason = result.Reason
	}
	log.WithFields(log.Fields{
		"userID": userID,
		"method": method,
		"reason": reason,
	}).Warn("Withdrawal failed, refunding hold")

	if err := s.refundWithdrawal(ctx, txn); err != nil {
		// The hold could not be returned; the pending ledger entry still
		// accounts for the funds and a retry of the refund is safe.
		return nil, fmt.Errorf("failed to refund withdrawal hold for transaction %d: %w", txn.ID, err)
	}
	txn.Status = entities.TransactionStatusFailed
	return nil, domain.NewExternalServiceError(string(method), reason, railErr)
}

// holdWithdrawal debits the wallet and records a pending withdrawal entry.
func (s *FundingService) holdWithdrawal(ctx context.Context, userID, amount int64, method entities.PaymentMethod, reference string) (*entities.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, domain.ErrNotFound)
	}
	if !wallet.CanAfford(amount) {
		return nil, fmt.Errorf("wallet for user %d has %d, needs %d: %w",
			userID, wallet.Balance, amount, domain.ErrInsufficientFunds)
	}
	if err := uow.WalletRepository().ApplyDelta(ctx, wallet.ID, -amount, 0); err != nil {
		return nil, err
	}

	txn := &entities.Transaction{
		UserID:        userID,
		WalletID:      wallet.ID,
		Amount:        -amount,
		Type:          entities.TransactionTypeWithdrawal,
		Status:        entities.TransactionStatusPending,
		PaymentMethod: method,
		Reference:     reference,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return txn, nil
}

// finalizeWithdrawal marks the pending entry completed with its external ID.
func (s *FundingService) finalizeWithdrawal(ctx context.Context, txn *entities.Transaction, externalID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TransactionRepository().UpdateStatus(ctx, txn.ID, entities.TransactionStatusCompleted, &externalID); err != nil {
		return err
	}

	if err := uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          txn.UserID,
		WalletID:        txn.WalletID,
		TransactionType: entities.TransactionTypeWithdrawal,
		ChangeAmount:    txn.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return uow.Commit()
}

// refundWithdrawal returns the held funds and marks the entry failed.
func (s *FundingService) refundWithdrawal(ctx context.Context, txn *entities.Transaction) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	if err := uow.WalletRepository().ApplyDelta(ctx, txn.WalletID, -txn.Amount, 0); err != nil {
		return err
	}
	if err := uow.TransactionRepository().UpdateStatus(ctx, txn.ID, entities.TransactionStatusFailed, nil); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *FundingService) processor(method entities.PaymentMethod) (interfaces.PaymentProcessor, error) {
	processor, ok := s.processors[method]
	if !ok {
		return nil, fmt.Errorf("no payment processor for method %q: %w", method, domain.ErrInvalidState)
	}
	return processor, nil
}
