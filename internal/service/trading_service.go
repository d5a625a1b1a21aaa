package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	cashPlaces  int32 = 2
	pricePlaces int32 = 4
)

// TradingService выполняет торговые операции. Каждая операция проходит шаги проверки входных данных,
// получения цены, проверки инвариантов и коммита. Все, что происходит до коммита, не меняет состояние.
// Запрос котировки никогда не выполняется внутри транзакции хранилища.
type TradingService struct {
	uow       uow.UOW
	ledger    *Ledger
	portfolio *PortfolioService
	quotes    QuoteGateway
	transRepo TransactionRepository
	l         *logrus.Entry
}

func NewTradingService(
	u uow.UOW,
	ledger *Ledger,
	portfolio *PortfolioService,
	quotes QuoteGateway,
	l *logrus.Logger,
) (*TradingService, error) {
	transRepo, err := uow.GetRepositoryAs[TransactionRepository](u, uow.RepositoryName(repoargs.TransactionRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &TradingService{
		uow:       u,
		ledger:    ledger,
		portfolio: portfolio,
		quotes:    quotes,
		transRepo: transRepo,
		l: l.WithFields(logrus.Fields{
			"component": "service",
			"module":    "trading",
		}),
	}, nil
}

// TradeArgs аргументы покупки и продажи. OperationID необязателен: если клиент его передал, повтор операции
// с тем же OperationID не коммитится второй раз, а возвращает *domain.DuplicateOperationError.
type TradeArgs struct {
	OperationID uuid.UUID
	Symbol      string
	Shares      int64
}

type DepositArgs struct {
	OperationID uuid.UUID
	Amount      decimal.Decimal
}

// Buy покупает args.Shares акций args.Symbol по текущей цене.
//
// Ошибки: domain.ErrInvalidInput, domain.ErrInvalidSymbol, domain.ErrQuoteUnavailable,
// domain.ErrInsufficientFunds, domain.ErrStoreFailure, *domain.DuplicateOperationError.
func (t *TradingService) Buy(ctx context.Context, userID int64, args TradeArgs) (*domain.Receipt, error) {
	symbol, symErr := domain.NormalizeSymbol(args.Symbol)
	if symErr != nil {
		return nil, symErr //nolint:wrapcheck
	}
	if err := domain.ValidateShares(args.Shares); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err := t.checkReplay(ctx, userID, args.OperationID); err != nil {
		return nil, err
	}

	// цена фиксируется здесь и больше не перезапрашивается.
	quote, quoteErr := t.quotes.Lookup(ctx, symbol)
	if quoteErr != nil {
		return nil, fmt.Errorf("buying %s: %w", symbol, quoteErr)
	}
	price := quote.Price.Round(pricePlaces)
	cost := price.Mul(decimal.NewFromInt(args.Shares)).Round(cashPlaces)

	return t.commit(ctx, userID, args.OperationID, func(c context.Context, tx uow.TX, opID uuid.UUID) (*domain.Receipt, error) {
		cash, debitErr := t.ledger.Debit(c, tx, userID, cost)
		if debitErr != nil {
			return nil, debitErr
		}
		trans, appendErr := t.ledger.Append(c, tx, repoargs.TransactionCreate{
			UserID:      userID,
			OperationID: opID,
			Kind:        domain.TransactionKindBought,
			Symbol:      symbol,
			Shares:      args.Shares,
			SharePrice:  decimal.NewNullDecimal(price),
			Amount:      cost.Neg(),
		})
		if appendErr != nil {
			return nil, appendErr
		}
		return &domain.Receipt{Transaction: *trans, Cash: cash}, nil
	})
}

// Sell продает args.Shares акций args.Symbol по текущей цене. Владение проверяется до запроса котировки и еще раз
// под блокировкой юзера перед коммитом.
//
// Ошибки: domain.ErrInvalidInput, domain.ErrNotOwned, domain.ErrInsufficientShares, domain.ErrInvalidSymbol,
// domain.ErrQuoteUnavailable, domain.ErrStoreFailure, *domain.DuplicateOperationError.
func (t *TradingService) Sell(ctx context.Context, userID int64, args TradeArgs) (*domain.Receipt, error) {
	symbol, symErr := domain.NormalizeSymbol(args.Symbol)
	if symErr != nil {
		return nil, symErr //nolint:wrapcheck
	}
	if err := domain.ValidateShares(args.Shares); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err := t.checkReplay(ctx, userID, args.OperationID); err != nil {
		return nil, err
	}

	owned, ownedErr := t.portfolio.Owned(ctx, userID, symbol)
	if ownedErr != nil {
		return nil, ownedErr
	}
	if err := checkOwnership(symbol, owned, args.Shares); err != nil {
		return nil, err
	}

	quote, quoteErr := t.quotes.Lookup(ctx, symbol)
	if quoteErr != nil {
		return nil, fmt.Errorf("selling %s: %w", symbol, quoteErr)
	}
	price := quote.Price.Round(pricePlaces)
	proceeds := price.Mul(decimal.NewFromInt(args.Shares)).Round(cashPlaces)

	return t.commit(ctx, userID, args.OperationID, func(c context.Context, tx uow.TX, opID uuid.UUID) (*domain.Receipt, error) {
		if _, lockErr := t.ledger.Lock(c, tx, userID); lockErr != nil {
			return nil, lockErr
		}
		// между проверкой выше и блокировкой могла пройти другая продажа.
		lockedOwned, holdingErr := t.ledger.Holding(c, tx, userID, symbol)
		if holdingErr != nil {
			return nil, holdingErr
		}
		if err := checkOwnership(symbol, lockedOwned, args.Shares); err != nil {
			return nil, err
		}

		cash, creditErr := t.ledger.Credit(c, tx, userID, proceeds)
		if creditErr != nil {
			return nil, creditErr
		}
		trans, appendErr := t.ledger.Append(c, tx, repoargs.TransactionCreate{
			UserID:      userID,
			OperationID: opID,
			Kind:        domain.TransactionKindSold,
			Symbol:      symbol,
			Shares:      -args.Shares,
			SharePrice:  decimal.NewNullDecimal(price),
			Amount:      proceeds,
		})
		if appendErr != nil {
			return nil, appendErr
		}
		return &domain.Receipt{Transaction: *trans, Cash: cash}, nil
	})
}

// Deposit зачисляет args.Amount на баланс. Сумма должна быть строго положительной.
func (t *TradingService) Deposit(ctx context.Context, userID int64, args DepositArgs) (*domain.Receipt, error) {
	if err := domain.ValidateAmount(args.Amount); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err := t.checkReplay(ctx, userID, args.OperationID); err != nil {
		return nil, err
	}

	return t.commit(ctx, userID, args.OperationID, func(c context.Context, tx uow.TX, opID uuid.UUID) (*domain.Receipt, error) {
		if _, lockErr := t.ledger.Lock(c, tx, userID); lockErr != nil {
			return nil, lockErr
		}
		cash, creditErr := t.ledger.Credit(c, tx, userID, args.Amount)
		if creditErr != nil {
			return nil, creditErr
		}
		trans, appendErr := t.ledger.Append(c, tx, repoargs.TransactionCreate{
			UserID:      userID,
			OperationID: opID,
			Kind:        domain.TransactionKindDeposit,
			Amount:      args.Amount,
		})
		if appendErr != nil {
			return nil, appendErr
		}
		return &domain.Receipt{Transaction: *trans, Cash: cash}, nil
	})
}

func (t *TradingService) GetPortfolio(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	return t.portfolio.Valuate(ctx, userID)
}

func (t *TradingService) GetHistory(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return t.portfolio.History(ctx, userID)
}

// Quote возвращает текущую котировку тикера.
func (t *TradingService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return t.quotes.Lookup(ctx, symbol) //nolint:wrapcheck
}

type commitFn func(ctx context.Context, tx uow.TX, operationID uuid.UUID) (*domain.Receipt, error)

// commit выполняет fn в транзакции на запись и приводит ошибки к доменным. Ошибки коммита не повторяются
// автоматически: если результат коммита неизвестен, возвращается domain.StoreError с OutcomeUnknown.
func (t *TradingService) commit(
	ctx context.Context,
	userID int64,
	operationID uuid.UUID,
	fn commitFn,
) (*domain.Receipt, error) {
	if operationID == uuid.Nil {
		operationID = uuid.New()
	}

	var receipt *domain.Receipt
	txErr := t.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var err error
		receipt, err = fn(c, tx, operationID)
		return err
	})
	if txErr == nil {
		return receipt, nil
	}

	switch {
	case errors.Is(txErr, domain.ErrInvalidInput),
		errors.Is(txErr, domain.ErrInsufficientFunds),
		errors.Is(txErr, domain.ErrInsufficientShares),
		errors.Is(txErr, domain.ErrNotOwned):
		return nil, txErr
	case errors.Is(txErr, domain.ErrDuplicateKey):
		// конкурентный повтор той же операции успел закоммититься раньше.
		if replayErr := t.checkReplay(ctx, userID, operationID); replayErr != nil {
			return nil, replayErr
		}
		return nil, domain.NewStoreError(txErr, false)
	case errors.Is(txErr, uow.ErrCommitOutcomeUnknown):
		t.l.WithError(txErr).WithFields(logrus.Fields{
			"user_id":      userID,
			"operation_id": operationID,
		}).Error("commit outcome unknown")
		return nil, domain.NewStoreError(txErr, true)
	default:
		t.l.WithError(txErr).WithFields(logrus.Fields{
			"user_id":      userID,
			"operation_id": operationID,
		}).Error("commit failed")
		return nil, domain.NewStoreError(txErr, false)
	}
}

// checkReplay проверяет, не была ли операция с operationID уже закоммичена. Для уже записанной операции этого
// юзера возвращает *domain.DuplicateOperationError, для чужой - domain.ErrOperationIDConflict.
func (t *TradingService) checkReplay(ctx context.Context, userID int64, operationID uuid.UUID) error {
	if operationID == uuid.Nil {
		return nil
	}
	trans, err := t.transRepo.FindByOperationID(ctx, operationID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return domain.NewStoreError(fmt.Errorf("finding operation %s: %w", operationID, err), false)
	}
	if trans.UserID != userID {
		return domain.ErrOperationIDConflict
	}
	return domain.NewDuplicateOperationError(trans)
}

func checkOwnership(symbol string, owned, shares int64) error {
	if owned <= 0 {
		return fmt.Errorf("%s: %w", symbol, domain.ErrNotOwned)
	}
	if owned < shares {
		return fmt.Errorf("selling %d of %d %s: %w", shares, owned, symbol, domain.ErrInsufficientShares)
	}
	return nil
}
