package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/shopspring/decimal"
)

// PortfolioService вычисляет позиции и стоимость портфеля по журналу операций. Позиции нигде не хранятся,
// каждый вызов пересчитывает их заново.
type PortfolioService struct {
	uow    uow.UOW
	quotes QuoteGateway
}

func NewPortfolioService(u uow.UOW, quotes QuoteGateway) *PortfolioService {
	return &PortfolioService{
		uow:    u,
		quotes: quotes,
	}
}

// Positions возвращает ненулевые позиции юзера, отсортированные по тикеру.
func (p *PortfolioService) Positions(ctx context.Context, userID int64) ([]domain.Position, error) {
	var positions []domain.Position
	txErr := p.uow.DoReadOnly(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := transactionRepo(tx)
		if repoErr != nil {
			return repoErr
		}
		var err error
		positions, err = repo.GetPositions(c, userID)
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, readErr(fmt.Sprintf("positions of user %d", userID), txErr)
	}
	return positions, nil
}

// Owned возвращает кол-во акций symbol у юзера. Тикер должен быть нормализован.
func (p *PortfolioService) Owned(ctx context.Context, userID int64, symbol string) (int64, error) {
	var shares int64
	txErr := p.uow.DoReadOnly(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := transactionRepo(tx)
		if repoErr != nil {
			return repoErr
		}
		var err error
		shares, err = repo.SumShares(c, userID, symbol)
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		return 0, readErr(fmt.Sprintf("%s shares of user %d", symbol, userID), txErr)
	}
	return shares, nil
}

// Valuate оценивает портфель по текущим котировкам.
//
// Баланс и позиции читаются в одной read-only транзакции, котировки запрашиваются уже после нее. Если котировку
// хотя бы одного тикера получить не удалось, возвращается domain.ErrQuoteUnavailable (в том числе для тикера,
// который сервис котировок больше не знает), позиция не оценивается в ноль.
func (p *PortfolioService) Valuate(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	var (
		cash      decimal.Decimal
		positions []domain.Position
	)
	txErr := p.uow.DoReadOnly(ctx, func(c context.Context, tx uow.TX) error {
		users, usersErr := userRepo(tx)
		if usersErr != nil {
			return usersErr
		}
		transactions, transErr := transactionRepo(tx)
		if transErr != nil {
			return transErr
		}

		var err error
		if cash, err = users.GetCash(c, userID); err != nil {
			return err //nolint:wrapcheck
		}
		positions, err = transactions.GetPositions(c, userID)
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, readErr(fmt.Sprintf("portfolio of user %d", userID), txErr)
	}

	symbols := make([]string, len(positions))
	for i, position := range positions {
		symbols[i] = position.Symbol
	}

	quotes, quotesErr := p.quotes.LookupMany(ctx, symbols)
	if quotesErr != nil {
		// тикер из журнала, который сервис котировок больше не знает (делистинг), не ошибка клиента.
		if errors.Is(quotesErr, domain.ErrInvalidSymbol) {
			return nil, fmt.Errorf("valuating portfolio of user %d: %w: %s",
				userID, domain.ErrQuoteUnavailable, quotesErr.Error())
		}
		return nil, fmt.Errorf("valuating portfolio of user %d: %w", userID, quotesErr)
	}

	portfolio := domain.Portfolio{
		Cash:       cash,
		Holdings:   make([]domain.Holding, 0, len(positions)),
		GrandTotal: cash,
	}
	for _, position := range positions {
		quote, ok := quotes[position.Symbol]
		if !ok {
			return nil, fmt.Errorf("valuating portfolio of user %d: %s: %w",
				userID, position.Symbol, domain.ErrQuoteUnavailable)
		}
		total := quote.Price.Mul(decimal.NewFromInt(position.Shares))
		portfolio.Holdings = append(portfolio.Holdings, domain.Holding{
			Symbol: position.Symbol,
			Name:   quote.Name,
			Shares: position.Shares,
			Price:  quote.Price,
			Total:  total,
		})
		portfolio.GrandTotal = portfolio.GrandTotal.Add(total)
	}
	return &portfolio, nil
}

// History возвращает журнал операций юзера в порядке записи.
func (p *PortfolioService) History(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	var history []domain.Transaction
	txErr := p.uow.DoReadOnly(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := transactionRepo(tx)
		if repoErr != nil {
			return repoErr
		}
		var err error
		history, err = repo.GetByUserID(c, userID)
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, readErr(fmt.Sprintf("history of user %d", userID), txErr)
	}
	return history, nil
}

// readErr оборачивает ошибку чтения в domain.StoreError. domain.ErrRecordNotFound возвращается как есть.
func readErr(what string, err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("reading %s: %w", what, err)
	}
	return domain.NewStoreError(fmt.Errorf("reading %s: %w", what, err), false)
}
