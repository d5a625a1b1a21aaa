package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/shopspring/decimal"
)

// Ledger изменяет баланс юзера и дописывает журнал операций. Все методы работают внутри транзакции
// unit of work и не проверяют входные данные: это делает вызывающая сторона до начала транзакции.
// Изменение баланса и запись в журнал коммитятся вместе или не коммитятся вовсе.
type Ledger struct{}

func NewLedger() *Ledger {
	return new(Ledger)
}

// Lock блокирует строку юзера до конца транзакции и возвращает текущий баланс. Повторный вызов в той же
// транзакции не блокирует.
func (l *Ledger) Lock(ctx context.Context, tx uow.TX, userID int64) (decimal.Decimal, error) {
	users, err := userRepo(tx)
	if err != nil {
		return decimal.Zero, err
	}
	return users.LockCash(ctx, userID) //nolint:wrapcheck
}

// Holding возвращает кол-во акций symbol у юзера, посчитанное по журналу внутри транзакции.
func (l *Ledger) Holding(ctx context.Context, tx uow.TX, userID int64, symbol string) (int64, error) {
	transactions, err := transactionRepo(tx)
	if err != nil {
		return 0, err
	}
	return transactions.SumShares(ctx, userID, symbol) //nolint:wrapcheck
}

// Debit списывает amount с баланса. Если amount больше баланса, возвращает domain.ErrInsufficientFunds,
// списание всей суммы баланса допустимо. Возвращает новый баланс.
func (l *Ledger) Debit(ctx context.Context, tx uow.TX, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	cash, lockErr := l.Lock(ctx, tx, userID)
	if lockErr != nil {
		return decimal.Zero, lockErr
	}
	if amount.GreaterThan(cash) {
		return decimal.Zero, fmt.Errorf("debit %s of %s: %w", amount.StringFixed(2), cash.StringFixed(2),
			domain.ErrInsufficientFunds)
	}

	users, err := userRepo(tx)
	if err != nil {
		return decimal.Zero, err
	}
	return users.AddCash(ctx, userID, amount.Neg()) //nolint:wrapcheck
}

// Credit зачисляет amount на баланс и возвращает новый баланс. Если баланс превысил бы domain.MaxCash,
// возвращает domain.ErrCashLimit.
func (l *Ledger) Credit(ctx context.Context, tx uow.TX, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	cash, lockErr := l.Lock(ctx, tx, userID)
	if lockErr != nil {
		return decimal.Zero, lockErr
	}
	if cash.Add(amount).GreaterThan(domain.MaxCash) {
		return decimal.Zero, fmt.Errorf("credit %s to %s: %w", amount.StringFixed(2), cash.StringFixed(2),
			domain.ErrCashLimit)
	}

	users, err := userRepo(tx)
	if err != nil {
		return decimal.Zero, err
	}
	return users.AddCash(ctx, userID, amount) //nolint:wrapcheck
}

// Append дописывает запись в журнал.
func (l *Ledger) Append(
	ctx context.Context,
	tx uow.TX,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	transactions, err := transactionRepo(tx)
	if err != nil {
		return nil, err
	}
	return transactions.Create(ctx, transaction) //nolint:wrapcheck
}

func userRepo(tx uow.TX) (UserRepository, error) {
	return uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName)) //nolint:wrapcheck
}

func transactionRepo(tx uow.TX) (TransactionRepository, error) {
	return uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName)) //nolint:wrapcheck
}
