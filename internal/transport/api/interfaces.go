package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
	ChangePassword(ctx context.Context, userID int64, args service.ChangePasswordArgs) error
}

type TradingServicer interface {
	Buy(ctx context.Context, userID int64, args service.TradeArgs) (*domain.Receipt, error)
	Sell(ctx context.Context, userID int64, args service.TradeArgs) (*domain.Receipt, error)
	Deposit(ctx context.Context, userID int64, args service.DepositArgs) (*domain.Receipt, error)
	GetPortfolio(ctx context.Context, userID int64) (*domain.Portfolio, error)
	GetHistory(ctx context.Context, userID int64) ([]domain.Transaction, error)
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
}
