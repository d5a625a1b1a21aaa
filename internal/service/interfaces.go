package service

import (
	"context"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, encryptedPassword string) error
	GetCash(ctx context.Context, userID int64) (decimal.Decimal, error)
	LockCash(ctx context.Context, userID int64) (decimal.Decimal, error)
	AddCash(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction repoargs.TransactionCreate) (*domain.Transaction, error)
	FindByOperationID(ctx context.Context, operationID uuid.UUID) (*domain.Transaction, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error)
	SumShares(ctx context.Context, userID int64, symbol string) (int64, error)
	GetPositions(ctx context.Context, userID int64) ([]domain.Position, error)
}

type QuoteGateway interface {
	Lookup(ctx context.Context, symbol string) (*domain.Quote, error)
	LookupMany(ctx context.Context, symbols []string) (map[string]domain.Quote, error)
}
