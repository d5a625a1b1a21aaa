package service

import (
	"fmt"

	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	UserService      *UserService
	TradingService   *TradingService
	PortfolioService *PortfolioService
}

type FactoryArgs struct {
	JWTSecret    []byte
	Hasher       PasswordHasher
	Quotes       QuoteGateway
	StartingCash decimal.Decimal
	Logger       *logrus.Logger
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork, args.JWTSecret, args.Hasher, args.StartingCash)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	portfolioService := NewPortfolioService(unitOfWork, args.Quotes)

	tradingService, tradingServiceErr := NewTradingService(
		unitOfWork,
		NewLedger(),
		portfolioService,
		args.Quotes,
		args.Logger,
	)
	if tradingServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", tradingServiceErr.Error())
	}

	return &AppServices{
		UserService:      userService,
		TradingService:   tradingService,
		PortfolioService: portfolioService,
	}, nil
}
