package api

import (
	"fmt"
	"time"

	"github.com/fsdevblog/groph-trader/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultServiceTimeout покрывает запрос котировки и коммит сделки.
const DefaultServiceTimeout = 10 * time.Second

const (
	RouteGroup     = "/api"
	RegisterRoute  = "/user/register"
	LoginRoute     = "/user/login"
	PasswordRoute  = "/user/password"
	QuoteRoute     = "/quote/:symbol"
	PortfolioRoute = "/portfolio"
	HistoryRoute   = "/history"
	BuyRoute       = "/trades/buy"
	SellRoute      = "/trades/sell"
	DepositRoute   = "/balance/deposit"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	UserService    UserServicer
	TradingService TradingServicer
	JWTSecretKey   []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors(), middlewares.NoCache())

	authHandler := NewAuthHandler(args.UserService)
	tradesHandler := NewTradesHandler(args.TradingService)
	portfolioHandler := NewPortfolioHandler(args.TradingService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.POST(PasswordRoute, authHandler.ChangePassword)

	api.GET(QuoteRoute, portfolioHandler.Quote)
	api.GET(PortfolioRoute, portfolioHandler.Index)
	api.GET(HistoryRoute, portfolioHandler.History)

	api.POST(BuyRoute, tradesHandler.Buy)
	api.POST(SellRoute, tradesHandler.Sell)
	api.POST(DepositRoute, tradesHandler.Deposit)
	return r, nil
}
