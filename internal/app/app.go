package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/groph-trader/internal/config"
	"github.com/fsdevblog/groph-trader/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-trader/internal/repository/redisrepo"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/internal/service"
	"github.com/fsdevblog/groph-trader/internal/service/psswd"
	"github.com/fsdevblog/groph-trader/internal/transport/api"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes/client"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"address":       a.Config.RunAddress,
		"quote_api":     a.Config.QuoteAPIAddress,
		"redis":         a.Config.RedisAddress,
		"starting_cash": a.Config.StartingCash.String(),
	}).Info("starting app")

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	gateway, closeGateway, gwErr := a.initQuoteGateway(notifyCtx)
	if gwErr != nil {
		return fmt.Errorf("app run: %s", gwErr.Error())
	}
	defer closeGateway()

	services, sErr := service.Factory(unitOfWork, service.FactoryArgs{
		JWTSecret:    []byte(a.Config.JWTUserSecret),
		Hasher:       psswd.New(bcrypt.DefaultCost),
		Quotes:       gateway,
		StartingCash: a.Config.StartingCash,
		Logger:       a.Logger,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:         a.Logger,
		UserService:    services.UserService,
		TradingService: services.TradingService,
		JWTSecretKey:   []byte(a.Config.JWTUserSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	srv := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}

	errChan := make(chan error, 1)
	go func() {
		if runErr := srv.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	select {
	case <-notifyCtx.Done():
		// даем текущим сделкам закоммититься.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.WithError(err).Error("http server shutdown")
		}
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

// initQuoteGateway собирает клиент котировок. Если задан адрес Redis, котировки кешируются на QuoteCacheTTL.
func (a *App) initQuoteGateway(ctx context.Context) (*quotes.Gateway, func(), error) {
	gateway := quotes.New(client.New(a.Config.QuoteAPIAddress, a.Config.QuoteAPIKey), a.Logger).
		SetTimeout(a.Config.QuoteTimeout)

	if a.Config.RedisAddress == "" {
		return gateway, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddress})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	cache := redisrepo.NewQuoteCache(rdb, a.Config.QuoteCacheTTL)
	gateway.SetCache(cache)

	return gateway, func() {
		if err := cache.Close(); err != nil {
			a.Logger.WithError(err).Warn("redis close")
		}
	}, nil
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// transaction log repo
	transactionRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.TransactionRepoName),
		transactionRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}
