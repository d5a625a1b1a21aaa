package quotes

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes/client"
)

type Client interface {
	GetQuote(ctx context.Context, symbol string) (*client.Response, error)
}

type Cache interface {
	Get(ctx context.Context, symbol string) (*domain.Quote, error)
	Set(ctx context.Context, quote domain.Quote) error
}
