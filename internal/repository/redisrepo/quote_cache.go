package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "quote:"

type quotePayload struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// QuoteCache хранит последние котировки в Redis с ограниченным временем жизни.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает котировку из кеша или domain.ErrRecordNotFound, если ее нет или она устарела.
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	raw, err := c.client.Get(ctx, keyPrefix+symbol).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("[redis/quote %s] %w", symbol, domain.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("[redis/quote %s] %w: %s", symbol, domain.ErrUnknown, err.Error())
	}

	var payload quotePayload
	if jsonErr := json.Unmarshal(raw, &payload); jsonErr != nil {
		return nil, fmt.Errorf("[redis/quote %s] %w: %s", symbol, domain.ErrUnknown, jsonErr.Error())
	}
	return &domain.Quote{
		Symbol: payload.Symbol,
		Name:   payload.Name,
		Price:  payload.Price,
	}, nil
}

func (c *QuoteCache) Set(ctx context.Context, quote domain.Quote) error {
	raw, err := json.Marshal(quotePayload{
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Price:  quote.Price,
	})
	if err != nil {
		return fmt.Errorf("[redis/quote %s] encode: %s", quote.Symbol, err.Error())
	}
	if setErr := c.client.Set(ctx, keyPrefix+quote.Symbol, raw, c.ttl).Err(); setErr != nil {
		return fmt.Errorf("[redis/quote %s] %w: %s", quote.Symbol, domain.ErrUnknown, setErr.Error())
	}
	return nil
}

func (c *QuoteCache) Close() error {
	return c.client.Close() //nolint:wrapcheck
}
