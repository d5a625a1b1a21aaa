// Package quotes получает котировки акций из внешнего сервиса.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/transport/quotes/client"
	"github.com/sirupsen/logrus"
)

const (
	defaultLookupTimeout      = 3 * time.Second
	defaultCacheTimeout       = 200 * time.Millisecond
	defaultLookupWorkers uint = 5
)

// Gateway отдает котировки по тикеру. Каждый запрос к внешнему сервису ограничен по времени, ошибки сводятся к
// domain.ErrInvalidSymbol (тикер неизвестен) и domain.ErrQuoteUnavailable (все остальное).
type Gateway struct {
	client  Client
	cache   Cache
	l       *logrus.Entry
	timeout time.Duration
	workers uint
}

func New(c Client, l *logrus.Logger) *Gateway {
	return &Gateway{
		client: c,
		l: l.WithFields(logrus.Fields{
			"component": "quotes",
			"module":    "gateway",
		}),
		timeout: defaultLookupTimeout,
		workers: defaultLookupWorkers,
	}
}

// SetCache включает кеширование котировок.
func (g *Gateway) SetCache(cache Cache) *Gateway {
	g.cache = cache
	return g
}

// SetTimeout устанавливает максимальное время одного запроса котировки (включая ожидание Retry-After).
func (g *Gateway) SetTimeout(timeout time.Duration) *Gateway {
	g.timeout = timeout
	return g
}

// SetWorkers устанавливает кол-во параллельных запросов в LookupMany.
func (g *Gateway) SetWorkers(workers uint) *Gateway {
	if workers > 0 {
		g.workers = workers
	}
	return g
}

// Lookup возвращает текущую котировку тикера symbol.
func (g *Gateway) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	sym, symErr := domain.NormalizeSymbol(symbol)
	if symErr != nil {
		return nil, symErr //nolint:wrapcheck
	}

	if quote := g.fromCache(ctx, sym); quote != nil {
		return quote, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.request(reqCtx, sym)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", sym, domain.ErrInvalidSymbol)
		}
		g.l.WithError(err).WithField("symbol", sym).Warn("quote lookup failed")
		return nil, fmt.Errorf("lookup %s: %w: %s", sym, domain.ErrQuoteUnavailable, err.Error())
	}

	quote := domain.Quote{
		Symbol: strings.ToUpper(resp.Symbol),
		Name:   resp.CompanyName,
		Price:  resp.LatestPrice,
	}
	g.toCache(ctx, quote)
	return &quote, nil
}

// request делает запрос к сервису, в случае ответа 429 ждет указанное в Retry-After время, если дедлайн
// контекста это позволяет.
func (g *Gateway) request(ctx context.Context, symbol string) (*client.Response, error) {
	for {
		resp, err := g.client.GetQuote(ctx, symbol)
		if err == nil {
			return resp, nil
		}

		var tooManyReq *client.TooManyRequestError
		if !errors.As(err, &tooManyReq) {
			return nil, err //nolint:wrapcheck
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < tooManyReq.RetryAfter {
			return nil, err //nolint:wrapcheck
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err() //nolint:wrapcheck
		case <-time.After(tooManyReq.RetryAfter):
		}
	}
}

func (g *Gateway) fromCache(ctx context.Context, symbol string) *domain.Quote {
	if g.cache == nil {
		return nil
	}
	cacheCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()

	quote, err := g.cache.Get(cacheCtx, symbol)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			g.l.WithError(err).WithField("symbol", symbol).Warn("quote cache read failed")
		}
		return nil
	}
	return quote
}

func (g *Gateway) toCache(ctx context.Context, quote domain.Quote) {
	if g.cache == nil {
		return
	}
	cacheCtx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()

	if err := g.cache.Set(cacheCtx, quote); err != nil {
		g.l.WithError(err).WithField("symbol", quote.Symbol).Warn("quote cache write failed")
	}
}

type lookupResult struct {
	index int
	quote *domain.Quote
	err   error
}

// LookupMany запрашивает котировки нескольких тикеров параллельно (fan-out/fan-in). Если хотя бы одна котировка
// не получена, возвращается ошибка первого такого тикера в порядке symbols.
func (g *Gateway) LookupMany(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if len(symbols) == 0 {
		return map[string]domain.Quote{}, nil
	}

	taskCh := make(chan int, len(symbols))
	for i := range symbols {
		taskCh <- i
	}
	close(taskCh)

	workers := min(g.workers, uint(len(symbols))) //nolint:gosec
	resultCh := make(chan lookupResult, len(symbols))

	wg := new(sync.WaitGroup)
	wg.Add(int(workers)) //nolint:gosec
	for range workers {
		go func() {
			defer wg.Done()
			for i := range taskCh {
				quote, err := g.Lookup(ctx, symbols[i])
				resultCh <- lookupResult{index: i, quote: quote, err: err}
			}
		}()
	}
	wg.Wait()
	close(resultCh)

	errs := make([]error, len(symbols))
	quotes := make(map[string]domain.Quote, len(symbols))
	for result := range resultCh {
		if result.err != nil {
			errs[result.index] = result.err
			continue
		}
		quotes[symbols[result.index]] = *result.quote
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return quotes, nil
}
