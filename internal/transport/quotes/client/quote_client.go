package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"io"
	"net/http"
)

const RouteQuote = "/stock/%s/quote"

// Константы минимального и максимально значения в заголовке Retry-After.
const (
	minRetryAfter = 1
	maxRetryAfter = 120
)

type Response struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

// HTTPClient является реализацией интерфейса quotes.Client для HTTP запросов к сервису котировок.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) HTTPClient {
	return HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

// GetQuote получает текущую котировку по тикеру.
// Неизвестный тикер (http.StatusNotFound, пустой ответ или неположительная цена) возвращает ErrNotFound.
// При ответе сервера со статусом http.StatusTooManyRequests возвращает TooManyRequestError, при любом другом
// статусе отличном от http.StatusOK - StatusCodeError.
//
//nolint:nonamedreturns
func (c HTTPClient) GetQuote(
	ctx context.Context,
	symbol string,
) (response *Response, err error) {
	// Формируем URL запроса.
	reqURL := c.baseURL + fmt.Sprintf(RouteQuote, url.PathEscape(symbol))
	if c.apiKey != "" {
		reqURL += "?" + url.Values{"token": {c.apiKey}}.Encode()
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("do request: %w", doErr)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, NewTooManyRequestError(parseRetryAfter(resp.Header.Get("Retry-After")))
	default:
		return nil, NewStatusCodeError(resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		err = fmt.Errorf("read response: %w", readErr)
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrNotFound
	}

	if jsonErr := json.Unmarshal(body, &response); jsonErr != nil {
		err = fmt.Errorf("parse response: %s", jsonErr.Error())
		return nil, err
	}
	if response == nil || response.Symbol == "" || !response.LatestPrice.IsPositive() {
		return nil, ErrNotFound
	}

	return response, nil
}

// parseRetryAfter в случае ошибки или значения вне диапазона [minRetryAfter, maxRetryAfter] возвращает 60 секунд.
func parseRetryAfter(value string) time.Duration {
	minValue := decimal.NewFromInt(minRetryAfter)
	maxValue := decimal.NewFromInt(maxRetryAfter)

	retryAfter, parseErr := decimal.NewFromString(value)
	if parseErr != nil || retryAfter.LessThan(minValue) || retryAfter.GreaterThan(maxValue) {
		retryAfter = decimal.NewFromInt(60) //nolint:mnd
	}
	return time.Duration(retryAfter.IntPart()) * time.Second
}
