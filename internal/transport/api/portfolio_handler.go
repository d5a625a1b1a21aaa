package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	tradingService TradingServicer
}

func NewPortfolioHandler(tradingService TradingServicer) *PortfolioHandler {
	return &PortfolioHandler{tradingService: tradingService}
}

type HoldingResponse struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Shares   int64   `json:"shares"`
	Price    float64 `json:"price"`
	PriceUSD string  `json:"price_usd"`
	Total    float64 `json:"total"`
	TotalUSD string  `json:"total_usd"`
}

type PortfolioResponse struct {
	Cash          float64           `json:"cash"`
	CashUSD       string            `json:"cash_usd"`
	Holdings      []HoldingResponse `json:"holdings"`
	GrandTotal    float64           `json:"grand_total"`
	GrandTotalUSD string            `json:"grand_total_usd"`
}

func newPortfolioResponse(p *domain.Portfolio) PortfolioResponse {
	holdings := make([]HoldingResponse, len(p.Holdings))
	for i, h := range p.Holdings {
		holdings[i] = HoldingResponse{
			Symbol:   h.Symbol,
			Name:     h.Name,
			Shares:   h.Shares,
			Price:    h.Price.InexactFloat64(),
			PriceUSD: usd(h.Price),
			Total:    h.Total.InexactFloat64(),
			TotalUSD: usd(h.Total),
		}
	}
	return PortfolioResponse{
		Cash:          p.Cash.InexactFloat64(),
		CashUSD:       usd(p.Cash),
		Holdings:      holdings,
		GrandTotal:    p.GrandTotal.InexactFloat64(),
		GrandTotalUSD: usd(p.GrandTotal),
	}
}

type QuoteResponse struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	PriceUSD string  `json:"price_usd"`
}

// Index GET RouteGroup + PortfolioRoute. Позиции пользователя по текущим котировкам.
func (h *PortfolioHandler) Index(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	portfolio, pErr := h.tradingService.GetPortfolio(ctx, userID)
	if pErr != nil {
		abortWithServiceError(c, pErr)
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(portfolio))
}

// History GET RouteGroup + HistoryRoute. Журнал операций, от старых к новым.
func (h *PortfolioHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	history, hErr := h.tradingService.GetHistory(ctx, userID)
	if hErr != nil {
		abortWithServiceError(c, hErr)
		return
	}

	if len(history) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	resp := make([]TransactionResponse, len(history))
	for i, t := range history {
		resp[i] = newTransactionResponse(t)
	}
	c.JSON(http.StatusOK, resp)
}

// Quote GET RouteGroup + QuoteRoute. Текущая котировка тикера.
func (h *PortfolioHandler) Quote(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	quote, err := h.tradingService.Quote(ctx, c.Param("symbol"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuoteResponse{
		Symbol:   quote.Symbol,
		Name:     quote.Name,
		Price:    quote.Price.InexactFloat64(),
		PriceUSD: usd(quote.Price),
	})
}
