package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TradesHandler struct {
	tradingService TradingServicer
}

func NewTradesHandler(tradingService TradingServicer) *TradesHandler {
	return &TradesHandler{tradingService: tradingService}
}

type TradeParams struct {
	Symbol string `binding:"required,max_bytes=10" json:"symbol"`
	Shares int64  `json:"shares"`
}

type DepositParams struct {
	Amount int64 `json:"amount"`
}

type TransactionResponse struct {
	OperationID uuid.UUID `json:"operation_id"`
	Kind        string    `json:"kind"`
	Symbol      string    `json:"symbol,omitempty"`
	Shares      int64     `json:"shares"`
	Price       *float64  `json:"price,omitempty"`
	PriceUSD    string    `json:"price_usd,omitempty"`
	Amount      float64   `json:"amount"`
	AmountUSD   string    `json:"amount_usd"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionResponse(t domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		OperationID: t.OperationID,
		Kind:        string(t.Kind),
		Symbol:      t.Symbol,
		Shares:      t.Shares,
		Amount:      t.Amount.InexactFloat64(),
		AmountUSD:   usd(t.Amount),
		CreatedAt:   t.CreatedAt,
	}
	if t.SharePrice.Valid {
		price := t.SharePrice.Decimal.InexactFloat64()
		resp.Price = &price
		resp.PriceUSD = usd(t.SharePrice.Decimal)
	}
	return resp
}

type ReceiptResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	// Cash баланс после операции. Для повторно присланной операции не заполняется.
	Cash     *float64 `json:"cash,omitempty"`
	CashUSD  string   `json:"cash_usd,omitempty"`
	Replayed bool     `json:"replayed"`
}

// Buy POST RouteGroup + BuyRoute. Покупка акций по текущей котировке.
func (h *TradesHandler) Buy(c *gin.Context) {
	h.trade(c, h.tradingService.Buy)
}

// Sell POST RouteGroup + SellRoute. Продажа акций по текущей котировке.
func (h *TradesHandler) Sell(c *gin.Context) {
	h.trade(c, h.tradingService.Sell)
}

type tradeFn func(ctx context.Context, userID int64, args service.TradeArgs) (*domain.Receipt, error)

func (h *TradesHandler) trade(c *gin.Context, fn tradeFn) {
	userID, opID, ok := tradeRequestMeta(c)
	if !ok {
		return
	}

	var params TradeParams
	if !bindJSON(c, &params) {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	receipt, err := fn(ctx, userID, service.TradeArgs{
		OperationID: opID,
		Symbol:      params.Symbol,
		Shares:      params.Shares,
	})
	respondReceipt(c, receipt, err)
}

// Deposit POST RouteGroup + DepositRoute. Пополнение баланса на целое кол-во долларов.
func (h *TradesHandler) Deposit(c *gin.Context) {
	userID, opID, ok := tradeRequestMeta(c)
	if !ok {
		return
	}

	var params DepositParams
	if !bindJSON(c, &params) {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	receipt, err := h.tradingService.Deposit(ctx, userID, service.DepositArgs{
		OperationID: opID,
		Amount:      decimal.NewFromInt(params.Amount),
	})
	respondReceipt(c, receipt, err)
}

func tradeRequestMeta(c *gin.Context) (int64, uuid.UUID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return 0, uuid.Nil, false
	}
	opID, opErr := operationIDFromHeader(c)
	if opErr != nil {
		_ = c.AbortWithError(http.StatusUnprocessableEntity, opErr).SetType(gin.ErrorTypePublic)
		return 0, uuid.Nil, false
	}
	return userID, opID, true
}

// respondReceipt повторно присланная операция отвечает 200 с исходной записью журнала, новая 201.
func respondReceipt(c *gin.Context, receipt *domain.Receipt, err error) {
	if err != nil {
		var dupErr *domain.DuplicateOperationError
		if errors.As(err, &dupErr) {
			c.JSON(http.StatusOK, ReceiptResponse{
				Transaction: newTransactionResponse(*dupErr.Transaction),
				Replayed:    true,
			})
			return
		}
		abortWithServiceError(c, err)
		return
	}

	cash := receipt.Cash.InexactFloat64()
	c.JSON(http.StatusCreated, ReceiptResponse{
		Transaction: newTransactionResponse(receipt.Transaction),
		Cash:        &cash,
		CashUSD:     usd(receipt.Cash),
	})
}
