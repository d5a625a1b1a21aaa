package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Rhymond/go-money"
	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const IdempotencyKeyHeader = "Idempotency-Key"

var (
	errNoCurrentUser      = errors.New("current user id not found in context")
	errInvalidIdempotency = fmt.Errorf("%w: %s header must be a uuid", domain.ErrInvalidInput, IdempotencyKeyHeader)
	errOutcomeUnknown     = errors.New("operation outcome unknown, check history before retrying")
)

// publicInputErrors ошибки валидации, текст которых можно отдать клиенту.
var publicInputErrors = []error{
	domain.ErrInvalidShareCount,
	domain.ErrInvalidAmount,
	domain.ErrInvalidSymbolFormat,
	domain.ErrInvalidCredentials,
	domain.ErrPasswordConfirm,
	domain.ErrOperationIDConflict,
	domain.ErrCashLimit,
}

func getUserIDFromContext(c *gin.Context) (int64, error) {
	userID, ok := c.Get(middlewares.CurrentUserIDKey)
	if !ok {
		return 0, errNoCurrentUser
	}
	id, ok := userID.(int64)
	if !ok {
		return 0, errNoCurrentUser
	}
	return id, nil
}

// operationIDFromHeader читает необязательный ключ идемпотентности. Если заголовок не передан, возвращается uuid.Nil.
func operationIDFromHeader(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader(IdempotencyKeyHeader)
	if header == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(header)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errInvalidIdempotency
	}
	return id, nil
}

// bindJSON разбирает тело запроса. Ошибки валидации тегов и несоответствие типов (дробное кол-во акций и т.п.)
// дают 422, остальные ошибки разбора 400. Возвращает false, если запрос уже прерван.
func bindJSON(c *gin.Context, params any) bool {
	bindErr := c.ShouldBindJSON(params)
	if bindErr == nil {
		return true
	}

	var valErrs validator.ValidationErrors
	if errors.As(bindErr, &valErrs) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
		return false
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(bindErr, &typeErr) {
		_ = c.AbortWithError(
			http.StatusUnprocessableEntity,
			fmt.Errorf("%w: field %s has wrong type", domain.ErrInvalidInput, typeErr.Field),
		).SetType(gin.ErrorTypePublic)
		return false
	}
	_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
	return false
}

// abortWithServiceError переводит ошибку сервиса в код ответа. Клиенту уходит только текст доменной ошибки,
// полная цепочка пишется в лог как приватная.
func abortWithServiceError(c *gin.Context, err error) {
	status, public := serviceErrorStatus(err)
	if public == nil {
		_ = c.AbortWithError(status, err).SetType(gin.ErrorTypePrivate)
		return
	}
	_ = c.AbortWithError(status, public).SetType(gin.ErrorTypePublic)
	_ = c.Error(err).SetType(gin.ErrorTypePrivate)
}

func serviceErrorStatus(err error) (int, error) {
	var storeErr *domain.StoreError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		for _, inputErr := range publicInputErrors {
			if errors.Is(err, inputErr) {
				return http.StatusUnprocessableEntity, inputErr
			}
		}
		return http.StatusUnprocessableEntity, domain.ErrInvalidInput
	case errors.Is(err, domain.ErrInvalidSymbol):
		return http.StatusNotFound, domain.ErrInvalidSymbol
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired, domain.ErrInsufficientFunds
	case errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusConflict, domain.ErrInsufficientShares
	case errors.Is(err, domain.ErrNotOwned):
		return http.StatusConflict, domain.ErrNotOwned
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return http.StatusServiceUnavailable, domain.ErrQuoteUnavailable
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, domain.ErrRecordNotFound
	case errors.As(err, &storeErr) && storeErr.OutcomeUnknown:
		return http.StatusInternalServerError, errOutcomeUnknown
	default:
		return http.StatusInternalServerError, nil
	}
}

// usd форматирует сумму в долларах: "$1,234.56", "-$10.00".
func usd(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	minor := amount.Shift(int32(cur.Fraction)).Round(0) //nolint:gosec
	return money.New(minor.IntPart(), money.USD).Display()
}
