package repoargs

import (
	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionCreate struct {
	UserID      int64
	OperationID uuid.UUID
	Kind        domain.TransactionKind
	Symbol      string
	Shares      int64
	SharePrice  decimal.NullDecimal
	Amount      decimal.Decimal
}
