package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string
	Password  string
	Cash      decimal.Decimal
}

// Transaction запись журнала операций. Журнал только дописывается, записи никогда не изменяются.
type Transaction struct {
	ID          int64
	CreatedAt   time.Time
	UserID      int64
	OperationID uuid.UUID
	Kind        TransactionKind
	// Symbol пустой для пополнений.
	Symbol string
	// Shares положительное для покупок, отрицательное для продаж, 0 для пополнений.
	Shares     int64
	SharePrice decimal.NullDecimal
	// Amount изменение баланса, которое внесла операция (со знаком).
	Amount decimal.Decimal
}

// Position чистое количество акций пользователя по тикеру. Не хранится, а вычисляется по журналу.
type Position struct {
	Symbol string
	Shares int64
}

type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

type Holding struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Total  decimal.Decimal
}

type Portfolio struct {
	Cash       decimal.Decimal
	Holdings   []Holding
	GrandTotal decimal.Decimal
}

// Receipt результат успешно закоммиченной торговой операции.
type Receipt struct {
	Transaction Transaction
	Cash        decimal.Decimal
}
