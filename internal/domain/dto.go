package domain

type TransactionKind string

const (
	TransactionKindBought  TransactionKind = "BOUGHT"
	TransactionKindSold    TransactionKind = "SOLD"
	TransactionKindDeposit TransactionKind = "DEPOSIT"
)
