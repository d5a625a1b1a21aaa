package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, created_at, user_id, operation_id, kind::text, symbol, shares, share_price, amount`

type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create дописывает запись в журнал. Повтор operation_id возвращает domain.ErrDuplicateKey.
func (r *TransactionRepository) Create(
	ctx context.Context,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	var symbol *string
	if transaction.Symbol != "" {
		symbol = &transaction.Symbol
	}

	row := r.conn.QueryRow(ctx,
		`INSERT INTO transactions (user_id, operation_id, kind, symbol, shares, share_price, amount)
		VALUES ($1, $2, $3::transaction_kind, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		transaction.UserID,
		transaction.OperationID,
		string(transaction.Kind),
		symbol,
		transaction.Shares,
		transaction.SharePrice,
		transaction.Amount,
	)
	dbTrans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating transaction %s", transaction.OperationID)
	}
	return dbTrans, nil
}

func (r *TransactionRepository) FindByOperationID(ctx context.Context, operationID uuid.UUID) (*domain.Transaction, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE operation_id = $1`, operationID)
	dbTrans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by operation id %s", operationID)
	}
	return dbTrans, nil
}

// GetByUserID возвращает журнал юзера в порядке записи.
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, convertErr(err, "getting transactions by userID %d", userID)
	}
	defer rows.Close()

	var transactions = make([]domain.Transaction, 0)
	for rows.Next() {
		t, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transaction of user %d", userID)
		}
		transactions = append(transactions, *t)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting transactions by userID %d", userID)
	}
	return transactions, nil
}

// SumShares возвращает чистое количество акций symbol у юзера. Если операций по тикеру не было, вернется 0.
func (r *TransactionRepository) SumShares(ctx context.Context, userID int64, symbol string) (int64, error) {
	var shares int64
	err := r.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(shares), 0)::BIGINT FROM transactions WHERE user_id = $1 AND symbol = $2`,
		userID, symbol,
	).Scan(&shares)
	if err != nil {
		return 0, convertErr(err, "summing shares of %s for user %d", symbol, userID)
	}
	return shares, nil
}

// GetPositions агрегирует журнал по тикерам. Тикеры с нулевым итогом не возвращаются. Результат отсортирован
// по тикеру.
func (r *TransactionRepository) GetPositions(ctx context.Context, userID int64) ([]domain.Position, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT symbol, SUM(shares)::BIGINT
		FROM transactions
		WHERE user_id = $1 AND symbol IS NOT NULL
		GROUP BY symbol
		HAVING SUM(shares) <> 0
		ORDER BY symbol`,
		userID,
	)
	if err != nil {
		return nil, convertErr(err, "getting positions of user %d", userID)
	}
	defer rows.Close()

	var positions = make([]domain.Position, 0)
	for rows.Next() {
		var p domain.Position
		if scanErr := rows.Scan(&p.Symbol, &p.Shares); scanErr != nil {
			return nil, convertErr(scanErr, "scanning position of user %d", userID)
		}
		positions = append(positions, p)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting positions of user %d", userID)
	}
	return positions, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		kind   string
		symbol *string
	)
	if err := row.Scan(
		&t.ID,
		&t.CreatedAt,
		&t.UserID,
		&t.OperationID,
		&kind,
		&symbol,
		&t.Shares,
		&t.SharePrice,
		&t.Amount,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	t.Kind = domain.TransactionKind(kind)
	if symbol != nil {
		t.Symbol = *symbol
	}
	return &t, nil
}
