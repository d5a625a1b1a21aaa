package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, created_at, updated_at, username, encrypted_password, cash`

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// CreateUser создает юзера в базе данных. В случае конфликта юзернейма возвращает ошибку domain.ErrDuplicateKey,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error) {
	row := u.conn.QueryRow(ctx,
		`INSERT INTO users (username, encrypted_password, cash) VALUES ($1, $2, $3) RETURNING `+userColumns,
		user.Username, user.Password, user.Cash,
	)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user")
	}
	return dbUser, nil
}

// FindUserByUsername ищет юзера по его юзернейму. Возвращает ошибку domain.ErrRecordNotFound если запись не найдена,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by username %s", username)
	}
	return dbUser, nil
}

func (u *UserRepository) UpdatePassword(ctx context.Context, userID int64, encryptedPassword string) error {
	var id int64
	err := u.conn.QueryRow(ctx,
		`UPDATE users SET encrypted_password = $2, updated_at = now() WHERE id = $1 RETURNING id`,
		userID, encryptedPassword,
	).Scan(&id)
	if err != nil {
		return convertErr(err, "updating password for user %d", userID)
	}
	return nil
}

func (u *UserRepository) GetCash(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	if err := u.conn.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1`, userID).Scan(&cash); err != nil {
		return decimal.Zero, convertErr(err, "getting cash for user %d", userID)
	}
	return cash, nil
}

// LockCash возвращает баланс и блокирует строку юзера до конца транзакции. Все изменяющие операции одного юзера
// проходят через эту блокировку и поэтому выполняются строго последовательно.
func (u *UserRepository) LockCash(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	if err := u.conn.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&cash); err != nil {
		return decimal.Zero, convertErr(err, "locking cash for user %d", userID)
	}
	return cash, nil
}

// AddCash прибавляет delta (может быть отрицательной) к балансу и возвращает новый баланс. Отрицательный
// результат отклоняется ограничением users_cash_non_negative.
func (u *UserRepository) AddCash(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := u.conn.QueryRow(ctx,
		`UPDATE users SET cash = cash + $2, updated_at = now() WHERE id = $1 RETURNING cash`,
		userID, delta,
	).Scan(&cash)
	if err != nil {
		return decimal.Zero, convertErr(err, "adding %s to cash of user %d", delta.String(), userID)
	}
	return cash, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Username,
		&user.Password,
		&user.Cash,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &user, nil
}
