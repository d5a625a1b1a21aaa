package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepositoryName string
type Repository any
type RepositoryFactory func(DBTX) Repository

var (
	// writeTxOptions используется для операций изменения состояния. Сериализация конкурирующих операций одного
	// пользователя обеспечивается блокировкой строки (SELECT ... FOR UPDATE) внутри fn.
	writeTxOptions = pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}
	// readTxOptions дает согласованный снимок для нескольких чтений подряд.
	readTxOptions = pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}
)

type UnitOfWork struct {
	conn         *pgxpool.Pool
	repositories map[RepositoryName]RepositoryFactory
}

func NewUnitOfWork(conn *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		conn:         conn,
		repositories: make(map[RepositoryName]RepositoryFactory),
	}
}

// Register регистрирует репозиторий у себя в мапе. Если репозиторий уже зарегистрирован, возвращает
// ошибку ErrRepositoryAlreadyRegistered.
func (u *UnitOfWork) Register(name RepositoryName, factory RepositoryFactory) error {
	if _, ok := u.repositories[name]; ok {
		return ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory
	return nil
}

// Do выполняет функцию fn внутри транзакции на запись. Если fn вернула ошибку, транзакция откатывается и
// ошибка возвращается как есть. Если не удалось подтвердить коммит, возвращается ошибка, оборачивающая
// ErrCommitOutcomeUnknown, или ErrCommitRolledBack если сервер явно откатил транзакцию.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, TX) error) error {
	return u.run(ctx, writeTxOptions, fn)
}

// DoReadOnly выполняет fn внутри read-only транзакции с уровнем изоляции repeatable read.
func (u *UnitOfWork) DoReadOnly(ctx context.Context, fn func(context.Context, TX) error) error {
	return u.run(ctx, readTxOptions, fn)
}

func (u *UnitOfWork) run(ctx context.Context, opts pgx.TxOptions, fn func(context.Context, TX) error) (err error) {
	tx, txErr := u.conn.BeginTx(ctx, opts)
	if txErr != nil {
		return fmt.Errorf("%w: %s", ErrBeginTx, txErr.Error())
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			if err == nil {
				err = rollbackErr
			} else {
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	if transErr := fn(ctx, NewTransaction(tx, u.repositories)); transErr != nil {
		return transErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return classifyCommitErr(commitErr)
	}
	return nil
}

// classifyCommitErr отделяет явный откат транзакции сервером от ситуации, когда результат коммита неизвестен
// (обрыв соединения, отмена контекста во время COMMIT).
func classifyCommitErr(err error) error {
	if errors.Is(err, pgx.ErrTxCommitRollback) {
		return fmt.Errorf("%w: %s", ErrCommitRolledBack, err.Error())
	}
	return fmt.Errorf("%w: %s", ErrCommitOutcomeUnknown, err.Error())
}

// GetRepository возвращает репозиторий или ошибку ErrRepositoryNotRegistered.
func (u *UnitOfWork) GetRepository(name RepositoryName) (Repository, error) {
	if repoFactory, ok := u.repositories[name]; ok {
		return repoFactory(u.conn), nil
	}
	return nil, ErrRepositoryNotRegistered
}

// GetRepositoryAs возвращает репозиторий по имени name и приводит его к типу T. Возвращает ошибки
// ErrRepositoryNotRegistered и ErrInvalidRepositoryType.
func GetRepositoryAs[T any](u UOW, name RepositoryName) (T, error) {
	var res T
	repo, err := u.GetRepository(name)
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	r, ok := repo.(T)

	if !ok {
		return res, ErrInvalidRepositoryType
	}

	return r, nil
}
