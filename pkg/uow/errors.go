package uow

import "errors"

var (
	ErrRepositoryNotRegistered     = errors.New("[uow] repository not registered")
	ErrRepositoryAlreadyRegistered = errors.New("[uow] repository already registered")
	ErrInvalidRepositoryType       = errors.New("[uow] invalid repository type")

	ErrBeginTx = errors.New("[uow] begin transaction")
	// ErrCommitRolledBack сервер сообщил, что транзакция откачена. Ни одно изменение не применено.
	ErrCommitRolledBack = errors.New("[uow] transaction rolled back on commit")
	// ErrCommitOutcomeUnknown коммит был отправлен, но подтверждение не получено.
	ErrCommitOutcomeUnknown = errors.New("[uow] commit outcome unknown")
)
