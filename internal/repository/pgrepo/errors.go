package pgrepo

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE коды, которые различает слой репозитория.
const (
	uniqueViolationCode   = "23505"
	checkViolationCode    = "23514"
	numericOutOfRangeCode = "22003"
)

// convertErr приводит ошибку pgx к доменной и добавляет контекст операции:
//   - pgx.ErrNoRows -> domain.ErrRecordNotFound;
//   - нарушение уникальности (повтор operation_id, занятый логин) -> domain.ErrDuplicateKey;
//   - нарушение CHECK (cash >= 0) и выход за точность NUMERIC -> domain.ErrConstraintViolation
//     с именем ограничения;
//   - остальное -> domain.ErrUnknown с исходным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	op := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", op, domain.ErrRecordNotFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("[repository/%s] %w: %s", op, domain.ErrUnknown, err.Error())
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("[repository/%s] %w: %s", op, domain.ErrDuplicateKey, pgErr.ConstraintName)
	case checkViolationCode, numericOutOfRangeCode:
		return fmt.Errorf("[repository/%s] %w: %s %s",
			op, domain.ErrConstraintViolation, pgErr.ConstraintName, pgErr.Message)
	default:
		return fmt.Errorf("[repository/%s] %w: %s", op, domain.ErrUnknown, err.Error())
	}
}
