package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxSymbolLength = 10

// MaxCash наибольший баланс, который помещается в NUMERIC(16,2). Ни баланс, ни сумма одной операции не могут
// его превышать.
var MaxCash = decimal.RequireFromString("99999999999999.99")

var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]*$`)

// NormalizeSymbol приводит тикер к верхнему регистру и проверяет формат.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > MaxSymbolLength || !symbolRe.MatchString(s) {
		return "", ErrInvalidSymbolFormat
	}
	return s, nil
}

func ValidateShares(shares int64) error {
	if shares <= 0 {
		return ErrInvalidShareCount
	}
	return nil
}

// ValidateAmount проверяет сумму пополнения: строго положительная, не более двух знаков после запятой,
// не больше MaxCash.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(MaxCash) {
		return ErrCashLimit
	}
	return nil
}

// ValidateCredential логин и пароль могут содержать только буквы и цифры.
func ValidateCredential(value string) error {
	if value == "" {
		return ErrInvalidCredentials
	}
	for _, r := range value {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ErrInvalidCredentials
		}
	}
	return nil
}
