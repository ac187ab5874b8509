package validator

import (
	"errors"
	"fmt"
	"regexp"
	"txguard/internal/domain"
)

var (
	ErrInvalidAmount   = errors.New("invalid transaction amount")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidAccount  = errors.New("invalid account")
	ErrMissingUser     = errors.New("user id is required")
)

type TransactionValidator struct {
	currencyRegex *regexp.Regexp
}

func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{
		currencyRegex: regexp.MustCompile(`^[A-Z]{3}$`),
	}
}

// ValidateRequest rejects requests that cannot be evaluated at all. There is
// no upper bound on the amount here: oversized transfers are rejected by the
// verifier's limit checks so they still get a decision and an audit row.
func (v *TransactionValidator) ValidateRequest(req domain.VerificationRequest) error {
	var errs []error

	if !req.Amount.IsPositive() {
		errs = append(errs, ErrInvalidAmount)
	}

	if req.Currency != "" && !v.currencyRegex.MatchString(req.Currency) {
		errs = append(errs, ErrInvalidCurrency)
	}

	if req.UserID == "" {
		errs = append(errs, ErrMissingUser)
	}

	if req.FromAccountID == "" || req.ToAccountID == "" {
		errs = append(errs, fmt.Errorf("%w: from and to accounts are required", ErrInvalidAccount))
	} else if req.FromAccountID == req.ToAccountID {
		errs = append(errs, fmt.Errorf("%w: cannot transfer to same account", ErrInvalidAccount))
	}

	return errors.Join(errs...)
}
