package validator

import (
	"errors"
	"testing"
	"txguard/internal/domain"

	"github.com/shopspring/decimal"
)

func validRequest() domain.VerificationRequest {
	return domain.VerificationRequest{
		TransactionID: "txn-1",
		UserID:        "user-1",
		FromAccountID: "A1",
		ToAccountID:   "A2",
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
	}
}

func TestTransactionValidator_ValidRequest(t *testing.T) {
	v := NewTransactionValidator()

	if err := v.ValidateRequest(validRequest()); err != nil {
		t.Fatalf("expected valid request, got err=%v", err)
	}
}

func TestTransactionValidator_ResubmissionIsAllowed(t *testing.T) {
	v := NewTransactionValidator()
	req := validRequest()

	if err := v.ValidateRequest(req); err != nil {
		t.Fatalf("first validation should succeed, got %v", err)
	}
	if err := v.ValidateRequest(req); err != nil {
		t.Fatalf("re-submission should succeed, got %v", err)
	}
}

func TestTransactionValidator_InvalidAmount(t *testing.T) {
	v := NewTransactionValidator()
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		req := validRequest()
		req.Amount = amount

		err := v.ValidateRequest(req)

		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount for %s, got %v", amount, err)
		}
	}
}

func TestTransactionValidator_InvalidCurrencyFormat(t *testing.T) {
	v := NewTransactionValidator()
	req := validRequest()
	req.Currency = "US"

	if err := v.ValidateRequest(req); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestTransactionValidator_SameAccount(t *testing.T) {
	v := NewTransactionValidator()
	req := validRequest()
	req.ToAccountID = req.FromAccountID

	if err := v.ValidateRequest(req); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestTransactionValidator_CollectsAllErrors(t *testing.T) {
	v := NewTransactionValidator()

	err := v.ValidateRequest(domain.VerificationRequest{})

	if !errors.Is(err, ErrInvalidAmount) || !errors.Is(err, ErrMissingUser) || !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestTransactionValidator_LargeAmountIsNotAnError(t *testing.T) {
	v := NewTransactionValidator()
	for _, currency := range []string{"", "USD", "EUR", "GBP"} {
		req := validRequest()
		req.Amount = decimal.NewFromInt(2000000)
		req.Currency = currency

		if err := v.ValidateRequest(req); err != nil {
			t.Errorf("expected %s amount above any cap to pass validation, got %v", currency, err)
		}
	}
}
