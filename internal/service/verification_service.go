package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"txguard/internal/domain"
	"txguard/internal/lock"
	"txguard/internal/repository"
	"txguard/internal/risk"
	"txguard/internal/tracing"
	"txguard/pkg/crypto"
	"txguard/pkg/metrics"
	"txguard/pkg/validator"

	"github.com/google/uuid"
)

var (
	// ErrEvaluationUnavailable means the account or its history could not be
	// read, so no decision was made. It is never a rejection.
	ErrEvaluationUnavailable = errors.New("verification could not be evaluated")
	ErrAccountRestricted     = errors.New("account is restricted")
	ErrAccountOwnership      = errors.New("account does not belong to user")
	ErrCurrencyMismatch      = errors.New("currency does not match account")
	ErrAuditFailed           = errors.New("verification audit could not be stored")
	ErrValidation            = errors.New("invalid verification request")
)

//go:generate mockgen -source=verification_service.go -destination=mocks/notifier_mock.go -package=mocks

type Notifier interface {
	Notify(ctx context.Context, notice VerificationNotice) error
}

type Config struct {
	LockTTL          time.Duration
	HistoryLookback  time.Duration
	HistoryLimit     int
	ApprovalTokenTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		LockTTL:          10 * time.Second,
		HistoryLookback:  32 * 24 * time.Hour,
		HistoryLimit:     1000,
		ApprovalTokenTTL: 15 * time.Minute,
	}
}

// VerificationResult is what a caller gets back from a full verification.
// ApprovalToken is only set when the decision needs MFA or approval.
type VerificationResult struct {
	TransactionID     string                         `json:"transaction_id"`
	Verification      domain.TransactionVerification `json:"verification"`
	FraudFlags        []string                       `json:"fraud_flags"`
	AuditID           string                         `json:"audit_id"`
	AuditDigest       string                         `json:"audit_digest"`
	CorrelationKey    string                         `json:"correlation_key"`
	ApprovalToken     string                         `json:"approval_token,omitempty"`
	ApprovalExpiresAt *time.Time                     `json:"approval_expires_at,omitempty"`
	EvaluatedAt       time.Time                      `json:"evaluated_at"`
}

// PreviewResult breaks a decision down into its inputs without side effects.
type PreviewResult struct {
	SingleLimit  risk.CheckResult               `json:"single_limit"`
	DailyLimits  risk.CheckResult               `json:"daily_limits"`
	PeriodLimits *risk.CheckResult              `json:"period_limits,omitempty"`
	Velocity     risk.VelocityResult            `json:"velocity"`
	Flags        domain.FraudFlags              `json:"flags"`
	Limits       domain.TransactionLimits       `json:"limits"`
	Verification domain.TransactionVerification `json:"verification"`
	EvaluatedAt  time.Time                      `json:"evaluated_at"`
}

type VerificationService struct {
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	audits       repository.AuditRepository
	locker       lock.Locker
	verifier     *risk.Verifier
	validator    *validator.TransactionValidator
	signer       *crypto.Signer
	metrics      *metrics.MetricsCollector
	notifier     Notifier
	cfg          Config
	logger       *slog.Logger
}

// NewVerificationService wires the service. metrics and notifier may be nil.
func NewVerificationService(
	accounts repository.AccountRepository,
	transactions repository.TransactionRepository,
	audits repository.AuditRepository,
	locker lock.Locker,
	verifier *risk.Verifier,
	signer *crypto.Signer,
	metricsCollector *metrics.MetricsCollector,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *VerificationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &VerificationService{
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		locker:       locker,
		verifier:     verifier,
		validator:    validator.NewTransactionValidator(),
		signer:       signer,
		metrics:      metricsCollector,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
	}
}

// Verify runs the decision flow for one request. Snapshot, decision and audit
// record happen under the account lock; notifications are queued after it
// is released.
func (s *VerificationService) Verify(ctx context.Context, req domain.VerificationRequest) (*VerificationResult, error) {
	startTime := time.Now()

	if req.TransactionID == "" {
		req.TransactionID = domain.NewTransactionID()
	}

	ctx, span := tracing.StartSpan(ctx, "verification.verify",
		tracing.TransactionID(req.TransactionID),
		tracing.AccountID(req.FromAccountID),
		tracing.Amount(req.Amount.String()))
	defer span.End()

	result, err := s.verify(ctx, req, startTime)
	if err != nil {
		tracing.RecordFailure(span, err)
		s.recordError(err)
		s.logger.WarnContext(ctx, "Verification failed",
			slog.String("transaction_id", req.TransactionID),
			slog.String("account_id", req.FromAccountID),
			slog.String("error", err.Error()))
		return nil, err
	}

	tracing.RecordDecision(span, result.Verification, result.FraudFlags)

	return result, nil
}

func (s *VerificationService) verify(ctx context.Context, req domain.VerificationRequest, startTime time.Time) (*VerificationResult, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var result *VerificationResult
	err := s.withAccountLock(ctx, req.FromAccountID, func() error {
		var err error
		result, err = s.decide(ctx, req, startTime)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req, result.Verification)

	return result, nil
}

// withAccountLock runs fn while holding the lock for accountID. Verification
// and every write to the account snapshot go through here, so a balance sync
// or history append never lands between a verification's read and its audit.
func (s *VerificationService) withAccountLock(ctx context.Context, accountID string, fn func() error) error {
	lockCtx, span := tracing.StartSpan(ctx, "account.lock", tracing.AccountID(accountID))
	unlock, err := s.locker.Acquire(lockCtx, lock.AccountKey(accountID), s.cfg.LockTTL)
	if err != nil {
		tracing.RecordFailure(span, err)
		span.End()
		return err
	}
	span.End()
	defer func() {
		// The request context may already be cancelled; release regardless.
		_ = unlock(context.WithoutCancel(ctx))
	}()

	return fn()
}

func (s *VerificationService) decide(ctx context.Context, req domain.VerificationRequest, startTime time.Time) (*VerificationResult, error) {
	now := s.verifier.Now()

	account, recent, err := s.loadSnapshot(ctx, req, now)
	if err != nil {
		return nil, err
	}

	if risk.IsAccountRestricted(*account) {
		return nil, fmt.Errorf("%w: account %s is %s", ErrAccountRestricted, account.ID, account.Status)
	}

	limits := domain.LimitsForTier(account.Tier)
	verification := s.verifier.VerifyAt(now, req.Amount, *account, req.ToAccountID, recent, limits)
	flags := s.verifier.Detector().DetectFraudFlags(req.Amount, req.ToAccountID, recent, limits, now)

	digest, err := risk.AuditDigestAt(ctx, now, verification, req.TransactionID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditFailed, err)
	}

	audit := &domain.VerificationAudit{
		ID:            uuid.NewString(),
		TransactionID: req.TransactionID,
		UserID:        req.UserID,
		AccountID:     account.ID,
		Status:        verification.Status,
		RiskLevel:     verification.RiskLevel,
		RiskScore:     verification.RiskScore,
		Reasons:       verification.Reasons,
		Digest:        digest,
		CreatedAt:     now.UTC(),
	}
	if err := s.audits.Record(ctx, audit); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditFailed, err)
	}

	result := &VerificationResult{
		TransactionID:  req.TransactionID,
		Verification:   verification,
		FraudFlags:     risk.FlagNames(flags),
		AuditID:        audit.ID,
		AuditDigest:    digest,
		CorrelationKey: risk.GenerateApprovalToken(req.TransactionID, req.UserID, now),
		EvaluatedAt:    now,
	}

	if verification.RequiresMFA || verification.RequiresApproval {
		expiresAt := now.Add(s.cfg.ApprovalTokenTTL)
		result.ApprovalToken = s.signer.SignApprovalToken(req.TransactionID, req.UserID, expiresAt)
		result.ApprovalExpiresAt = &expiresAt
	}

	if s.metrics != nil {
		s.metrics.RecordVerification(time.Since(startTime), verification, result.FraudFlags)
	}

	s.logger.InfoContext(ctx, "Transaction verified",
		slog.String("transaction_id", req.TransactionID),
		slog.String("account_id", account.ID),
		slog.String("status", string(verification.Status)),
		slog.String("risk_level", string(verification.RiskLevel)),
		slog.Int("risk_score", verification.RiskScore),
		slog.Any("fraud_flags", result.FraudFlags))

	return result, nil
}

// loadSnapshot reads the account and its outgoing history. Any failure,
// including a missing account, is reported as ErrEvaluationUnavailable so the
// caller never mistakes it for a decision.
func (s *VerificationService) loadSnapshot(ctx context.Context, req domain.VerificationRequest, now time.Time) (*domain.Account, []domain.TransactionRecord, error) {
	account, err := s.accounts.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load account: %w", ErrEvaluationUnavailable, err)
	}

	if account.UserID != "" && account.UserID != req.UserID {
		return nil, nil, fmt.Errorf("%w: account %s", ErrAccountOwnership, account.ID)
	}
	if req.Currency != "" && account.Currency != "" && req.Currency != account.Currency {
		return nil, nil, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, req.Currency, account.Currency)
	}

	recent, err := s.transactions.GetRecentByAccount(ctx, account.ID, now.Add(-s.cfg.HistoryLookback), s.cfg.HistoryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load history: %w", ErrEvaluationUnavailable, err)
	}

	if s.cfg.HistoryLimit > 0 && len(recent) >= s.cfg.HistoryLimit {
		s.logger.WarnContext(ctx, "History truncated, totals may be understated",
			slog.String("account_id", account.ID),
			slog.Int("limit", s.cfg.HistoryLimit))
	}

	return account, recent, nil
}

func (s *VerificationService) notify(ctx context.Context, req domain.VerificationRequest, v domain.TransactionVerification) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Notify(ctx, VerificationNotice{
		TransactionID: req.TransactionID,
		UserID:        req.UserID,
		AccountID:     req.FromAccountID,
		Amount:        req.Amount.StringFixed(2),
		Verification:  v,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to queue notification",
			slog.String("transaction_id", req.TransactionID),
			slog.String("error", err.Error()))
	}
}

func (s *VerificationService) recordError(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordError(errorReason(err))
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid_request"
	case errors.Is(err, lock.ErrLockNotAcquired):
		return "lock_timeout"
	case errors.Is(err, ErrAccountRestricted):
		return "account_restricted"
	case errors.Is(err, ErrAccountOwnership), errors.Is(err, ErrCurrencyMismatch):
		return "account_mismatch"
	case errors.Is(err, ErrEvaluationUnavailable):
		return "evaluation_unavailable"
	case errors.Is(err, ErrAuditFailed):
		return "audit_failed"
	default:
		return "internal"
	}
}

// Preview evaluates the request without locking, auditing or notifying.
func (s *VerificationService) Preview(ctx context.Context, req domain.VerificationRequest) (*PreviewResult, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.verifier.Now()

	account, recent, err := s.loadSnapshot(ctx, req, now)
	if err != nil {
		return nil, err
	}

	limits := domain.LimitsForTier(account.Tier)
	detector := s.verifier.Detector()

	preview := &PreviewResult{
		SingleLimit:  risk.CheckSingleTransactionLimit(req.Amount, limits),
		DailyLimits:  risk.CheckDailyLimits(req.Amount, risk.FilterToday(recent, now), limits),
		Velocity:     detector.CheckVelocity(recent, limits, now),
		Flags:        detector.DetectFraudFlags(req.Amount, req.ToAccountID, recent, limits, now),
		Limits:       limits,
		Verification: s.verifier.VerifyAt(now, req.Amount, *account, req.ToAccountID, recent, limits),
		EvaluatedAt:  now,
	}

	weekStart, weekEnd := risk.WeekWindow(now)
	monthStart, monthEnd := risk.MonthWindow(now)
	period := risk.CheckPeriodLimits(req.Amount,
		risk.FilterWindow(recent, weekStart, weekEnd),
		risk.FilterWindow(recent, monthStart, monthEnd),
		limits)
	preview.PeriodLimits = &period

	return preview, nil
}

func (s *VerificationService) ListAudits(ctx context.Context, transactionID string) ([]domain.VerificationAudit, error) {
	return s.audits.ListByTransaction(ctx, transactionID)
}

// VerifyApproval checks a signed approval token issued by Verify.
func (s *VerificationService) VerifyApproval(ctx context.Context, token, transactionID, userID string) error {
	return s.signer.VerifyApprovalToken(token, transactionID, userID, s.verifier.Now())
}

// SyncAccount stores the latest snapshot of an account pushed by the core
// banking system, creating it on first sight. It waits for any verification
// in flight on the same account.
func (s *VerificationService) SyncAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, validator.ErrInvalidAccount)
	}
	if !account.Status.IsValid() {
		return fmt.Errorf("%w: unknown account status %q", ErrValidation, account.Status)
	}
	if account.Balance.IsNegative() {
		return fmt.Errorf("%w: negative balance", ErrValidation)
	}

	return s.withAccountLock(ctx, account.ID, func() error {
		err := s.accounts.Update(ctx, account)
		if errors.Is(err, repository.ErrNotFound) {
			err = s.accounts.Save(ctx, account)
		}
		return err
	})
}

// RecordTransaction appends a settled transfer to the account history that
// later verifications read.
func (s *VerificationService) RecordTransaction(ctx context.Context, record *domain.TransactionRecord) error {
	if !record.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrValidation, validator.ErrInvalidAmount)
	}
	if record.FromAccountID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, validator.ErrInvalidAccount)
	}
	if record.ID == "" {
		record.ID = domain.NewTransactionID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.verifier.Now()
	}
	return s.withAccountLock(ctx, record.FromAccountID, func() error {
		return s.transactions.Save(ctx, record)
	})
}
