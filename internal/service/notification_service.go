package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"txguard/internal/domain"
)

type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationSMS   NotificationType = "sms"
	NotificationSlack NotificationType = "slack"
)

var (
	ErrNotificationServiceClosed = errors.New("notification service closed")
	ErrNoSender                  = errors.New("no sender configured")
)

const (
	FraudAlertChannel = "#fraud-alerts"
	SecurityMailbox   = "security@txguard.local"
	ApprovalsMailbox  = "approvals@txguard.local"
)

type NotificationService struct {
	emailService EmailService
	smsService   SMSService
	slackService SlackService
	messageQueue chan NotificationMessage
	workers      int
	shutdownChan chan struct{}
	closeMu      sync.RWMutex
	closed       bool
	wg           sync.WaitGroup
	logger       *slog.Logger
}

type NotificationMessage struct {
	Type      NotificationType
	Recipient string
	Subject   string
	Message   string
	Priority  int
	Metadata  map[string]string
	CreatedAt time.Time
}

type EmailService interface {
	SendEmail(to, subject, body string) error
}

type SMSService interface {
	SendSMS(to, message string) error
}

type SlackService interface {
	SendMessage(channel, message string) error
}

// VerificationNotice carries what notifications need to know about a decision.
type VerificationNotice struct {
	TransactionID string
	UserID        string
	AccountID     string
	Amount        string
	Verification  domain.TransactionVerification
}

// NewNotificationService starts the worker pool. Any sender may be nil;
// messages for a missing channel are logged and dropped.
func NewNotificationService(
	emailService EmailService,
	smsService SMSService,
	slackService SlackService,
	workers int,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}

	service := &NotificationService{
		emailService: emailService,
		smsService:   smsService,
		slackService: slackService,
		messageQueue: make(chan NotificationMessage, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// Notify queues the messages a verification outcome calls for: an MFA
// challenge, an approval request or a fraud alert. Approved and rejected
// outcomes produce nothing.
func (s *NotificationService) Notify(ctx context.Context, notice VerificationNotice) error {
	v := notice.Verification
	switch v.Status {
	case domain.StatusFlaggedFraud:
		return s.SendFraudAlert(ctx, notice)
	case domain.StatusRequiresApproval:
		return s.SendApprovalRequest(ctx, notice)
	case domain.StatusRequiresMFA:
		return s.SendMFAChallenge(ctx, notice)
	}
	return nil
}

func (s *NotificationService) SendMFAChallenge(ctx context.Context, notice VerificationNotice) error {
	return s.enqueue(ctx, NotificationMessage{
		Type:      NotificationSMS,
		Recipient: notice.UserID,
		Subject:   "Confirm your transfer",
		Message: fmt.Sprintf("Confirm the transfer of %s from account %s. Reference: %s.",
			notice.Amount, notice.AccountID, notice.TransactionID),
		Priority:  7,
		Metadata:  noticeMetadata(notice),
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) SendApprovalRequest(ctx context.Context, notice VerificationNotice) error {
	return s.enqueue(ctx, NotificationMessage{
		Type:      NotificationEmail,
		Recipient: ApprovalsMailbox,
		Subject:   fmt.Sprintf("Approval required: %s", notice.TransactionID),
		Message:   formatNotice("Transfer awaiting manual approval", notice),
		Priority:  8,
		Metadata:  noticeMetadata(notice),
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) SendFraudAlert(ctx context.Context, notice VerificationNotice) error {
	severity := string(notice.Verification.RiskLevel)
	message := formatNotice("Fraud Alert", notice)

	notifications := []NotificationMessage{
		{
			Type:      NotificationSlack,
			Recipient: FraudAlertChannel,
			Subject:   fmt.Sprintf("Fraud Alert - %s", severity),
			Message:   message,
			Priority:  10,
			Metadata:  noticeMetadata(notice),
			CreatedAt: time.Now(),
		},
		{
			Type:      NotificationEmail,
			Recipient: SecurityMailbox,
			Subject:   fmt.Sprintf("Fraud Alert: %s - %s", severity, notice.TransactionID),
			Message:   message,
			Priority:  10,
			Metadata:  noticeMetadata(notice),
			CreatedAt: time.Now(),
		},
	}

	for _, notification := range notifications {
		if err := s.enqueue(ctx, notification); err != nil {
			return err
		}
	}

	return nil
}

// enqueue holds the read lock across the send, so Shutdown cannot close the
// service while a message is on its way into the queue. Anything queued is
// therefore seen by the workers' final drain.
func (s *NotificationService) enqueue(ctx context.Context, msg NotificationMessage) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.closed {
		return ErrNotificationServiceClosed
	}

	select {
	case s.messageQueue <- msg:
		s.logger.Info("Notification queued",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.String("transaction_id", msg.Metadata["transaction_id"]))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func formatNotice(title string, notice VerificationNotice) string {
	v := notice.Verification
	return fmt.Sprintf(
		"%s\nTransaction ID: %s\nAccount: %s\nAmount: %s\nStatus: %s\nRisk Score: %d (%s)\nReasons: %s",
		title, notice.TransactionID, notice.AccountID, notice.Amount,
		v.Status, v.RiskScore, v.RiskLevel, strings.Join(v.Reasons, "; "),
	)
}

func noticeMetadata(notice VerificationNotice) map[string]string {
	return map[string]string{
		"transaction_id": notice.TransactionID,
		"user_id":        notice.UserID,
		"status":         string(notice.Verification.Status),
		"risk_score":     fmt.Sprintf("%d", notice.Verification.RiskScore),
	}
}

func (s *NotificationService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("Notification worker started", slog.Int("worker_id", id))

	for {
		select {
		case msg := <-s.messageQueue:
			s.processNotification(msg, id)
		case <-s.shutdownChan:
			s.drain(id)
			s.logger.Debug("Notification worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (s *NotificationService) drain(workerID int) {
	for {
		select {
		case msg := <-s.messageQueue:
			s.processNotification(msg, workerID)
		default:
			return
		}
	}
}

func (s *NotificationService) processNotification(msg NotificationMessage, workerID int) {
	startTime := time.Now()
	err := ErrNoSender

	switch msg.Type {
	case NotificationEmail:
		if s.emailService != nil {
			err = s.emailService.SendEmail(msg.Recipient, msg.Subject, msg.Message)
		}
	case NotificationSMS:
		if s.smsService != nil {
			err = s.smsService.SendSMS(msg.Recipient, msg.Message)
		}
	case NotificationSlack:
		if s.slackService != nil {
			err = s.slackService.SendMessage(msg.Recipient, msg.Message)
		}
	default:
		err = fmt.Errorf("unknown notification type: %s", msg.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Failed to send notification",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	} else {
		s.logger.Info("Notification sent successfully",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	}
}

// Shutdown stops accepting messages, lets the workers deliver what is
// already queued and waits for them until ctx is done.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.shutdownChan)
	}
	s.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogEmailService logs emails instead of delivering them. Used until a real
// provider is configured.
type LogEmailService struct {
	Logger *slog.Logger
}

func (m *LogEmailService) SendEmail(to, subject, body string) error {
	if m.Logger != nil {
		m.Logger.Info("Email", slog.String("to", to), slog.String("subject", subject))
	}
	return nil
}

type LogSMSService struct {
	Logger *slog.Logger
}

func (m *LogSMSService) SendSMS(to, message string) error {
	if m.Logger != nil {
		m.Logger.Info("SMS", slog.String("to", to))
	}
	return nil
}

type LogSlackService struct {
	Logger *slog.Logger
}

func (m *LogSlackService) SendMessage(channel, message string) error {
	if m.Logger != nil {
		m.Logger.Warn("Slack", slog.String("channel", channel))
	}
	return nil
}
