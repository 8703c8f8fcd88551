package reconciliationservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/pg"
	"github.com/quizarena/settlement/pkg/metrics"
	"go.uber.org/zap"
)

type EventRepo interface {
	Insert(ctx context.Context, eventID, eventType string) (bool, error)
}

type Accounts interface {
	ResolveByProviderAccount(ctx context.Context, providerAccountID string) (*domain.PaymentAccount, error)
	UpdateKycStatus(ctx context.Context, userID int, status string) error
}

type Registrations interface {
	ConfirmPayment(ctx context.Context, registrationID int) error
}

type Ledger interface {
	SettleWithdrawal(ctx context.Context, withdrawalID, outcome string) error
}

type Service struct {
	events        EventRepo
	accounts      Accounts
	registrations Registrations
	ledger        Ledger
	txManager     pg.TXManager
}

func New(events EventRepo, accounts Accounts, registrations Registrations, ledger Ledger, txManager pg.TXManager) *Service {
	return &Service{
		events:        events,
		accounts:      accounts,
		registrations: registrations,
		ledger:        ledger,
		txManager:     txManager,
	}
}

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidEvent     = errors.New("invalid event payload")
)

// Provider event types this gateway accepts. Anything else is rejected
// explicitly rather than silently ignored.
const (
	EventKycUpdated      = "kyc_updated"
	EventChargeSucceeded = "charge_succeeded"
	EventPayoutCompleted = "payout_completed"
	EventPayoutFailed    = "payout_failed"
)

// Closed set of typed event variants the loose webhook payload is parsed
// into before anything touches the stores.
type (
	kycUpdated struct {
		accountID string
		status    string
	}
	chargeSucceeded struct {
		registrationID int
	}
	payoutResolved struct {
		withdrawalID string
		outcome      string
	}
)

// HandleEvent validates, deduplicates and applies one provider callback.
// Dedup insert and apply share a transaction, so the event id becomes
// durable only together with its effects — a crash before commit lets the
// provider redeliver safely.
func (s *Service) HandleEvent(ctx context.Context, payload dto.PaymentWebhookDTO) error {
	event, err := parseEvent(payload)
	if err != nil {
		return err
	}

	var duplicate bool
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		inserted, err := s.events.Insert(ctx, payload.EventID, payload.Type)
		if err != nil {
			return err
		}
		if !inserted {
			duplicate = true
			return nil
		}
		return s.apply(ctx, event)
	})
	if err != nil {
		return err
	}

	if duplicate {
		metrics.WebhookEvents.WithLabelValues(payload.Type, "duplicate").Inc()
		zap.L().Info("discarding replayed provider event", zap.String("eventID", payload.EventID))
		return nil
	}
	metrics.WebhookEvents.WithLabelValues(payload.Type, "applied").Inc()
	return nil
}

func parseEvent(payload dto.PaymentWebhookDTO) (any, error) {
	if payload.EventID == "" {
		return nil, ErrInvalidEvent
	}
	switch payload.Type {
	case EventKycUpdated:
		if payload.AccountID == "" || payload.Status == "" {
			return nil, ErrInvalidEvent
		}
		return kycUpdated{accountID: payload.AccountID, status: payload.Status}, nil
	case EventChargeSucceeded:
		registrationID, err := strconv.Atoi(payload.Reference)
		if err != nil || registrationID <= 0 {
			return nil, ErrInvalidEvent
		}
		return chargeSucceeded{registrationID: registrationID}, nil
	case EventPayoutCompleted:
		if payload.Reference == "" {
			return nil, ErrInvalidEvent
		}
		return payoutResolved{withdrawalID: payload.Reference, outcome: domain.WithdrawalPaid}, nil
	case EventPayoutFailed:
		if payload.Reference == "" {
			return nil, ErrInvalidEvent
		}
		return payoutResolved{withdrawalID: payload.Reference, outcome: domain.WithdrawalRejected}, nil
	default:
		return nil, ErrUnknownEventType
	}
}

func (s *Service) apply(ctx context.Context, event any) error {
	switch e := event.(type) {
	case kycUpdated:
		account, err := s.accounts.ResolveByProviderAccount(ctx, e.accountID)
		if err != nil {
			return err
		}
		return s.accounts.UpdateKycStatus(ctx, account.UserID, e.status)
	case chargeSucceeded:
		return s.registrations.ConfirmPayment(ctx, e.registrationID)
	case payoutResolved:
		return s.ledger.SettleWithdrawal(ctx, e.withdrawalID, e.outcome)
	default:
		return ErrUnknownEventType
	}
}
