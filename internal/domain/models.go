package domain

import "time"

// Registration lifecycle statuses.
const (
	RegistrationPending   string = "pending"
	RegistrationConfirmed string = "confirmed"
	RegistrationEntered   string = "entered"
	RegistrationCompleted string = "completed"
	RegistrationCancelled string = "cancelled"
)

// Participation statuses tracked alongside the registration status.
const (
	ParticipationNotEntered string = "not_entered"
	ParticipationEntered    string = "entered"
	ParticipationForfeited  string = "forfeited"
	ParticipationCompleted  string = "completed"
)

// KYC statuses reported by the payment provider.
const (
	KycUnverified string = "unverified"
	KycPending    string = "pending"
	KycVerified   string = "verified"
	KycRejected   string = "rejected"
)

// Withdrawal request statuses.
const (
	WithdrawalPending  string = "pending"
	WithdrawalApproved string = "approved"
	WithdrawalPaid     string = "paid"
	WithdrawalRejected string = "rejected"
)

// Refund request statuses.
const (
	RefundPending   string = "pending"
	RefundApproved  string = "approved"
	RefundProcessed string = "processed"
	RefundDenied    string = "denied"
)

type Balance struct {
	ID             int   `db:"id"`
	UserID         int   `db:"user_id"`
	AvailableCents int64 `db:"available_cents"`
	PendingCents   int64 `db:"pending_cents"`
	Version        int64 `db:"version"`
}

// LedgerEntry is the durable record of a single applied credit. The
// idempotency key is unique, which is what makes a credit exactly-once.
type LedgerEntry struct {
	ID             int       `db:"id"`
	UserID         int       `db:"user_id"`
	AmountCents    int64     `db:"amount_cents"`
	Reason         string    `db:"reason"`
	IdempotencyKey string    `db:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at"`
}

type Registration struct {
	ID                  int        `db:"id"`
	UserID              int        `db:"user_id"`
	CompetitionID       string     `db:"competition_id"`
	Status              string     `db:"status"`
	ParticipationStatus string     `db:"participation_status"`
	Score               int        `db:"score"`
	ResponseTimeMS      int64      `db:"response_time_ms"`
	EnteredAt           *time.Time `db:"entered_at"`
	CreatedAt           time.Time  `db:"created_at"`
}

type Competition struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	EntryFeeCents  int64     `db:"entry_fee_cents"`
	PrizePoolCents int64     `db:"prize_pool_cents"`
	ClosesAt       time.Time `db:"closes_at"`
}

type PaymentAccount struct {
	UserID            int       `db:"user_id"`
	ProviderAccountID string    `db:"provider_account_id"`
	KycStatus         string    `db:"kyc_status"`
	OnboardingURL     string    `db:"onboarding_url"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type Withdrawal struct {
	ID          string     `db:"id"`
	UserID      int        `db:"user_id"`
	AmountCents int64      `db:"amount_cents"`
	Status      string     `db:"status"`
	RequestedAt time.Time  `db:"requested_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}

type Refund struct {
	ID            string    `db:"id"`
	UserID        int       `db:"user_id"`
	CompetitionID *string   `db:"competition_id"`
	AmountCents   int64     `db:"amount_cents"`
	Status        string    `db:"status"`
	Priority      int       `db:"priority"`
	Response      string    `db:"response"`
	RequestedAt   time.Time `db:"requested_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Winner is one entry of a finalization's ordered winner set.
type Winner struct {
	UserID      int   `json:"user_id"`
	Rank        int   `json:"rank"`
	PayoutCents int64 `json:"payout_cents"`
}

type Finalization struct {
	CompetitionID string    `db:"competition_id"`
	FinalizedAt   time.Time `db:"finalized_at"`
	Winners       []Winner  `db:"winners"`
}
