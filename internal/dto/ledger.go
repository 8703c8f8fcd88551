package dto

import "time"

type BalanceResponseDTO struct {
	AvailableCents int64 `json:"available_cents" example:"50050"`
	PendingCents   int64 `json:"pending_cents" example:"4200"`
}

type WithdrawRequestDTO struct {
	AmountCents int64 `json:"amount_cents" example:"50000"`
}

type WithdrawalResponseDTO struct {
	ID          string     `json:"id" example:"8f14e45f-ea8a-4f31-9a70-8f9d6c3f1a2b"`
	AmountCents int64      `json:"amount_cents" example:"50000"`
	Status      string     `json:"status" example:"pending"`
	RequestedAt time.Time  `json:"requested_at" example:"2020-12-09T16:09:57+03:00"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type RefundRequestDTO struct {
	CompetitionID *string `json:"competition_id,omitempty" example:"spring-trivia-2025"`
	AmountCents   int64   `json:"amount_cents" example:"1500"`
}

type RefundResponseDTO struct {
	ID            string    `json:"id" example:"1fb0c5ad-86ff-4a23-9f27-d35bb7c8e001"`
	CompetitionID *string   `json:"competition_id,omitempty" example:"spring-trivia-2025"`
	AmountCents   int64     `json:"amount_cents" example:"1500"`
	Status        string    `json:"status" example:"pending"`
	Priority      int       `json:"priority" example:"0"`
	Response      string    `json:"response,omitempty"`
	RequestedAt   time.Time `json:"requested_at" example:"2020-12-09T16:09:57+03:00"`
}

type PaymentAccountResponseDTO struct {
	KycStatus     string `json:"kyc_status" example:"pending"`
	OnboardingURL string `json:"onboarding_url" example:"https://provider.example/onboard/acct_51xb"`
}
