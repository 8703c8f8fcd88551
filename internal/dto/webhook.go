package dto

type PaymentWebhookDTO struct {
	EventID     string `json:"event_id" example:"evt_9f2c1d"`
	Type        string `json:"type" example:"kyc_updated"`
	AccountID   string `json:"account_id" example:"acct_51xb"`
	Status      string `json:"status" example:"verified"`
	AmountCents int64  `json:"amount_cents,omitempty" example:"10000"`
	Reference   string `json:"reference,omitempty" example:"42"`
}
