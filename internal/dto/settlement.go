package dto

type FinalizeRequestDTO struct {
	CompetitionID *string `json:"competition_id,omitempty" example:"spring-trivia-2025"`
}

type FinalizeResponseDTO struct {
	Success          bool     `json:"success" example:"true"`
	Finalized        []string `json:"finalized"`
	AlreadyFinalized []string `json:"already_finalized"`
}

type RefundUpdateRequestDTO struct {
	Status   *string `json:"status,omitempty" example:"approved"`
	Priority *int    `json:"priority,omitempty" example:"5"`
	Response *string `json:"response,omitempty" example:"verified against charge record"`
}

type WithdrawalSettleRequestDTO struct {
	Outcome string `json:"outcome" example:"paid"`
}
