package dto

import "time"

type RegistrationResponseDTO struct {
	ID                  int        `json:"id" example:"42"`
	CompetitionID       string     `json:"competition_id" example:"spring-trivia-2025"`
	Status              string     `json:"status" example:"pending"`
	ParticipationStatus string     `json:"participation_status" example:"not_entered"`
	EnteredAt           *time.Time `json:"entered_at,omitempty"`
}

type RecordResultRequestDTO struct {
	Score          int   `json:"score" example:"18"`
	ResponseTimeMS int64 `json:"response_time_ms" example:"73450"`
}
